//  Copyright (c) 2026 FullTextDB, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postings

// KVStore is the sorted key-value table the engine stores chunks in.
// Keys and values are arbitrary byte strings; keys sort
// lexicographically.  The engine assumes a single writer; read-only
// implementations return ErrReadOnly from the mutating calls.
type KVStore interface {
	// Cursor returns a new cursor, initially positioned nowhere.
	Cursor() KVCursor

	// Add upserts a key.
	Add(key, value []byte) error

	// Del removes a key, reporting whether it was present.
	Del(key []byte) (bool, error)

	// Get returns the value stored under exactly key.
	Get(key []byte) (value []byte, found bool, err error)

	// Has reports whether exactly key is present.
	Has(key []byte) (bool, error)
}

// KVCursor walks a KVStore in key order.  A cursor survives mutations
// made through its store while it is positioned, which the chunk
// splice protocol relies on.
type KVCursor interface {
	// FindEntry positions at key and reports true on an exact hit.
	// Otherwise it positions at the greatest key less than key, or
	// before the first entry (with an empty Key) when there is none,
	// and reports false.
	FindEntry(key []byte) bool

	// Next advances to the following key, reporting whether the
	// cursor is still on an entry.
	Next() bool

	// AfterEnd reports whether the cursor has moved past the last
	// entry.
	AfterEnd() bool

	// Key returns the current key, empty when positioned before the
	// first entry.
	Key() []byte

	// Value returns the current entry's value.
	Value() ([]byte, error)

	// Del removes the current entry and advances, reporting whether
	// the cursor is still on an entry.
	Del() (bool, error)

	// Clone returns an independent cursor at the same position.
	Clone() KVCursor
}
