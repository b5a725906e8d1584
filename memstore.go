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

import (
	"bytes"
	"fmt"

	"github.com/google/btree"
)

type memItem struct {
	key []byte
	val []byte
}

func (it *memItem) Less(other btree.Item) bool {
	return bytes.Compare(it.key, other.(*memItem).key) < 0
}

// MemStore is a writable in-memory sorted KVStore.  Cursors address
// entries by key rather than by node, so the interleaved Add/Del
// traffic of the merge drivers never invalidates one.
type MemStore struct {
	tree *btree.BTree
}

func NewMemStore() *MemStore {
	return &MemStore{tree: btree.New(32)}
}

func (s *MemStore) Len() int { return s.tree.Len() }

func (s *MemStore) Add(key, value []byte) error {
	s.tree.ReplaceOrInsert(&memItem{
		key: append([]byte(nil), key...),
		val: append([]byte(nil), value...),
	})
	return nil
}

func (s *MemStore) Del(key []byte) (bool, error) {
	return s.tree.Delete(&memItem{key: key}) != nil, nil
}

func (s *MemStore) Get(key []byte) ([]byte, bool, error) {
	it := s.tree.Get(&memItem{key: key})
	if it == nil {
		return nil, false, nil
	}
	return it.(*memItem).val, true, nil
}

func (s *MemStore) Has(key []byte) (bool, error) {
	return s.tree.Has(&memItem{key: key}), nil
}

func (s *MemStore) Cursor() KVCursor {
	return &memCursor{store: s}
}

type memCursor struct {
	store *MemStore
	key   []byte // nil when positioned before the first entry
	found bool   // on a live entry (vs before-begin)
	after bool
}

func (c *memCursor) FindEntry(key []byte) bool {
	c.after = false
	var hit *memItem
	c.store.tree.DescendLessOrEqual(&memItem{key: key}, func(it btree.Item) bool {
		hit = it.(*memItem)
		return false
	})
	if hit == nil {
		c.key = nil
		c.found = false
		return false
	}
	c.key = append([]byte(nil), hit.key...)
	c.found = true
	return bytes.Equal(hit.key, key)
}

func (c *memCursor) Next() bool {
	if c.after {
		return false
	}
	var next *memItem
	if c.key == nil {
		if min := c.store.tree.Min(); min != nil {
			next = min.(*memItem)
		}
	} else {
		c.store.tree.AscendGreaterOrEqual(&memItem{key: c.key}, func(it btree.Item) bool {
			m := it.(*memItem)
			if bytes.Equal(m.key, c.key) {
				return true
			}
			next = m
			return false
		})
	}
	if next == nil {
		c.after = true
		c.found = false
		return false
	}
	c.key = append([]byte(nil), next.key...)
	c.found = true
	return true
}

func (c *memCursor) AfterEnd() bool { return c.after }

func (c *memCursor) Key() []byte {
	if !c.found {
		return nil
	}
	return c.key
}

func (c *memCursor) Value() ([]byte, error) {
	if !c.found {
		return nil, fmt.Errorf("cursor is not on an entry: %w", ErrCorrupt)
	}
	it := c.store.tree.Get(&memItem{key: c.key})
	if it == nil {
		return nil, fmt.Errorf("cursor entry disappeared: %w", ErrCorrupt)
	}
	return it.(*memItem).val, nil
}

func (c *memCursor) Del() (bool, error) {
	if !c.found {
		return false, fmt.Errorf("cursor is not on an entry: %w", ErrCorrupt)
	}
	c.store.tree.Delete(&memItem{key: c.key})
	var next *memItem
	c.store.tree.AscendGreaterOrEqual(&memItem{key: c.key}, func(it btree.Item) bool {
		next = it.(*memItem)
		return false
	})
	if next == nil {
		c.after = true
		c.found = false
		return false, nil
	}
	c.key = append([]byte(nil), next.key...)
	c.found = true
	return true, nil
}

func (c *memCursor) Clone() KVCursor {
	clone := *c
	clone.key = append([]byte(nil), c.key...)
	if c.key == nil {
		clone.key = nil
	}
	return &clone
}
