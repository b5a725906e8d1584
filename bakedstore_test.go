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
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// bakeFixture builds a store with a few posting lists and a doclen
// list, bakes it, and opens the baked copy.
func bakeFixture(t *testing.T) (*MemStore, *BakedStore) {
	t.Helper()
	src := NewMemStore()
	table := NewPostListTable(src)
	buildPostList(t, table, "cat", map[uint32]uint32{1: 2, 4: 1, 9: 3})
	buildPostList(t, table, "dog", bigList(2500))
	if err := table.MergeDoclenChanges(map[uint32]uint32{1: 11, 2: 12, 3: 13, 4: 14, 5: 15, 9: 19}); err != nil {
		t.Fatalf("MergeDoclenChanges: %v", err)
	}

	path := filepath.Join(t.TempDir(), "postings.baked")
	if err := Bake(path, src); err != nil {
		t.Fatalf("Bake: %v", err)
	}
	baked, err := OpenBaked(path)
	if err != nil {
		t.Fatalf("OpenBaked: %v", err)
	}
	t.Cleanup(func() { _ = baked.Close() })
	return src, baked
}

func TestBakeRoundtrip(t *testing.T) {
	src, baked := bakeFixture(t)
	if baked.Len() != src.Len() {
		t.Fatalf("baked %d keys, source has %d", baked.Len(), src.Len())
	}

	// Every key and value survives byte-identical.
	srcCursor := src.Cursor()
	srcCursor.FindEntry(nil)
	for srcCursor.Next() {
		want, err := srcCursor.Value()
		if err != nil {
			t.Fatalf("source value: %v", err)
		}
		got, found, err := baked.Get(srcCursor.Key())
		if err != nil || !found {
			t.Fatalf("baked Get(% x) = %v, %v", srcCursor.Key(), found, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("baked value of % x differs", srcCursor.Key())
		}
	}

	if found, err := baked.Has(makeKey("cat")); err != nil || !found {
		t.Fatalf("baked Has(cat) = %v, %v", found, err)
	}
	if found, err := baked.Has(makeKey("fox")); err != nil || found {
		t.Fatalf("baked Has(fox) = %v, %v", found, err)
	}
}

func TestBakedCursorSemantics(t *testing.T) {
	_, baked := bakeFixture(t)
	cursor := baked.Cursor()

	if !cursor.FindEntry(makeKey("cat")) {
		t.Fatalf("FindEntry on exact key missed")
	}
	// A key between entries positions at its predecessor.
	probe := append(makeKey("cat"), 0x01)
	if cursor.FindEntry(probe) {
		t.Fatalf("FindEntry between keys claimed a hit")
	}
	if !bytes.Equal(cursor.Key(), makeKey("cat")) {
		t.Fatalf("FindEntry between keys positioned at % x", cursor.Key())
	}
	// Walk to the end.
	n := 0
	for cursor.Next() {
		n++
	}
	if !cursor.AfterEnd() {
		t.Fatalf("cursor not after end")
	}
	if n == 0 {
		t.Fatalf("walked no keys")
	}
}

func TestBakedEngineReads(t *testing.T) {
	// The whole read path runs against a baked store.
	_, baked := bakeFixture(t)
	table := NewPostListTable(baked)

	if termfreq, collfreq, err := table.GetFreqs("cat"); err != nil || termfreq != 3 || collfreq != 6 {
		t.Fatalf("GetFreqs(cat) = (%d, %d), %v", termfreq, collfreq, err)
	}
	pl, err := table.OpenPostList("dog")
	if err != nil {
		t.Fatalf("OpenPostList(dog): %v", err)
	}
	n := 0
	for pl.Next() {
		n++
	}
	if err := pl.Err(); err != nil {
		t.Fatalf("iterating dog: %v", err)
	}
	if n != 2500 {
		t.Fatalf("dog has %d entries, want 2500", n)
	}
	if length, err := table.GetDocLength(5); err != nil || length != 15 {
		t.Fatalf("GetDocLength(5) = %d, %v", length, err)
	}
	if _, err := table.GetDocLength(6); !errors.Is(err, ErrDocNotFound) {
		t.Fatalf("GetDocLength(6) = %v", err)
	}
}

func TestBakedStoreReadOnly(t *testing.T) {
	_, baked := bakeFixture(t)
	if err := baked.Add([]byte("k"), []byte("v")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Add on baked store = %v", err)
	}
	if _, err := baked.Del([]byte("k")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Del on baked store = %v", err)
	}
	cursor := baked.Cursor()
	cursor.FindEntry(makeKey("cat"))
	if _, err := cursor.Del(); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("cursor Del on baked store = %v", err)
	}
}

func TestBakedStoreChecksum(t *testing.T) {
	src := NewMemStore()
	table := NewPostListTable(src)
	buildPostList(t, table, "cat", map[uint32]uint32{1: 2})

	path := filepath.Join(t.TempDir(), "postings.baked")
	if err := Bake(path, src); err != nil {
		t.Fatalf("Bake: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[0] ^= 0xff
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenBaked(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("OpenBaked on flipped byte = %v", err)
	}
}
