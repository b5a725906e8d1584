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
	"testing"
)

func TestChunkKeyOrder(t *testing.T) {
	// For one term the first chunk sorts before every docid-keyed
	// chunk, chunks order by first docid, and another term's keys
	// never interleave.
	keys := [][]byte{
		makeKey("cat"),
		makeChunkKey("cat", 1),
		makeChunkKey("cat", 2),
		makeChunkKey("cat", 255),
		makeChunkKey("cat", 256),
		makeChunkKey("cat", 1<<20),
		makeKey("cats"),
		makeChunkKey("cats", 1),
		makeKey("dog"),
	}
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			t.Fatalf("key %d (% x) >= key %d (% x)", i-1, keys[i-1], i, keys[i])
		}
	}
}

func TestSplitChunkKey(t *testing.T) {
	term, did, isFirst, err := splitChunkKey(makeKey("cat"))
	if err != nil || term != "cat" || !isFirst {
		t.Fatalf("splitChunkKey(first) = %q, %d, %v, %v", term, did, isFirst, err)
	}
	term, did, isFirst, err = splitChunkKey(makeChunkKey("cat", 9000))
	if err != nil || term != "cat" || isFirst || did != 9000 {
		t.Fatalf("splitChunkKey(chunk) = %q, %d, %v, %v", term, did, isFirst, err)
	}
	if _, _, _, err := splitChunkKey([]byte("cat")); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for unterminated key, got %v", err)
	}
}

func TestChunkHeaderRoundtrip(t *testing.T) {
	buf := makeFirstChunkHeader(42, 99, 7)
	buf = append(buf, makeChunkHeader(true, 7, 350)...)
	r := byteReader{buf: buf}
	termfreq, collfreq, firstDID, err := readFirstChunkHeader(&r)
	if err != nil {
		t.Fatalf("readFirstChunkHeader: %v", err)
	}
	if termfreq != 42 || collfreq != 99 || firstDID != 7 {
		t.Fatalf("first chunk header = (%d, %d, %d)", termfreq, collfreq, firstDID)
	}
	isLast, lastDID, err := readChunkHeader(&r, firstDID)
	if err != nil {
		t.Fatalf("readChunkHeader: %v", err)
	}
	if !isLast || lastDID != 350 {
		t.Fatalf("chunk header = (%v, %d)", isLast, lastDID)
	}
	if !r.empty() {
		t.Fatalf("%d bytes left over", r.remaining())
	}
}

func TestFirstChunkHeaderBootstrap(t *testing.T) {
	// A brand-new list is bootstrapped with firstDID 0; the encoding
	// wraps through firstDID-1 and must wrap back on read.
	buf := makeFirstChunkHeader(0, 0, 0)
	r := byteReader{buf: buf}
	_, _, firstDID, err := readFirstChunkHeader(&r)
	if err != nil {
		t.Fatalf("readFirstChunkHeader: %v", err)
	}
	if firstDID != 0 {
		t.Fatalf("bootstrap firstDID = %d, want 0", firstDID)
	}
}

func TestRewriteChunkHeader(t *testing.T) {
	body := packUint(packUint(nil, 3), 11)
	buf := makeChunkHeader(false, 10, 20)
	hdrLen := len(buf)
	buf = append(buf, body...)

	out := rewriteChunkHeader(buf, 0, hdrLen, true, 10, 20)
	r := byteReader{buf: out}
	isLast, lastDID, err := readChunkHeader(&r, 10)
	if err != nil {
		t.Fatalf("readChunkHeader after rewrite: %v", err)
	}
	if !isLast || lastDID != 20 {
		t.Fatalf("rewritten header = (%v, %d)", isLast, lastDID)
	}
	if !bytes.Equal(out[r.pos:], body) {
		t.Fatalf("rewrite disturbed the body: % x", out[r.pos:])
	}
}

func TestReadChunkHeaderTruncated(t *testing.T) {
	hdr := makeChunkHeader(false, 1, 500)
	r := byteReader{buf: hdr[:1]}
	if _, _, err := readChunkHeader(&r, 1); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
