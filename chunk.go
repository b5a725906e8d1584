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

import "fmt"

const (
	// chunkSplitThreshold is the body size at which an appending
	// chunk writer closes the current chunk and starts a new one.
	// Chunks grow slightly past this, never by more than one entry.
	chunkSplitThreshold = 2000

	// maxEntriesPerChunk bounds how many doclen entries the doclen
	// writer packs into one chunk before splitting.
	maxEntriesPerChunk = 2000

	// minRunLength is the smallest contiguous block worth encoding
	// as a fixed-width run; blocks of this length or shorter encode
	// as sparse entries.
	minRunLength = 4

	// minGoodRatio is the smallest acceptable ratio of useful bytes
	// to charged bytes when extending a fixed-width run.
	minGoodRatio = 0.5

	// separator discriminates a fixed-width run from a sparse entry
	// inside a doclen chunk body.  Sparse deltas are always >= 1 and
	// bounded by the chunk's docid span, so a legitimate delta can
	// never collide with it.
	separator = 0xFFFFFFFF

	// Tombstone is the sentinel wdf/doclen in a change set that
	// deletes the entry instead of upserting it.  It shares its
	// numeric value with separator but the two are distinct in
	// meaning and are never interchanged.
	Tombstone = 0xFFFFFFFF
)

// makeKey returns the key of a posting list's first chunk.  The
// doclen list is the list whose term is the empty string.
func makeKey(term string) []byte {
	return packStringPreservingSort(nil, term)
}

// makeChunkKey returns the key of the chunk whose first entry is did.
// It sorts after makeKey(term) and before any chunk key of the same
// term with a larger first docid.
func makeChunkKey(term string, did uint32) []byte {
	return packUintPreservingSort(packStringPreservingSort(nil, term), did)
}

// ParseChunkKey decodes a raw table key into the term it belongs to
// and, for non-first chunks, the first docid in the chunk.  Exposed
// for tooling that walks a store directly.
func ParseChunkKey(key []byte) (term string, firstDID uint32, isFirst bool, err error) {
	return splitChunkKey(key)
}

// splitChunkKey decodes a chunk key into the term and, for non-first
// chunks, the first docid in the chunk.
func splitChunkKey(key []byte) (term string, firstDID uint32, isFirst bool, err error) {
	r := byteReader{buf: key}
	term, err = r.unpackStringPreservingSort()
	if err != nil {
		return "", 0, false, fmt.Errorf("chunk key: %w", err)
	}
	if r.empty() {
		return term, 0, true, nil
	}
	firstDID, err = r.unpackUintPreservingSort()
	if err != nil {
		return "", 0, false, fmt.Errorf("chunk key: %w", err)
	}
	if !r.empty() {
		return "", 0, false, fmt.Errorf("trailing bytes in chunk key: %w", ErrCorrupt)
	}
	return term, firstDID, false, nil
}

// keyMatchesTerm reports whether key belongs to term's posting list,
// returning the decoded tail as in splitChunkKey.
func keyMatchesTerm(key []byte, term string) (firstDID uint32, isFirst bool, ok bool) {
	t, did, first, err := splitChunkKey(key)
	if err != nil || t != term {
		return 0, false, false
	}
	return did, first, true
}

// makeFirstChunkHeader builds the prefix carried only by a list's
// first chunk: the two aggregates then firstDID-1.  A brand-new list
// is bootstrapped with firstDID 0, relying on unsigned wraparound the
// way the decoder undoes it.
func makeFirstChunkHeader(termfreq, collfreq uint64, firstDID uint32) []byte {
	buf := packUint(nil, termfreq)
	buf = packUint(buf, collfreq)
	return packUint(buf, uint64(firstDID-1))
}

// makeChunkHeader builds the header every chunk carries: the last
// flag and the docid span of the chunk.
func makeChunkHeader(isLast bool, firstDID, lastDID uint32) []byte {
	buf := packBool(nil, isLast)
	return packUint(buf, uint64(lastDID-firstDID))
}

// readFirstChunkHeader decodes the first-chunk prefix and returns the
// first docid of the list.
func readFirstChunkHeader(r *byteReader) (termfreq, collfreq uint64, firstDID uint32, err error) {
	termfreq, err = r.unpackUint64()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("first chunk termfreq: %w", err)
	}
	collfreq, err = r.unpackUint64()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("first chunk collfreq: %w", err)
	}
	didMinusOne, err := r.unpackUint32()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("first chunk first docid: %w", err)
	}
	return termfreq, collfreq, didMinusOne + 1, nil
}

// readChunkHeader decodes the common chunk header given the chunk's
// first docid, returning the last flag and the last docid.
func readChunkHeader(r *byteReader, firstDID uint32) (isLast bool, lastDID uint32, err error) {
	isLast, err = r.unpackBool()
	if err != nil {
		return false, 0, fmt.Errorf("chunk header last flag: %w", err)
	}
	span, err := r.unpackUint32()
	if err != nil {
		return false, 0, fmt.Errorf("chunk header docid span: %w", err)
	}
	return isLast, firstDID + span, nil
}

// rewriteChunkHeader replaces buf[start:end], which must hold an
// existing common chunk header, with a freshly built one.  Used to
// flip the last flag on a surviving chunk without touching its body.
func rewriteChunkHeader(buf []byte, start, end int, isLast bool, firstDID, lastDID uint32) []byte {
	hdr := makeChunkHeader(isLast, firstDID, lastDID)
	out := make([]byte, 0, len(buf)-(end-start)+len(hdr))
	out = append(out, buf[:start]...)
	out = append(out, hdr...)
	return append(out, buf[end:]...)
}
