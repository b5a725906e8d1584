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

// doclenChunkWriter merges a slice of pending doclen changes, all of
// which fall inside one chunk's docid range, into that chunk and
// emits the replacement chunk(s).  A change with a Tombstone length
// erases the entry; anything else upserts.
type doclenChunkWriter struct {
	chunk        []byte
	changes      []doclenEntry
	isFirstChunk bool
	firstDID     uint32

	isLastChunk bool
}

// mergedEntries parses the original chunk, applies the change slice
// in one ordered pass, and returns the surviving entries.  An empty
// result means the chunk disappears; the caller splices it out of the
// list.
func (dw *doclenChunkWriter) mergedEntries() ([]doclenEntry, error) {
	r := byteReader{buf: dw.chunk}
	if dw.isFirstChunk {
		if _, _, _, err := readFirstChunkHeader(&r); err != nil {
			return nil, err
		}
	}
	var err error
	if dw.isLastChunk, _, err = readChunkHeader(&r, 0); err != nil {
		return nil, err
	}

	orig, err := decodeDoclenChunk(dw.chunk[r.pos:], dw.firstDID)
	if err != nil {
		return nil, err
	}

	merged := make([]doclenEntry, 0, len(orig)+len(dw.changes))
	oi := 0
	for _, chg := range dw.changes {
		for oi < len(orig) && orig[oi].did < chg.did {
			merged = append(merged, orig[oi])
			oi++
		}
		if oi < len(orig) && orig[oi].did == chg.did {
			oi++
		}
		if chg.length != Tombstone {
			merged = append(merged, chg)
		}
	}
	merged = append(merged, orig[oi:]...)
	return merged, nil
}

// emit writes merged back as one chunk, or as several when it exceeds
// maxEntriesPerChunk.  Only the final output chunk inherits the
// original last flag; only the leading one is a first chunk, and a
// doclen first chunk always stores zero aggregates.
func (dw *doclenChunkWriter) emit(store KVStore, merged []doclenEntry) error {
	if len(merged) == 0 {
		return fmt.Errorf("emitting empty doclen chunk: %w", ErrCorrupt)
	}
	isFirst := dw.isFirstChunk
	for start := 0; start < len(merged); start += maxEntriesPerChunk {
		end := start + maxEntriesPerChunk
		if end > len(merged) {
			end = len(merged)
		}
		part := merged[start:end]
		first, last := part[0].did, part[len(part)-1].did
		isLast := end == len(merged) && dw.isLastChunk

		out := makeChunkHeader(isLast, first, last)
		out = encodeFixedWidth(out, part, first)

		var key []byte
		if isFirst {
			hdr := makeFirstChunkHeader(0, 0, first)
			out = append(hdr, out...)
			key = makeKey("")
		} else {
			key = makeChunkKey("", first)
		}
		if err := store.Add(key, out); err != nil {
			return err
		}
		isFirst = false
	}
	return nil
}
