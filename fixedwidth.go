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

// The doclen list body is a sequence of segments.  A sparse segment
// is packUint(docidDelta) packUint(doclen) with docidDelta >= 1.  A
// fixed-width run opens with packUint(separator), then the delta to
// the run's first docid, a 2-byte run length, a 1-byte width, and
// run length doclens of that width.  Docids inside a run are
// consecutive.  Deltas are relative to the docid preceding the
// segment, with firstDID-1 as the base for the leading segment, so a
// sparse delta is never zero and never reaches separator.

// doclenEntry is one (docid, doclen) pair.
type doclenEntry struct {
	did    uint32
	length uint32
}

// encodeFixedWidth appends the segment encoding of entries, which
// must be sorted by docid with entries[0].did == firstDID.  A block
// of consecutive docids becomes a fixed-width run when it is longer
// than minRunLength, its widest doclen sets the byte width, and
// extending it keeps good/used bytes at or above minGoodRatio.
func encodeFixedWidth(buf []byte, entries []doclenEntry, firstDID uint32) []byte {
	base := firstDID - 1
	for i := 0; i < len(entries); {
		width := maxBytes(entries[i].length)
		usedBytes, goodBytes := 0, 0
		j := i + 1
		for ; j < len(entries); j++ {
			if entries[j].did != entries[j-1].did+1 {
				break
			}
			cur := maxBytes(entries[j].length)
			if cur > width {
				break
			}
			if j-i >= 0xffff {
				break
			}
			usedBytes += width
			goodBytes += cur
			if float64(goodBytes)/float64(usedBytes) < minGoodRatio {
				break
			}
		}

		if j-i > minRunLength {
			buf = packUint(buf, separator)
			buf = packUint(buf, uint64(entries[i].did-base))
			buf = packUintInBytes(buf, uint32(j-i), 2)
			buf = packUintInBytes(buf, uint32(width), 1)
			for k := i; k < j; k++ {
				buf = packUintInBytes(buf, entries[k].length, width)
			}
		} else {
			for k := i; k < j; k++ {
				buf = packUint(buf, uint64(entries[k].did-base))
				buf = packUint(buf, uint64(entries[k].length))
				base = entries[k].did
			}
		}
		base = entries[j-1].did
		i = j
	}
	return buf
}

// decodeDoclenChunk expands one chunk body into its full entry list.
// Used by the doclen writer to merge a change set.
func decodeDoclenChunk(body []byte, firstDID uint32) ([]doclenEntry, error) {
	var out []doclenEntry
	r := byteReader{buf: body}
	did := firstDID - 1
	for !r.empty() {
		delta, err := r.unpackUint32()
		if err != nil {
			return nil, err
		}
		if delta != separator {
			length, err := r.unpackUint32()
			if err != nil {
				return nil, err
			}
			did += delta
			out = append(out, doclenEntry{did: did, length: length})
			continue
		}
		runDelta, err := r.unpackUint32()
		if err != nil {
			return nil, err
		}
		runLen, err := r.unpackUintInBytes(2)
		if err != nil {
			return nil, err
		}
		width, err := r.unpackUintInBytes(1)
		if err != nil {
			return nil, err
		}
		if runLen == 0 {
			return nil, fmt.Errorf("zero-length fixed-width run: %w", ErrCorrupt)
		}
		did += runDelta
		for n := uint32(0); n < runLen; n++ {
			length, err := r.unpackUintInBytes(int(width))
			if err != nil {
				return nil, err
			}
			out = append(out, doclenEntry{did: did, length: length})
			did++
		}
		did--
	}
	return out, nil
}

// fixedWidthChunkReader gives sequential and random access to one
// doclen chunk body.  Unlike the postlist chunk reader it can rewind,
// either to the start of the current run or to the start of the
// chunk, which is what makes backward seeks cheap enough to serve
// GetDocLength through a held-open reader.
type fixedWidthChunkReader struct {
	r      byteReader
	oriPos int

	curDID uint32
	curLen uint32

	inRun        bool
	runRemaining uint32
	width        int
	didBeforeRun uint32
	runStartPos  int

	firstDID uint32
	atEnd    bool
}

// newFixedWidthChunkReader positions the reader on the chunk's first
// entry; an empty body yields a reader already at end.
func newFixedWidthChunkReader(body []byte, firstDID uint32) (*fixedWidthChunkReader, error) {
	fr := &fixedWidthChunkReader{
		r:        byteReader{buf: body},
		firstDID: firstDID,
		curDID:   firstDID - 1,
	}
	if _, err := fr.next(); err != nil {
		return nil, err
	}
	return fr, nil
}

// next advances one entry, reporting false at the end of the chunk.
func (fr *fixedWidthChunkReader) next() (bool, error) {
	if fr.atEnd {
		return false, nil
	}
	if fr.inRun {
		length, err := fr.r.unpackUintInBytes(fr.width)
		if err != nil {
			return false, err
		}
		fr.curDID++
		fr.curLen = length
		fr.runRemaining--
		if fr.runRemaining == 0 {
			fr.inRun = false
		}
		return true, nil
	}
	if fr.r.empty() {
		fr.atEnd = true
		return false, nil
	}
	segStart := fr.r.pos
	delta, err := fr.r.unpackUint32()
	if err != nil {
		return false, err
	}
	if delta != separator {
		length, err := fr.r.unpackUint32()
		if err != nil {
			return false, err
		}
		fr.curDID += delta
		fr.curLen = length
		return true, nil
	}
	if err := fr.openRun(segStart); err != nil {
		return false, err
	}
	return true, nil
}

// openRun parses a run header at segStart (pos already past the
// separator) and positions on the run's first entry.
func (fr *fixedWidthChunkReader) openRun(segStart int) error {
	runDelta, err := fr.r.unpackUint32()
	if err != nil {
		return err
	}
	runLen, err := fr.r.unpackUintInBytes(2)
	if err != nil {
		return err
	}
	width, err := fr.r.unpackUintInBytes(1)
	if err != nil {
		return err
	}
	if runLen == 0 {
		return fmt.Errorf("zero-length fixed-width run: %w", ErrCorrupt)
	}
	fr.runStartPos = segStart
	fr.didBeforeRun = fr.curDID
	fr.width = int(width)
	length, err := fr.r.unpackUintInBytes(fr.width)
	if err != nil {
		return err
	}
	fr.curDID += runDelta
	fr.curLen = length
	fr.runRemaining = runLen - 1
	fr.inRun = fr.runRemaining > 0
	return nil
}

// seekTo positions the reader on did, in either direction.  On a miss
// it returns false with the reader on the smallest stored docid
// greater than did when this chunk holds one, else at end.
func (fr *fixedWidthChunkReader) seekTo(did uint32) (bool, error) {
	if !fr.atEnd && fr.curDID == did {
		return true, nil
	}

	if fr.inRun {
		if fr.didBeforeRun >= did {
			fr.rewind()
		} else {
			fr.r.pos = fr.runStartPos
			fr.curDID = fr.didBeforeRun
			fr.inRun = false
		}
	} else if fr.atEnd || fr.curDID > did {
		fr.rewind()
	}
	fr.atEnd = false

	for !fr.r.empty() {
		segStart := fr.r.pos
		delta, err := fr.r.unpackUint32()
		if err != nil {
			return false, err
		}
		if delta != separator {
			length, err := fr.r.unpackUint32()
			if err != nil {
				return false, err
			}
			fr.inRun = false
			fr.curDID += delta
			fr.curLen = length
			if fr.curDID == did {
				return true, nil
			}
			if fr.curDID > did {
				return false, nil
			}
			continue
		}

		runDelta, err := fr.r.unpackUint32()
		if err != nil {
			return false, err
		}
		runLen, err := fr.r.unpackUintInBytes(2)
		if err != nil {
			return false, err
		}
		width, err := fr.r.unpackUintInBytes(1)
		if err != nil {
			return false, err
		}
		if runLen == 0 {
			return false, fmt.Errorf("zero-length fixed-width run: %w", ErrCorrupt)
		}
		fr.runStartPos = segStart
		fr.didBeforeRun = fr.curDID
		fr.width = int(width)
		runFirst := fr.curDID + runDelta

		if did < runFirst {
			// Miss; land on the run's first entry.
			length, err := fr.r.unpackUintInBytes(fr.width)
			if err != nil {
				return false, err
			}
			fr.curDID = runFirst
			fr.curLen = length
			fr.runRemaining = runLen - 1
			fr.inRun = fr.runRemaining > 0
			return false, nil
		}
		if did <= runFirst+runLen-1 {
			skip := did - runFirst
			if fr.r.remaining() < int(skip)*fr.width {
				return false, fmt.Errorf("fixed-width run truncated: %w", ErrCorrupt)
			}
			fr.r.pos += int(skip) * fr.width
			length, err := fr.r.unpackUintInBytes(fr.width)
			if err != nil {
				return false, err
			}
			fr.curDID = did
			fr.curLen = length
			fr.runRemaining = runLen - (skip + 1)
			fr.inRun = fr.runRemaining > 0
			return true, nil
		}
		// Skip the whole run.
		if fr.r.remaining() < int(runLen)*fr.width {
			return false, fmt.Errorf("fixed-width run truncated: %w", ErrCorrupt)
		}
		fr.r.pos += int(runLen) * fr.width
		fr.curDID = runFirst + runLen - 1
		fr.inRun = false
	}
	fr.atEnd = true
	return false, nil
}

func (fr *fixedWidthChunkReader) rewind() {
	fr.r.pos = fr.oriPos
	fr.curDID = fr.firstDID - 1
	fr.inRun = false
}

// doclenOf returns the stored length of did, or ok=false when did is
// absent from this chunk.
func (fr *fixedWidthChunkReader) doclenOf(did uint32) (uint32, bool, error) {
	found, err := fr.seekTo(did)
	if err != nil || !found {
		return 0, false, err
	}
	return fr.curLen, true, nil
}
