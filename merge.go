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
	"fmt"
	"sort"
)

const maxDocID = ^uint32(0)

// PostingChanges is one term's batch of edits as produced by the
// inverter: aggregate deltas plus per-document new wdf values, with
// Tombstone marking deletions.
type PostingChanges struct {
	TermFreqDelta int64
	CollFreqDelta int64
	Changes       map[uint32]uint32
}

type postingChange struct {
	did uint32
	wdf uint32
}

func sortedPostingChanges(m map[uint32]uint32) []postingChange {
	out := make([]postingChange, 0, len(m))
	for did, wdf := range m {
		out = append(out, postingChange{did: did, wdf: wdf})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].did < out[j].did })
	return out
}

func sortedDoclenEntries(m map[uint32]uint32) []doclenEntry {
	out := make([]doclenEntry, 0, len(m))
	for did, length := range m {
		out = append(out, doclenEntry{did: did, length: length})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].did < out[j].did })
	return out
}

// MergeChanges applies one term's batch of posting edits.  The
// aggregates in the first-chunk header are updated first (creating a
// header-only first chunk for a brand-new term); if the new termfreq
// is zero every chunk of the term is deleted.  Otherwise the affected
// chunks are walked in docid order, copying untouched entries through
// a reader into a writer and splicing the edits in.
//
// An all-zero change set writes nothing.
func (t *PostListTable) MergeChanges(term string, changes PostingChanges) error {
	if term == "" {
		return fmt.Errorf("postings: doclen list is updated via MergeDoclenChanges")
	}
	if changes.TermFreqDelta == 0 && changes.CollFreqDelta == 0 && len(changes.Changes) == 0 {
		return nil
	}

	key := makeKey(term)
	tag, found, err := t.store.Get(key)
	if err != nil {
		return err
	}
	var termfreq, collfreq uint64
	var firstDID, lastDID uint32
	isLast := true
	hdrEnd := 0
	if found && len(tag) > 0 {
		r := byteReader{buf: tag}
		if termfreq, collfreq, firstDID, err = readFirstChunkHeader(&r); err != nil {
			return err
		}
		if isLast, lastDID, err = readChunkHeader(&r, firstDID); err != nil {
			return err
		}
		hdrEnd = r.pos
	}

	newTermfreq := int64(termfreq) + changes.TermFreqDelta
	if newTermfreq < 0 {
		return fmt.Errorf("termfreq of %q underflows by %d: %w", term, -newTermfreq, ErrCorrupt)
	}
	if newTermfreq == 0 {
		return t.deletePostList(term, key, isLast, found)
	}
	newCollfreq := int64(collfreq) + changes.CollFreqDelta
	if newCollfreq < 0 {
		return fmt.Errorf("collfreq of %q underflows by %d: %w", term, -newCollfreq, ErrCorrupt)
	}

	newhdr := makeFirstChunkHeader(uint64(newTermfreq), uint64(newCollfreq), firstDID)
	newhdr = append(newhdr, makeChunkHeader(isLast, firstDID, lastDID)...)
	if hdrEnd < len(tag) {
		newhdr = append(newhdr, tag[hdrEnd:]...)
	}
	if err := t.store.Add(key, newhdr); err != nil {
		return err
	}
	if len(changes.Changes) == 0 {
		return nil
	}

	edits := sortedPostingChanges(changes.Changes)
	from, to, maxDID, err := t.getChunk(term, edits[0].did, false)
	if err != nil {
		return err
	}
	for _, edit := range edits {
		for {
			if from != nil {
				for !from.atEnd {
					copyDID := from.did
					if copyDID >= edit.did {
						if copyDID == edit.did {
							// The stored entry is replaced or deleted.
							if err := from.next(); err != nil {
								return err
							}
						}
						break
					}
					if err := to.append(t.store, copyDID, from.wdf); err != nil {
						return err
					}
					if err := from.next(); err != nil {
						return err
					}
				}
			}
			if (from == nil || from.atEnd) && edit.did > maxDID {
				// The edit belongs to a later chunk.
				if err := to.flush(t.store); err != nil {
					return err
				}
				if from, to, maxDID, err = t.getChunk(term, edit.did, false); err != nil {
					return err
				}
				continue
			}
			break
		}
		if edit.wdf != Tombstone {
			if err := to.append(t.store, edit.did, edit.wdf); err != nil {
				return err
			}
		}
	}

	if from != nil {
		for !from.atEnd {
			if err := to.append(t.store, from.did, from.wdf); err != nil {
				return err
			}
			if err := from.next(); err != nil {
				return err
			}
		}
	}
	return to.flush(t.store)
}

// deletePostList removes every chunk of term via a mutating cursor
// walk.
func (t *PostListTable) deletePostList(term string, key []byte, isLast, found bool) error {
	if !found {
		return nil
	}
	if isLast {
		// Only one chunk for this posting list.
		_, err := t.store.Del(key)
		return err
	}
	cursor := t.store.Cursor()
	if !cursor.FindEntry(key) {
		return fmt.Errorf("posting list of %q missing during delete: %w", term, ErrCorrupt)
	}
	for {
		ok, err := cursor.Del()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, _, match := keyMatchesTerm(cursor.Key(), term); !match {
			return nil
		}
	}
}

// getChunk locates the chunk whose docid range contains did and
// returns a reader over its entries plus a replacement writer, along
// with the largest docid this chunk may hold (the next chunk's first
// docid minus one, or maxDocID for the last chunk).  When did lies
// past the chunk's final entry the whole body is handed to the writer
// via rawAppend and no reader is needed.  When the term has no list
// at all, adding must be set and a fresh first-and-last chunk writer
// is returned with no reader.
func (t *PostListTable) getChunk(term string, did uint32, adding bool) (
	from *postlistChunkReader, to *postlistChunkWriter, maxDID uint32, err error) {
	cursor := t.store.Cursor()
	cursor.FindEntry(makeChunkKey(term, did))
	keyDID, isFirst, ok := keyMatchesTerm(cursor.Key(), term)
	if !ok {
		if !adding {
			return nil, nil, 0, fmt.Errorf("no posting list for %q to modify: %w", term, ErrCorrupt)
		}
		return nil, newPostlistChunkWriter(nil, true, term, true), maxDocID, nil
	}

	curKey := append([]byte(nil), cursor.Key()...)
	val, err := cursor.Value()
	if err != nil {
		return nil, nil, 0, err
	}
	r := byteReader{buf: val}
	firstDID := keyDID
	if isFirst {
		if _, _, firstDID, err = readFirstChunkHeader(&r); err != nil {
			return nil, nil, 0, err
		}
	}
	isLast, lastDID, err := readChunkHeader(&r, firstDID)
	if err != nil {
		return nil, nil, 0, err
	}
	to = newPostlistChunkWriter(curKey, isFirst, term, isLast)

	body := append([]byte(nil), val[r.pos:]...)
	if did > lastDID {
		// Pure append past this chunk's entries: take the body
		// wholesale instead of copying entry by entry.
		to.rawAppend(firstDID, lastDID, body)
	} else {
		if from, err = newPostlistChunkReader(firstDID, body); err != nil {
			return nil, nil, 0, err
		}
	}
	if isLast {
		return from, to, maxDocID, nil
	}

	if !cursor.Next() {
		return nil, nil, 0, fmt.Errorf("expected another chunk of %q, found none: %w", term, ErrCorrupt)
	}
	nextDID, nextIsFirst, ok := keyMatchesTerm(cursor.Key(), term)
	if !ok || nextIsFirst {
		return nil, nil, 0, fmt.Errorf("expected another chunk of %q, found a different list: %w", term, ErrCorrupt)
	}
	return from, to, nextDID - 1, nil
}

// MergeDoclenChanges applies a batch of document length edits to the
// doclen list, Tombstone deleting.  The held-open doclen reader is
// invalidated first.  The doclen list's first chunk is materialized
// before the first ever write; aggregates for the doclen list stay
// zero.
func (t *PostListTable) MergeDoclenChanges(doclens map[uint32]uint32) error {
	t.doclenPL = nil
	if len(doclens) == 0 {
		return nil
	}
	entries := sortedDoclenEntries(doclens)

	firstKey := makeKey("")
	has, err := t.store.Has(firstKey)
	if err != nil {
		return err
	}
	if !has {
		tag := makeFirstChunkHeader(0, 0, 0)
		tag = append(tag, makeChunkHeader(true, 0, 0)...)
		if err := t.store.Add(firstKey, tag); err != nil {
			return err
		}
	}

	for idx := 0; idx < len(entries); {
		did := entries[idx].did
		cursor := t.store.Cursor()
		cursor.FindEntry(makeChunkKey("", did))
		keyDID, isFirst, ok := keyMatchesTerm(cursor.Key(), "")
		if !ok {
			return fmt.Errorf("doclen list chunk for docid %d missing: %w", did, ErrCorrupt)
		}
		origKey := append([]byte(nil), cursor.Key()...)
		val, err := cursor.Value()
		if err != nil {
			return err
		}
		chunk := append([]byte(nil), val...)

		r := byteReader{buf: chunk}
		firstDID := keyDID
		if isFirst {
			if _, _, firstDID, err = readFirstChunkHeader(&r); err != nil {
				return err
			}
		}
		isLast, _, err := readChunkHeader(&r, firstDID)
		if err != nil {
			return err
		}

		// Everything below the next chunk's first docid belongs to
		// this chunk.
		end := len(entries)
		if !isLast {
			if !cursor.Next() {
				return fmt.Errorf("expected another doclen chunk, found none: %w", ErrCorrupt)
			}
			nextDID, nextIsFirst, ok := keyMatchesTerm(cursor.Key(), "")
			if !ok || nextIsFirst {
				return fmt.Errorf("expected another doclen chunk, found a different list: %w", ErrCorrupt)
			}
			end = idx + sort.Search(len(entries)-idx, func(i int) bool {
				return entries[idx+i].did >= nextDID
			})
		}

		dw := &doclenChunkWriter{
			chunk:        chunk,
			changes:      entries[idx:end],
			isFirstChunk: isFirst,
			firstDID:     firstDID,
		}
		merged, err := dw.mergedEntries()
		if err != nil {
			return err
		}
		if len(merged) == 0 {
			// Chunk became empty: splice it out, promoting the next
			// chunk or flipping the predecessor's last flag as the
			// protocol requires.
			w := newPostlistChunkWriter(origKey, isFirst, "", isLast)
			if err := w.flush(t.store); err != nil {
				return err
			}
		} else {
			if _, err := t.store.Del(origKey); err != nil {
				return err
			}
			if err := dw.emit(t.store, merged); err != nil {
				return err
			}
		}
		idx = end
	}
	return nil
}
