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

// postlistChunkWriter buffers entries for one chunk of a posting list
// and flushes them back to the store.  It handles replacement and
// deletion of entries, not just appends, so a flush may delete the
// chunk entirely, file it under a new key, or rewrite a neighboring
// chunk's header.
type postlistChunkWriter struct {
	origKey      []byte
	term         string
	isFirstChunk bool
	isLastChunk  bool
	started      bool

	firstDID   uint32
	currentDID uint32

	body []byte
}

func newPostlistChunkWriter(origKey []byte, isFirstChunk bool, term string,
	isLastChunk bool) *postlistChunkWriter {
	return &postlistChunkWriter{
		origKey:      origKey,
		term:         term,
		isFirstChunk: isFirstChunk,
		isLastChunk:  isLastChunk,
	}
}

// append adds one entry.  Entries must arrive in strictly increasing
// docid order.  When the body reaches chunkSplitThreshold the current
// chunk is flushed as a non-last chunk and the writer restarts on a
// fresh chunk keyed by did.
func (w *postlistChunkWriter) append(store KVStore, did, wdf uint32) error {
	if !w.started {
		w.started = true
		w.firstDID = did
	} else {
		if did <= w.currentDID {
			return fmt.Errorf("appending docid %d after %d: %w", did, w.currentDID, ErrCorrupt)
		}
		if len(w.body) >= chunkSplitThreshold {
			saveIsLast := w.isLastChunk
			w.isLastChunk = false
			if err := w.flush(store); err != nil {
				return err
			}
			w.isLastChunk = saveIsLast
			w.isFirstChunk = false
			w.firstDID = did
			w.body = w.body[:0]
			w.origKey = makeChunkKey(w.term, did)
		} else {
			w.body = packUint(w.body, uint64(did-w.currentDID-1))
		}
	}
	w.currentDID = did
	w.body = packUint(w.body, uint64(wdf))
	return nil
}

// rawAppend establishes the writer as if the entries of an untouched
// chunk tail had been appended one by one.  Only valid before any
// append.
func (w *postlistChunkWriter) rawAppend(firstDID, currentDID uint32, body []byte) {
	w.firstDID = firstDID
	w.currentDID = currentDID
	if len(body) > 0 {
		w.body = append(w.body[:0], body...)
		w.started = true
	}
}

// flush writes the buffered chunk back to the store.  An unstarted
// writer means the chunk became empty and must be spliced out of the
// list, which may promote the next chunk to first or flip the last
// flag onto the previous chunk.  A started writer rewrites the chunk,
// under a new key if its first docid changed.
func (w *postlistChunkWriter) flush(store KVStore) error {
	if !w.started {
		if len(w.origKey) == 0 {
			return fmt.Errorf("flushing empty chunk with no key: %w", ErrCorrupt)
		}
		if w.isFirstChunk {
			if w.isLastChunk {
				// Only chunk of the list; the list dies with it.
				_, err := store.Del(w.origKey)
				return err
			}
			return w.promoteNextChunk(store)
		}
		if _, err := store.Del(w.origKey); err != nil {
			return err
		}
		if w.isLastChunk {
			return w.flipPredecessorLast(store)
		}
		return nil
	}

	if w.isFirstChunk {
		// The stored header carries the current aggregates; re-read
		// them rather than trusting any stale copy.
		key := makeKey(w.term)
		tag, ok, err := store.Get(key)
		if err != nil {
			return err
		}
		if !ok || len(tag) == 0 {
			return fmt.Errorf("first chunk missing while flushing %q: %w", w.term, ErrCorrupt)
		}
		r := byteReader{buf: tag}
		termfreq, collfreq, _, err := readFirstChunkHeader(&r)
		if err != nil {
			return err
		}
		out := makeFirstChunkHeader(termfreq, collfreq, w.firstDID)
		out = append(out, makeChunkHeader(w.isLastChunk, w.firstDID, w.currentDID)...)
		out = append(out, w.body...)
		return store.Add(key, out)
	}

	initialDID, isFirst, ok := keyMatchesTerm(w.origKey, w.term)
	if !ok || isFirst {
		return fmt.Errorf("invalid key flushing chunk of %q: %w", w.term, ErrCorrupt)
	}
	newKey := w.origKey
	if initialDID != w.firstDID {
		// First docid changed, so the chunk moves to a new key.
		if _, err := store.Del(w.origKey); err != nil {
			return err
		}
		newKey = makeChunkKey(w.term, w.firstDID)
	}
	out := makeChunkHeader(w.isLastChunk, w.firstDID, w.currentDID)
	out = append(out, w.body...)
	return store.Add(newKey, out)
}

// promoteNextChunk rewrites the chunk after the (now empty) first
// chunk as the list's first chunk, carrying the aggregates over.
func (w *postlistChunkWriter) promoteNextChunk(store KVStore) error {
	cursor := store.Cursor()
	if !cursor.FindEntry(w.origKey) {
		return fmt.Errorf("first chunk of %q vanished during flush: %w", w.term, ErrCorrupt)
	}
	val, err := cursor.Value()
	if err != nil {
		return err
	}
	r := byteReader{buf: val}
	termfreq, collfreq, _, err := readFirstChunkHeader(&r)
	if err != nil {
		return err
	}

	if !cursor.Next() {
		return fmt.Errorf("expected another chunk for %q, found none: %w", w.term, ErrCorrupt)
	}
	nextKey := append([]byte(nil), cursor.Key()...)
	newFirstDID, isFirst, ok := keyMatchesTerm(nextKey, w.term)
	if !ok || isFirst {
		return fmt.Errorf("expected another chunk for %q, found a different list: %w", w.term, ErrCorrupt)
	}
	nextVal, err := cursor.Value()
	if err != nil {
		return err
	}
	r = byteReader{buf: nextVal}
	isLast, newLastDID, err := readChunkHeader(&r, newFirstDID)
	if err != nil {
		return err
	}
	body := append([]byte(nil), nextVal[r.pos:]...)

	if _, err := store.Del(nextKey); err != nil {
		return err
	}
	out := makeFirstChunkHeader(termfreq, collfreq, newFirstDID)
	out = append(out, makeChunkHeader(isLast, newFirstDID, newLastDID)...)
	out = append(out, body...)
	return store.Add(w.origKey, out)
}

// flipPredecessorLast marks the chunk before the just-deleted last
// chunk as the new last chunk of the list.
func (w *postlistChunkWriter) flipPredecessorLast(store KVStore) error {
	cursor := store.Cursor()
	if cursor.FindEntry(w.origKey) {
		return fmt.Errorf("chunk key of %q not deleted as expected: %w", w.term, ErrCorrupt)
	}
	prevKey := append([]byte(nil), cursor.Key()...)
	prevFirstDID, isPrevFirst, ok := keyMatchesTerm(prevKey, w.term)
	if !ok {
		return fmt.Errorf("no chunk of %q before deleted last chunk: %w", w.term, ErrCorrupt)
	}
	val, err := cursor.Value()
	if err != nil {
		return err
	}
	r := byteReader{buf: val}
	if isPrevFirst {
		if _, _, prevFirstDID, err = readFirstChunkHeader(&r); err != nil {
			return err
		}
	}
	hdrStart := r.pos
	_, lastDID, err := readChunkHeader(&r, prevFirstDID)
	if err != nil {
		return err
	}
	hdrEnd := r.pos
	out := rewriteChunkHeader(val, hdrStart, hdrEnd, true, prevFirstDID, lastDID)
	return store.Add(prevKey, out)
}
