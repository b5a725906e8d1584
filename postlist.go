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

	"github.com/RoaringBitmap/roaring/v2"
)

// PostList iterates one posting list across all its chunks.  The
// first call to Next positions on the first entry; SkipTo moves
// forward only.  The doclen list (the list whose term is the empty
// string) dispatches to a fixed-width chunk reader instead and gains
// SeekTo, which may also move backward.
type PostList struct {
	cursor KVCursor
	term   string

	isDoclenList bool
	exists       bool
	haveStarted  bool
	atEnd        bool

	isFirstChunk    bool
	isLastChunk     bool
	firstDIDInChunk uint32
	lastDIDInChunk  uint32

	numberOfEntries uint64

	did uint32
	wdf uint32

	ord *postlistChunkReader
	dl  *fixedWidthChunkReader

	err error
}

func newPostList(store KVStore, term string) (*PostList, error) {
	pl := &PostList{
		cursor:       store.Cursor(),
		term:         term,
		isDoclenList: term == "",
	}
	if !pl.cursor.FindEntry(makeKey(term)) {
		pl.atEnd = true
		pl.isLastChunk = true
		return pl, nil
	}
	val, err := pl.cursor.Value()
	if err != nil {
		return nil, err
	}
	r := byteReader{buf: val}
	termfreq, _, firstDID, err := readFirstChunkHeader(&r)
	if err != nil {
		return nil, err
	}
	pl.exists = true
	pl.isFirstChunk = true
	pl.numberOfEntries = termfreq
	pl.firstDIDInChunk = firstDID
	if pl.isLastChunk, pl.lastDIDInChunk, err = readChunkHeader(&r, firstDID); err != nil {
		return nil, err
	}
	if err := pl.loadChunkBody(val[r.pos:]); err != nil {
		return nil, err
	}
	return pl, nil
}

// loadChunkBody builds the per-chunk reader for the current chunk and
// syncs the list position to it.
func (pl *PostList) loadChunkBody(body []byte) error {
	if pl.isDoclenList {
		dl, err := newFixedWidthChunkReader(body, pl.firstDIDInChunk)
		if err != nil {
			return err
		}
		pl.dl = dl
		pl.atEnd = dl.atEnd
		if !pl.atEnd {
			pl.did, pl.wdf = dl.curDID, dl.curLen
		}
		return nil
	}
	ord, err := newPostlistChunkReader(pl.firstDIDInChunk, body)
	if err != nil {
		return err
	}
	pl.ord = ord
	pl.atEnd = ord.atEnd
	if !pl.atEnd {
		pl.did, pl.wdf = ord.did, ord.wdf
	}
	return nil
}

// DocID returns the current document id; valid while !AtEnd().
func (pl *PostList) DocID() uint32 { return pl.did }

// WDF returns the current within-document frequency, or the document
// length when iterating the doclen list.
func (pl *PostList) WDF() uint32 { return pl.wdf }

// Count returns the list's termfreq as read from the first-chunk
// header.
func (pl *PostList) Count() uint64 { return pl.numberOfEntries }

func (pl *PostList) AtEnd() bool { return pl.atEnd }

// Err returns the first corruption error hit while iterating.
func (pl *PostList) Err() error { return pl.err }

// Next advances to the next entry, reporting whether the list still
// has one.  The first call reports the initial entry.
func (pl *PostList) Next() bool {
	if pl.err != nil || pl.atEnd {
		return false
	}
	if !pl.haveStarted {
		pl.haveStarted = true
		return true
	}
	if !pl.nextInChunk() {
		pl.nextChunk()
	}
	return pl.err == nil && !pl.atEnd
}

func (pl *PostList) nextInChunk() bool {
	if pl.isDoclenList {
		ok, err := pl.dl.next()
		if err != nil {
			pl.err = err
			return true
		}
		if !ok {
			return false
		}
		pl.did, pl.wdf = pl.dl.curDID, pl.dl.curLen
		return true
	}
	if err := pl.ord.next(); err != nil {
		pl.err = err
		return true
	}
	if pl.ord.atEnd {
		return false
	}
	pl.did, pl.wdf = pl.ord.did, pl.ord.wdf
	return true
}

func (pl *PostList) nextChunk() {
	if pl.isLastChunk {
		pl.atEnd = true
		return
	}
	if !pl.cursor.Next() {
		pl.atEnd = true
		pl.err = fmt.Errorf("unexpected end of posting list for %q: %w", pl.term, ErrCorrupt)
		return
	}
	newDID, isFirst, ok := keyMatchesTerm(pl.cursor.Key(), pl.term)
	if !ok || isFirst {
		pl.atEnd = true
		pl.err = fmt.Errorf("unexpected end of posting list for %q: %w", pl.term, ErrCorrupt)
		return
	}
	if newDID <= pl.did {
		pl.err = fmt.Errorf("docid %d in next chunk of %q not above %d: %w",
			newDID, pl.term, pl.did, ErrCorrupt)
		return
	}
	val, err := pl.cursor.Value()
	if err != nil {
		pl.err = err
		return
	}
	pl.isFirstChunk = false
	r := byteReader{buf: val}
	isLast, lastDID, err := readChunkHeader(&r, newDID)
	if err != nil {
		pl.err = err
		return
	}
	if r.empty() {
		pl.err = fmt.Errorf("empty non-first chunk of %q: %w", pl.term, ErrCorrupt)
		return
	}
	pl.isLastChunk = isLast
	pl.firstDIDInChunk = newDID
	pl.lastDIDInChunk = lastDID
	if err := pl.loadChunkBody(val[r.pos:]); err != nil {
		pl.err = err
	}
}

func (pl *PostList) currentChunkContains(did uint32) bool {
	return did >= pl.firstDIDInChunk && did <= pl.lastDIDInChunk
}

// moveToChunkContaining repositions the table cursor on the chunk
// whose range holds did (the greatest chunk whose first docid is at
// most did), advancing once more when did falls in the gap after it.
func (pl *PostList) moveToChunkContaining(did uint32) {
	pl.cursor.FindEntry(makeChunkKey(pl.term, did))
	keyDID, isFirst, ok := keyMatchesTerm(pl.cursor.Key(), pl.term)
	if !ok {
		// List does not exist at all.
		pl.atEnd = true
		pl.isLastChunk = true
		return
	}
	pl.atEnd = false
	pl.isFirstChunk = isFirst

	val, err := pl.cursor.Value()
	if err != nil {
		pl.err = err
		return
	}
	r := byteReader{buf: val}
	newDID := keyDID
	if isFirst {
		if _, _, newDID, err = readFirstChunkHeader(&r); err != nil {
			pl.err = err
			return
		}
	}
	isLast, lastDID, err := readChunkHeader(&r, newDID)
	if err != nil {
		pl.err = err
		return
	}
	pl.isLastChunk = isLast
	pl.firstDIDInChunk = newDID
	pl.lastDIDInChunk = lastDID
	if err := pl.loadChunkBody(val[r.pos:]); err != nil {
		pl.err = err
		return
	}

	// did may sit past the end of this chunk and before the next.
	if did > pl.lastDIDInChunk {
		pl.nextChunk()
	}
}

// moveForwardInChunkToAtLeast walks the current ordinary chunk to the
// first entry with docid >= did.
func (pl *PostList) moveForwardInChunkToAtLeast(did uint32) bool {
	if pl.did >= did {
		return true
	}
	if did > pl.lastDIDInChunk {
		return false
	}
	for !pl.ord.atEnd {
		if err := pl.ord.next(); err != nil {
			pl.err = err
			return false
		}
		if pl.ord.atEnd {
			break
		}
		if pl.ord.did >= did {
			pl.did, pl.wdf = pl.ord.did, pl.ord.wdf
			return true
		}
	}
	// The header promised lastDIDInChunk >= did.
	pl.err = fmt.Errorf("chunk of %q ended before docid %d: %w", pl.term, did, ErrCorrupt)
	return false
}

// SkipTo moves forward to the first entry with docid >= did,
// reporting whether the list still has entries.  Skipping backward or
// to the current position is a no-op.  On the doclen list it
// redirects to SeekTo.
func (pl *PostList) SkipTo(did uint32) bool {
	if pl.isDoclenList {
		return pl.SeekTo(did)
	}
	pl.haveStarted = true
	if pl.err != nil || pl.atEnd {
		return false
	}
	if did <= pl.did {
		return true
	}
	if !pl.currentChunkContains(did) {
		pl.moveToChunkContaining(did)
		if pl.err != nil || pl.atEnd {
			return false
		}
	}
	return pl.moveForwardInChunkToAtLeast(did)
}

// SeekTo positions the doclen list on did, in either direction,
// reporting whether did is present.  On a miss the list is left on
// the smallest stored docid greater than did when one exists.  On an
// ordinary posting list it redirects to SkipTo.
func (pl *PostList) SeekTo(did uint32) bool {
	if !pl.isDoclenList {
		return pl.SkipTo(did)
	}
	pl.haveStarted = true
	if pl.err != nil || !pl.exists {
		return false
	}
	if pl.atEnd || !pl.currentChunkContains(did) {
		pl.atEnd = false
		pl.moveToChunkContaining(did)
		if pl.err != nil || pl.atEnd {
			return false
		}
	}
	found, err := pl.dl.seekTo(did)
	if err != nil {
		pl.err = err
		return false
	}
	pl.atEnd = pl.dl.atEnd
	if !pl.atEnd {
		pl.did, pl.wdf = pl.dl.curDID, pl.dl.curLen
	}
	return found
}

// Bitmap drains the remaining entries into a roaring bitmap of
// docids.  Call it on a freshly opened list to materialize the whole
// docid set.
func (pl *PostList) Bitmap() (*roaring.Bitmap, error) {
	bm := roaring.New()
	for pl.Next() {
		bm.Add(pl.did)
	}
	if pl.err != nil {
		return nil, pl.err
	}
	return bm, nil
}
