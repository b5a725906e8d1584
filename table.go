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

// PostListTable is the posting-list engine over a sorted KVStore.
// Reads may run against any store; mutations require a writable one.
// A PostListTable is not safe for concurrent use; serialization is
// the caller's responsibility.
type PostListTable struct {
	store KVStore

	// doclenPL is a held-open doclen reader serving GetDocLength and
	// DocumentExists.  It is invalidated before any doclen mutation
	// and rebuilt lazily.
	doclenPL *PostList
}

func NewPostListTable(store KVStore) *PostListTable {
	return &PostListTable{store: store}
}

// GetFreqs returns a term's termfreq and collfreq, (0, 0) when the
// term has no posting list.  Only the first-chunk prefix is read.
func (t *PostListTable) GetFreqs(term string) (termfreq, collfreq uint64, err error) {
	tag, ok, err := t.store.Get(makeKey(term))
	if err != nil || !ok {
		return 0, 0, err
	}
	r := byteReader{buf: tag}
	if termfreq, err = r.unpackUint64(); err != nil {
		return 0, 0, fmt.Errorf("freqs of %q: %w", term, err)
	}
	if collfreq, err = r.unpackUint64(); err != nil {
		return 0, 0, fmt.Errorf("freqs of %q: %w", term, err)
	}
	return termfreq, collfreq, nil
}

func (t *PostListTable) doclenReader() (*PostList, error) {
	if t.doclenPL == nil {
		pl, err := newPostList(t.store, "")
		if err != nil {
			return nil, err
		}
		t.doclenPL = pl
	}
	return t.doclenPL, nil
}

// GetDocLength returns the stored length of document did, or
// ErrDocNotFound.
func (t *PostListTable) GetDocLength(did uint32) (uint32, error) {
	pl, err := t.doclenReader()
	if err != nil {
		return 0, err
	}
	if !pl.SeekTo(did) {
		if pl.Err() != nil {
			return 0, pl.Err()
		}
		return 0, fmt.Errorf("document %d: %w", did, ErrDocNotFound)
	}
	return pl.WDF(), nil
}

// DocumentExists reports whether document did has a doclen entry.
func (t *PostListTable) DocumentExists(did uint32) (bool, error) {
	pl, err := t.doclenReader()
	if err != nil {
		return false, err
	}
	found := pl.SeekTo(did)
	return found, pl.Err()
}

// OpenPostList opens a cursor over term's posting list.
func (t *PostListTable) OpenPostList(term string) (*PostList, error) {
	return newPostList(t.store, term)
}

// OpenDocLenList opens a cursor over the document length list.
func (t *PostListTable) OpenDocLenList() (*PostList, error) {
	return newPostList(t.store, "")
}
