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

// postlistChunkReader is a one-shot forward iterator over the entries
// of a single ordinary postlist chunk.  It is handed the chunk body
// with all headers removed; the body starts with the wdf of the first
// entry, whose docid comes from the chunk key or first-chunk header.
type postlistChunkReader struct {
	r     byteReader
	did   uint32
	wdf   uint32
	atEnd bool
}

func newPostlistChunkReader(firstDID uint32, body []byte) (*postlistChunkReader, error) {
	cr := &postlistChunkReader{
		r:     byteReader{buf: body},
		did:   firstDID,
		atEnd: len(body) == 0,
	}
	if !cr.atEnd {
		wdf, err := cr.r.unpackUint32()
		if err != nil {
			return nil, err
		}
		cr.wdf = wdf
	}
	return cr, nil
}

// next advances to the next entry, setting atEnd once the body is
// exhausted.  There is no backtracking.
func (cr *postlistChunkReader) next() error {
	if cr.r.empty() {
		cr.atEnd = true
		return nil
	}
	delta, err := cr.r.unpackUint32()
	if err != nil {
		return err
	}
	wdf, err := cr.r.unpackUint32()
	if err != nil {
		return err
	}
	cr.did += delta + 1
	cr.wdf = wdf
	return nil
}
