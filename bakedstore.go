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
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	mmap "github.com/blevesearch/mmap-go"
	"github.com/blevesearch/vellum"
	"github.com/golang/snappy"
)

// A baked store is an immutable single-file snapshot of a KVStore:
//
//	[snappy-compressed values][key index][vellum FST][footer]
//
// The key index holds the sorted keys with value locations and serves
// cursors and predecessor scans; the FST maps each key to its index
// slot and serves exact lookups.  The footer is
//
//	keyIndexOff uint64 | fstOff uint64 | numEntries uint64 |
//	version uint32 | crc32 uint32
//
// big-endian, with the CRC covering every preceding byte of the file.

const (
	bakedFooterSize = 8 + 8 + 8 + 4 + 4
	bakedVersion    = 1
)

type countHashWriter struct {
	w   *bufio.Writer
	crc uint32
	n   int
}

func (w *countHashWriter) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.crc = crc32.Update(w.crc, crc32.IEEETable, b[:n])
	w.n += n
	return n, err
}

// Bake writes an immutable snapshot of src to path.
func Bake(path string, src KVStore) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := &countHashWriter{w: bufio.NewWriter(f)}

	type bakedPending struct {
		key    []byte
		valOff int
		valLen int
	}
	var pending []bakedPending

	cursor := src.Cursor()
	cursor.FindEntry(nil)
	for cursor.Next() {
		val, err := cursor.Value()
		if err != nil {
			_ = f.Close()
			return err
		}
		compressed := snappy.Encode(nil, val)
		p := bakedPending{
			key:    append([]byte(nil), cursor.Key()...),
			valOff: w.n,
			valLen: len(compressed),
		}
		if _, err := w.Write(compressed); err != nil {
			_ = f.Close()
			return err
		}
		pending = append(pending, p)
	}

	keyIndexOff := w.n
	var varBuf [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) error {
		n := binary.PutUvarint(varBuf[:], v)
		_, err := w.Write(varBuf[:n])
		return err
	}
	for _, p := range pending {
		if err := writeUvarint(uint64(len(p.key))); err != nil {
			_ = f.Close()
			return err
		}
		if _, err := w.Write(p.key); err != nil {
			_ = f.Close()
			return err
		}
		if err := writeUvarint(uint64(p.valOff)); err != nil {
			_ = f.Close()
			return err
		}
		if err := writeUvarint(uint64(p.valLen)); err != nil {
			_ = f.Close()
			return err
		}
	}

	fstOff := w.n
	builder, err := vellum.New(w, nil)
	if err != nil {
		_ = f.Close()
		return err
	}
	for i, p := range pending {
		if err := builder.Insert(p.key, uint64(i)); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := builder.Close(); err != nil {
		_ = f.Close()
		return err
	}

	var footer [bakedFooterSize]byte
	binary.BigEndian.PutUint64(footer[0:], uint64(keyIndexOff))
	binary.BigEndian.PutUint64(footer[8:], uint64(fstOff))
	binary.BigEndian.PutUint64(footer[16:], uint64(len(pending)))
	binary.BigEndian.PutUint32(footer[24:], bakedVersion)
	if _, err := w.Write(footer[:bakedFooterSize-4]); err != nil {
		_ = f.Close()
		return err
	}
	binary.BigEndian.PutUint32(footer[28:], w.crc)
	if _, err := w.w.Write(footer[28:]); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type bakedEntry struct {
	keyStart int
	keyEnd   int
	valOff   int
	valLen   int
}

// BakedStore is a read-only KVStore over a baked file.  The file is
// mmap'd; values decompress on access.
type BakedStore struct {
	f       *os.File
	mm      mmap.MMap
	mem     []byte
	fst     *vellum.FST
	entries []bakedEntry
}

// OpenBaked maps a baked file, verifying the CRC and parsing the key
// index and FST.
func OpenBaked(path string) (*BakedStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rv := &BakedStore{f: f, mm: mm, mem: mm[:]}
	if err := rv.load(); err != nil {
		_ = rv.Close()
		return nil, err
	}
	return rv, nil
}

func (s *BakedStore) load() error {
	mem := s.mem
	if len(mem) < bakedFooterSize {
		return fmt.Errorf("baked store too small (%d bytes): %w", len(mem), ErrCorrupt)
	}
	foot := mem[len(mem)-bakedFooterSize:]
	keyIndexOff := binary.BigEndian.Uint64(foot[0:])
	fstOff := binary.BigEndian.Uint64(foot[8:])
	count := binary.BigEndian.Uint64(foot[16:])
	version := binary.BigEndian.Uint32(foot[24:])
	storedCRC := binary.BigEndian.Uint32(foot[28:])

	if version != bakedVersion {
		return fmt.Errorf("baked store version %d not supported", version)
	}
	if crc32.ChecksumIEEE(mem[:len(mem)-4]) != storedCRC {
		return fmt.Errorf("baked store checksum mismatch: %w", ErrCorrupt)
	}
	if keyIndexOff > fstOff || fstOff > uint64(len(mem)-bakedFooterSize) {
		return fmt.Errorf("baked store section offsets out of order: %w", ErrCorrupt)
	}

	s.entries = make([]bakedEntry, 0, count)
	pos := int(keyIndexOff)
	indexEnd := int(fstOff)
	for i := uint64(0); i < count; i++ {
		keyLen, n := binary.Uvarint(mem[pos:indexEnd])
		if n <= 0 {
			return fmt.Errorf("baked store key index truncated: %w", ErrCorrupt)
		}
		pos += n
		keyStart := pos
		pos += int(keyLen)
		if pos > indexEnd {
			return fmt.Errorf("baked store key index truncated: %w", ErrCorrupt)
		}
		valOff, n := binary.Uvarint(mem[pos:indexEnd])
		if n <= 0 {
			return fmt.Errorf("baked store key index truncated: %w", ErrCorrupt)
		}
		pos += n
		valLen, n := binary.Uvarint(mem[pos:indexEnd])
		if n <= 0 {
			return fmt.Errorf("baked store key index truncated: %w", ErrCorrupt)
		}
		pos += n
		s.entries = append(s.entries, bakedEntry{
			keyStart: keyStart,
			keyEnd:   keyStart + int(keyLen),
			valOff:   int(valOff),
			valLen:   int(valLen),
		})
	}

	fst, err := vellum.Load(mem[fstOff : len(mem)-bakedFooterSize])
	if err != nil {
		return fmt.Errorf("baked store fst: %v: %w", err, ErrCorrupt)
	}
	s.fst = fst
	return nil
}

func (s *BakedStore) Close() error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return err
		}
		s.mm = nil
	}
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}

func (s *BakedStore) Len() int { return len(s.entries) }

func (s *BakedStore) key(i int) []byte {
	e := s.entries[i]
	return s.mem[e.keyStart:e.keyEnd]
}

func (s *BakedStore) value(i int) ([]byte, error) {
	e := s.entries[i]
	out, err := snappy.Decode(nil, s.mem[e.valOff:e.valOff+e.valLen])
	if err != nil {
		return nil, fmt.Errorf("baked store value %d: %v: %w", i, err, ErrCorrupt)
	}
	return out, nil
}

func (s *BakedStore) Add(key, value []byte) error { return ErrReadOnly }

func (s *BakedStore) Del(key []byte) (bool, error) { return false, ErrReadOnly }

func (s *BakedStore) Get(key []byte) ([]byte, bool, error) {
	idx, found, err := s.fst.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	val, err := s.value(int(idx))
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *BakedStore) Has(key []byte) (bool, error) {
	_, found, err := s.fst.Get(key)
	return found, err
}

func (s *BakedStore) Cursor() KVCursor {
	return &bakedCursor{s: s, idx: -1}
}

type bakedCursor struct {
	s   *BakedStore
	idx int // -1 before begin, len(entries) after end
}

func (c *bakedCursor) FindEntry(key []byte) bool {
	i := sort.Search(len(c.s.entries), func(i int) bool {
		return bytes.Compare(c.s.key(i), key) >= 0
	})
	if i < len(c.s.entries) && bytes.Equal(c.s.key(i), key) {
		c.idx = i
		return true
	}
	c.idx = i - 1
	return false
}

func (c *bakedCursor) Next() bool {
	if c.idx >= len(c.s.entries) {
		return false
	}
	c.idx++
	return c.idx < len(c.s.entries)
}

func (c *bakedCursor) AfterEnd() bool { return c.idx >= len(c.s.entries) }

func (c *bakedCursor) Key() []byte {
	if c.idx < 0 || c.idx >= len(c.s.entries) {
		return nil
	}
	return c.s.key(c.idx)
}

func (c *bakedCursor) Value() ([]byte, error) {
	if c.idx < 0 || c.idx >= len(c.s.entries) {
		return nil, fmt.Errorf("cursor is not on an entry: %w", ErrCorrupt)
	}
	return c.s.value(c.idx)
}

func (c *bakedCursor) Del() (bool, error) { return false, ErrReadOnly }

func (c *bakedCursor) Clone() KVCursor {
	clone := *c
	return &clone
}
