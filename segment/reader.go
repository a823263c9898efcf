// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package segment

import (
	"context"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compr"
)

// ByteRangeReader is the segment reader trait of spec §6.5: any
// positional reader (local file, object store, memory) can implement it.
// Implementations should support concurrent reads; the scan driver
// batches requests but does not serialize them.
type ByteRangeReader interface {
	ReadRange(ctx context.Context, offset, length uint64) ([]byte, error)
	Size(ctx context.Context) (uint64, error)
}

// ReaderAtSource adapts any io.ReaderAt (an *os.File, a bytes.Reader over
// an in-memory file, ...) into a ByteRangeReader. This is the portable
// fallback path for platforms without an mmap-backed reader (spec §11's
// DOMAIN STACK: "Darwin/Windows fall back to io.ReaderAt").
type ReaderAtSource struct {
	R     io.ReaderAt
	Size_ uint64
}

func (s *ReaderAtSource) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := s.R.ReadAt(buf, int64(offset)); err != nil && err != io.EOF {
		return nil, array.NewError(array.IOError, "segment read at offset %d length %d: %v", offset, length, err)
	}
	return buf, nil
}

func (s *ReaderAtSource) Size(ctx context.Context) (uint64, error) { return s.Size_, nil }

// Reader resolves segment ids against a Catalogue and a ByteRangeReader,
// coalescing and caching reads (spec §4.9's segment driver, §3.9's
// "readers coalesce nearby segments when beneficial").
type Reader struct {
	cat    *Catalogue
	src    ByteRangeReader
	decomp compr.Decompressor // nil if segment bodies are stored uncompressed

	mu    sync.Mutex
	cache map[ID][]byte
}

// NewReader builds a Reader over cat and src. decomp may be nil if the
// file's segment bodies were written uncompressed.
func NewReader(cat *Catalogue, src ByteRangeReader, decomp compr.Decompressor) *Reader {
	return &Reader{cat: cat, src: src, decomp: decomp, cache: make(map[ID][]byte)}
}

// Read returns the decompressed bytes of segment id, fetching and caching
// them on first access.
func (r *Reader) Read(ctx context.Context, id ID) ([]byte, error) {
	r.mu.Lock()
	if b, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return b, nil
	}
	r.mu.Unlock()

	e, ok := r.cat.Get(id)
	if !ok {
		return nil, array.NewError(array.CorruptFile, "segment id %d not present in catalogue", id)
	}
	raw, err := r.src.ReadRange(ctx, e.Offset, e.Length)
	if err != nil {
		return nil, err
	}
	out := raw
	if r.decomp != nil {
		out, err = r.decompress(raw)
		if err != nil {
			return nil, array.NewError(array.IOError, "decompress segment %d: %v", id, err)
		}
	}
	r.mu.Lock()
	r.cache[id] = out
	r.mu.Unlock()
	return out, nil
}

// ReadMany fetches several segments, coalescing adjacent ones into a
// single underlying ReadRange call when they are contiguous in the file
// (spec §4.9: "issues coalesced reads against the byte-range reader").
func (r *Reader) ReadMany(ctx context.Context, ids []ID) (map[ID][]byte, error) {
	out := make(map[ID][]byte, len(ids))
	type span struct {
		start, end int // indices into sorted, by catalogue offset
	}
	type idOff struct {
		id  ID
		off uint64
	}
	sorted := make([]idOff, 0, len(ids))
	for _, id := range ids {
		e, ok := r.cat.Get(id)
		if !ok {
			return nil, array.NewError(array.CorruptFile, "segment id %d not present in catalogue", id)
		}
		sorted = append(sorted, idOff{id, e.Offset})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].off < sorted[j].off })

	i := 0
	for i < len(sorted) {
		j := i + 1
		lastEnd := func() uint64 {
			e, _ := r.cat.Get(sorted[i].id)
			return e.Offset + e.Length
		}()
		for j < len(sorted) {
			e, _ := r.cat.Get(sorted[j].id)
			if e.Offset != lastEnd {
				break
			}
			lastEnd = e.Offset + e.Length
			j++
		}
		startEntry, _ := r.cat.Get(sorted[i].id)
		span, err := r.src.ReadRange(ctx, startEntry.Offset, lastEnd-startEntry.Offset)
		if err != nil {
			return nil, err
		}
		for k := i; k < j; k++ {
			e, _ := r.cat.Get(sorted[k].id)
			rel := e.Offset - startEntry.Offset
			raw := span[rel : rel+e.Length]
			if r.decomp != nil {
				dec, err := r.decompress(raw)
				if err != nil {
					return nil, array.NewError(array.IOError, "decompress segment %d: %v", sorted[k].id, err)
				}
				raw = dec
			}
			out[sorted[k].id] = raw
			r.mu.Lock()
			r.cache[sorted[k].id] = raw
			r.mu.Unlock()
		}
		i = j
	}
	return out, nil
}

// decompress strips the uncompressed-length varint WriteSegment prefixes a
// compressed body with and decompresses into an exactly-sized buffer:
// compr's Decompressor implementations (zstd, s2) require dst to be the
// exact uncompressed length rather than merely large enough.
func (r *Reader) decompress(raw []byte) ([]byte, error) {
	n, hdrLen := binary.Uvarint(raw)
	if hdrLen <= 0 {
		return nil, array.NewError(array.CorruptFile, "truncated segment length prefix")
	}
	dst := make([]byte, n)
	if err := r.decomp.Decompress(raw[hdrLen:], dst); err != nil {
		return nil, err
	}
	return dst, nil
}
