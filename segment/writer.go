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
	"encoding/binary"
	"io"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compr"
)

// Writer appends segment bodies to an underlying io.Writer and records
// their (offset, length, alignment) in a Catalogue, the way
// blockfmt.CompressionWriter wraps ion blocks with an optional codec
// before writing them out (spec §11 DOMAIN STACK).
type Writer struct {
	w      io.Writer
	cat    *Catalogue
	offset uint64
	comp   compr.Compressor // nil writes segment bodies uncompressed
}

// NewWriter builds a Writer appending to w. comp may be nil to write
// segment bodies verbatim.
func NewWriter(w io.Writer, comp compr.Compressor) *Writer {
	return &Writer{w: w, cat: NewCatalogue(), comp: comp}
}

// NewWriterAt builds a Writer like NewWriter, but records catalogue
// offsets starting at baseOffset instead of 0 — for callers that have
// already written bytes (e.g. a magic prefix) to w before any segment, so
// the catalogue stays expressed in absolute file offsets (spec §6.1).
func NewWriterAt(w io.Writer, comp compr.Compressor, baseOffset uint64) *Writer {
	return &Writer{w: w, cat: NewCatalogue(), comp: comp, offset: baseOffset}
}

// Catalogue returns the catalogue built so far; call after all segments
// have been written to get the final footer-ready table.
func (w *Writer) Catalogue() *Catalogue { return w.cat }

// WriteSegment pads to alignment, optionally compresses data, writes it,
// and returns the new segment's id.
func (w *Writer) WriteSegment(data []byte, alignment uint16) (ID, error) {
	if alignment == 0 {
		alignment = 1
	}
	if pad := int(w.offset % uint64(alignment)); pad != 0 {
		padBytes := make([]byte, int(alignment)-pad)
		if _, err := w.w.Write(padBytes); err != nil {
			return 0, array.NewError(array.IOError, "segment writer padding: %v", err)
		}
		w.offset += uint64(len(padBytes))
	}
	body := data
	if w.comp != nil {
		// Prefix the compressed body with the uncompressed length so the
		// reader can size its destination buffer exactly; Decompress (both
		// the zstd and s2 wrappers in compr) requires dst to be the exact
		// uncompressed length rather than just large enough.
		var lenPrefix [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lenPrefix[:], uint64(len(data)))
		body = append(append([]byte(nil), lenPrefix[:n]...), w.comp.Compress(data, nil)...)
	}
	n, err := w.w.Write(body)
	if err != nil {
		return 0, array.NewError(array.IOError, "segment writer: %v", err)
	}
	id, err := w.cat.Add(Entry{Offset: w.offset, Length: uint64(n), Alignment: alignment})
	if err != nil {
		return 0, err
	}
	w.offset += uint64(n)
	return id, nil
}

// Offset returns the number of bytes written so far, i.e. where the next
// segment (after alignment padding) would begin.
func (w *Writer) Offset() uint64 { return w.offset }
