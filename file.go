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

package lattice

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compr"
	"github.com/latticedb/lattice/expr"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/scan"
	"github.com/latticedb/lattice/segment"
)

// magic marks the format and major version (spec §6.1 items 1 and 4); both
// the prefix and the postscript's trailing marker use the same 4 bytes,
// the way Parquet's "PAR1" brackets its own file.
const magicLen = 4

var magic = []byte("LAT1")

const postscriptSize = 8 + magicLen // footer length (uint64) + magic

// Footer is everything a reader needs beyond the segment bytes themselves
// (spec §6.1 item 3): the root dtype, the layout tree, the segment
// catalogue, and the encoding context.
type Footer struct {
	DType           array.DType
	Root            layout.Layout
	Catalogue       *segment.Catalogue
	EncodingContext []string
	FileID          uuid.UUID
}

func encodeFooter(f *Footer) ([]byte, error) {
	var buf bytes.Buffer
	idBytes, err := f.FileID.MarshalBinary()
	if err != nil {
		return nil, array.NewError(array.InvalidArgument, "encode footer file id: %v", err)
	}
	buf.Write(idBytes)
	encodeDType(&buf, f.DType)
	if err := encodeLayout(&buf, f.Root); err != nil {
		return nil, err
	}
	encodeCatalogue(&buf, f.Catalogue)
	writeUvarint(&buf, uint64(len(f.EncodingContext)))
	for _, id := range f.EncodingContext {
		writeString(&buf, id)
	}
	return buf.Bytes(), nil
}

func decodeFooter(data []byte) (*Footer, error) {
	r := bytes.NewReader(data)
	idBytes := make([]byte, 16)
	if _, err := io.ReadFull(r, idBytes); err != nil {
		return nil, array.NewError(array.CorruptFile, "truncated footer file id: %v", err)
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(idBytes); err != nil {
		return nil, array.NewError(array.CorruptFile, "decode footer file id: %v", err)
	}
	dt, err := decodeDType(r)
	if err != nil {
		return nil, err
	}
	root, err := decodeLayout(r)
	if err != nil {
		return nil, err
	}
	cat, err := decodeCatalogue(r)
	if err != nil {
		return nil, err
	}
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	ctxIDs := make([]string, n)
	for i := range ctxIDs {
		ctxIDs[i], err = readString(r)
		if err != nil {
			return nil, err
		}
	}
	return &Footer{DType: dt, Root: root, Catalogue: cat, EncodingContext: ctxIDs, FileID: id}, nil
}

// File is an opened lattice file: a footer plus the segment reader backing
// it (spec §6.3's `open(reader) -> File`).
type File struct {
	footer *Footer
	reader *segment.Reader
}

// Open reads the postscript and footer of a file backed by src (spec §6.1:
// "reading the file requires two random reads: postscript, then the
// footer"). decomp may be nil if segment bodies were written uncompressed.
func Open(ctx context.Context, src segment.ByteRangeReader, decomp compr.Decompressor) (*File, error) {
	size, err := src.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size < uint64(len(magic))+uint64(postscriptSize) {
		return nil, array.NewError(array.CorruptFile, "file too small to contain a valid postscript (%d bytes)", size)
	}

	head, err := src.ReadRange(ctx, 0, uint64(len(magic)))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(head, magic) {
		return nil, array.NewError(array.CorruptFile, "bad magic prefix %q", head)
	}

	ps, err := src.ReadRange(ctx, size-uint64(postscriptSize), uint64(postscriptSize))
	if err != nil {
		return nil, err
	}
	tailMagic := ps[8:]
	if !bytes.Equal(tailMagic, magic) {
		return nil, array.NewError(array.CorruptFile, "bad magic suffix %q", tailMagic)
	}
	footerLen := binary.BigEndian.Uint64(ps[:8])
	footerOff := size - uint64(postscriptSize) - footerLen
	footerBytes, err := src.ReadRange(ctx, footerOff, footerLen)
	if err != nil {
		return nil, err
	}
	footer, err := decodeFooter(footerBytes)
	if err != nil {
		return nil, err
	}
	r := segment.NewReader(footer.Catalogue, src, decomp)
	return &File{footer: footer, reader: r}, nil
}

// DType returns the logical dtype of the file's root layout.
func (f *File) DType() array.DType { return f.footer.DType }

// RowCount returns the number of logical rows in the file.
func (f *File) RowCount() int { return f.footer.Root.RowCount() }

// FileID returns the file's footer-embedded UUID, for log/telemetry
// correlation across readers (spec §11 DOMAIN STACK).
func (f *File) FileID() uuid.UUID { return f.footer.FileID }

// EncodingContext returns the ordered list of encoding ids used in the
// file (spec §4.10).
func (f *File) EncodingContext() []string { return f.footer.EncodingContext }

// Splits returns the file's row-split set as (lo, hi) pairs (spec §6.3's
// `file.splits()`).
func (f *File) Splits() []scan.Range {
	return scan.RowSplits(f.footer.Root)
}

// Scan starts a stream over the file honoring opts (spec §6.3's
// `file.scan(filter?, projection?, row_range?, row_mask?)`). metrics may be
// nil.
func (f *File) Scan(ctx context.Context, filter, projection expr.Node, rowRange *scan.Range, rowMask *array.Mask, metrics *scan.Metrics) (*scan.Stream, error) {
	opts := scan.Options{Filter: filter, Projection: projection, RowRange: rowRange, RowMask: rowMask}
	return scan.NewStream(ctx, f.footer.Root, f.reader, opts, metrics)
}

