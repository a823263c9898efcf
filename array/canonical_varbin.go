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

package array

import "encoding/binary"

// viewSize is the width of one Arrow-style binary view: a 4-byte length
// followed by either 12 bytes of inline data (short strings) or a 4-byte
// prefix + 4-byte buffer index + 4-byte offset (long strings).
const viewSize = 16
const viewInlineLen = 12

// VarBinViewArray is the canonical form of Utf8 and Binary dtypes: a packed
// array of 16-byte views over one or more backing data buffers (spec
// §3.4). Short values (<=12 bytes) are stored inline in the view itself;
// longer values are stored in Data[bufferIdx] at the given offset.
type VarBinViewArray struct {
	canonicalTag
	dtype    DType
	n        int
	views    *Buffer   // n * viewSize bytes
	off      int       // view-index offset, for zero-copy slicing
	data     []*Buffer // backing data buffers
	validity Validity
	stats    *Stats
}

// NewVarBinViewArray builds a VarBinViewArray from already-packed views and
// data buffers.
func NewVarBinViewArray(dtype DType, views *Buffer, data []*Buffer, n int, validity Validity) *VarBinViewArray {
	return &VarBinViewArray{dtype: dtype, n: n, views: views, data: data, validity: validity, stats: NewStats()}
}

// BuildVarBinView packs a slice of byte strings into a fresh
// VarBinViewArray, placing all long values into a single backing data
// buffer (the common single-chunk case; a sampling compressor or layout
// writer that wants multiple data buffers per array can construct one with
// NewVarBinViewArray directly).
func BuildVarBinView(dtype DType, vals [][]byte, validity Validity) (*VarBinViewArray, error) {
	n := len(vals)
	viewBytes := make([]byte, n*viewSize)
	var data []byte
	for i, v := range vals {
		rec := viewBytes[i*viewSize : (i+1)*viewSize]
		binary.LittleEndian.PutUint32(rec[0:4], uint32(len(v)))
		if len(v) <= viewInlineLen {
			copy(rec[4:4+len(v)], v)
		} else {
			copy(rec[4:8], v[:4])
			binary.LittleEndian.PutUint32(rec[8:12], 0)
			binary.LittleEndian.PutUint32(rec[12:16], uint32(len(data)))
			data = append(data, v...)
		}
	}
	viewsBuf, err := NewBuffer(viewBytes, 4)
	if err != nil {
		return nil, err
	}
	dataBuf, err := NewBuffer(data, 1)
	if err != nil {
		return nil, err
	}
	return NewVarBinViewArray(dtype, viewsBuf, []*Buffer{dataBuf}, n, validity), nil
}

func (a *VarBinViewArray) Len() int           { return a.n }
func (a *VarBinViewArray) DType() DType       { return a.dtype }
func (a *VarBinViewArray) EncodingID() string { return "lattice.varbinview" }
func (a *VarBinViewArray) Validity() Validity { return a.validity }
func (a *VarBinViewArray) Children() []Array  { return nil }
func (a *VarBinViewArray) Metadata() []byte   { return nil }
func (a *VarBinViewArray) Statistics() *Stats { return a.stats }
func (a *VarBinViewArray) ToCanonical() (Array, error) { return a, nil }

func (a *VarBinViewArray) Buffers() []*Buffer {
	bufs := make([]*Buffer, 0, len(a.data)+1)
	bufs = append(bufs, a.views)
	bufs = append(bufs, a.data...)
	return bufs
}

// BytesAt returns the raw value at row i, ignoring validity.
func (a *VarBinViewArray) BytesAt(i int) []byte {
	rec := a.views.Bytes()[(a.off+i)*viewSize : (a.off+i+1)*viewSize]
	length := binary.LittleEndian.Uint32(rec[0:4])
	if int(length) <= viewInlineLen {
		return rec[4 : 4+length]
	}
	bufIdx := binary.LittleEndian.Uint32(rec[8:12])
	offset := binary.LittleEndian.Uint32(rec[12:16])
	return a.data[bufIdx].Bytes()[offset : offset+length]
}

func (a *VarBinViewArray) ScalarAt(i int) (Scalar, error) {
	if i < 0 || i >= a.n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, a.n).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return NullScalar(a.dtype), nil
	}
	b := a.BytesAt(i)
	nullable := a.validity.Kind != NonNullable
	if a.dtype.Kind() == KindUtf8 {
		return StringScalar(string(b), nullable), nil
	}
	cp := append([]byte(nil), b...)
	return BinaryScalar(cp, nullable), nil
}

func (a *VarBinViewArray) Slice(start, stop int) (Array, error) {
	if start < 0 || stop < start || stop > a.n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.n)
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return &VarBinViewArray{dtype: a.dtype, n: stop - start, views: a.views, off: a.off + start, data: a.data, validity: v, stats: NewStats()}, nil
}
