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

import "github.com/latticedb/lattice/internal/ints"

// BoolArray is the canonical form of the Bool dtype: a bit-packed boolean
// buffer plus validity.
type BoolArray struct {
	canonicalTag
	n        int
	bits     *Buffer
	off      int // bit offset into bits, for zero-copy slicing
	validity Validity
	stats    *Stats
}

// NewBoolArray wraps a packed bit buffer (LSB-first) as a BoolArray.
func NewBoolArray(bits *Buffer, n int, validity Validity) *BoolArray {
	return &BoolArray{n: n, bits: bits, validity: validity, stats: NewStats()}
}

// NewBoolArrayFromBools builds a BoolArray by packing a []bool.
func NewBoolArrayFromBools(vals []bool, validity Validity) *BoolArray {
	raw := make([]byte, ints.BytesForBits(len(vals)))
	for i, v := range vals {
		if v {
			ints.SetBit(raw, i)
		}
	}
	buf, _ := NewBuffer(raw, 1)
	return NewBoolArray(buf, len(vals), validity)
}

func (a *BoolArray) Len() int           { return a.n }
func (a *BoolArray) DType() DType       { return Bool(a.validity.Kind != NonNullable) }
func (a *BoolArray) EncodingID() string { return "lattice.bool" }
func (a *BoolArray) Validity() Validity { return a.validity }
func (a *BoolArray) Children() []Array  { return nil }
func (a *BoolArray) Buffers() []*Buffer { return []*Buffer{a.bits} }
func (a *BoolArray) Metadata() []byte   { return nil }
func (a *BoolArray) Statistics() *Stats { return a.stats }
func (a *BoolArray) ToCanonical() (Array, error) { return a, nil }

// Value returns the unvalidated boolean value at row i (ignores validity).
func (a *BoolArray) Value(i int) bool {
	return ints.TestBit(a.bits.Bytes(), a.off+i)
}

func (a *BoolArray) ScalarAt(i int) (Scalar, error) {
	if i < 0 || i >= a.n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, a.n).WithIndex(i)
	}
	if !a.Validity().IsValid(i) {
		return NullScalar(a.DType()), nil
	}
	return BoolScalar(a.Value(i), a.validity.Kind != NonNullable), nil
}

func (a *BoolArray) Slice(start, stop int) (Array, error) {
	if start < 0 || stop < start || stop > a.n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.n)
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return &BoolArray{n: stop - start, bits: a.bits, off: a.off + start, validity: v, stats: NewStats()}, nil
}
