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

// ListArray is the canonical form of the List dtype: a []uint32 offsets
// slice (length n+1) plus a values child holding the
// concatenation of every row's elements.
type ListArray struct {
	canonicalTag
	dtype    DType
	offsets  []uint32 // length n+1
	values   Array
	validity Validity
	stats    *Stats
}

// NewListArray builds a ListArray from exclusive-prefix-sum offsets and a
// flattened values child.
func NewListArray(dtype DType, offsets []uint32, values Array, validity Validity) *ListArray {
	return &ListArray{dtype: dtype, offsets: offsets, values: values, validity: validity, stats: NewStats()}
}

func (a *ListArray) Len() int           { return len(a.offsets) - 1 }
func (a *ListArray) DType() DType       { return a.dtype }
func (a *ListArray) EncodingID() string { return "lattice.list" }
func (a *ListArray) Validity() Validity { return a.validity }
func (a *ListArray) Children() []Array  { return []Array{a.values} }
func (a *ListArray) Buffers() []*Buffer { return nil }
func (a *ListArray) Metadata() []byte   { return nil }
func (a *ListArray) Statistics() *Stats { return a.stats }
func (a *ListArray) ToCanonical() (Array, error) { return a, nil }

func (a *ListArray) ScalarAt(i int) (Scalar, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, n).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return NullScalar(a.dtype), nil
	}
	lo, hi := a.offsets[i], a.offsets[i+1]
	vals := make([]Scalar, 0, hi-lo)
	for k := lo; k < hi; k++ {
		sc, err := a.values.ScalarAt(int(k))
		if err != nil {
			return Scalar{}, err
		}
		vals = append(vals, sc)
	}
	return ListScalar(a.dtype, vals, a.validity.Kind != NonNullable), nil
}

func (a *ListArray) Slice(start, stop int) (Array, error) {
	n := a.Len()
	if start < 0 || stop < start || stop > n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, n)
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	newOffsets := make([]uint32, stop-start+1)
	copy(newOffsets, a.offsets[start:stop+1])
	return &ListArray{dtype: a.dtype, offsets: newOffsets, values: a.values, validity: v, stats: NewStats()}, nil
}
