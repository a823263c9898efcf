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

// Package roaring implements the Roaring encoding of spec §4.3.15: Bool
// bitsets and sorted unsigned-integer sets represented as Roaring
// bitmaps (github.com/RoaringBitmap/roaring), giving O(1) cardinality and
// min/max via the bitmap's own summary fields instead of a scan.
package roaring

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const (
	BoolEncodingID = "lattice.roaring.bool"
	IntEncodingID  = "lattice.roaring.int"
)

// BoolArray stores a set of true-row positions in a roaring.Bitmap; every
// row outside the bitmap is false. There is no null representation: the
// dtype is always non-nullable bool.
type BoolArray struct {
	bitmap *roaring.Bitmap
	length int
	stats  *array.Stats
}

// NewBool wraps a roaring bitmap of true-row positions as a BoolArray of
// length n.
func NewBool(bitmap *roaring.Bitmap, n int) *BoolArray {
	return &BoolArray{bitmap: bitmap, length: n, stats: array.NewStats()}
}

func (a *BoolArray) Len() int                 { return a.length }
func (a *BoolArray) DType() array.DType       { return array.Bool(false) }
func (a *BoolArray) EncodingID() string       { return BoolEncodingID }
func (a *BoolArray) Children() []array.Array  { return nil }
func (a *BoolArray) Buffers() []*array.Buffer { return nil }
func (a *BoolArray) Metadata() []byte         { return nil }
func (a *BoolArray) Statistics() *array.Stats { return a.stats }
func (a *BoolArray) Validity() array.Validity { return array.NonNullableValidity() }

func (a *BoolArray) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= a.length {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, a.length).WithIndex(i)
	}
	return array.BoolScalar(a.bitmap.Contains(uint32(i)), false), nil
}

func (a *BoolArray) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.length {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.length)
	}
	sub := roaring.New()
	it := a.bitmap.Iterator()
	it.AdvanceIfNeeded(uint32(start))
	for it.HasNext() {
		v := it.Next()
		if int(v) >= stop {
			break
		}
		sub.Add(v - uint32(start))
	}
	return NewBool(sub, stop-start), nil
}

func (a *BoolArray) ToCanonical() (array.Array, error) {
	bools := make([]bool, a.length)
	it := a.bitmap.Iterator()
	for it.HasNext() {
		v := it.Next()
		if int(v) >= a.length {
			break
		}
		bools[v] = true
	}
	return array.NewBoolArrayFromBools(bools, array.NonNullableValidity()), nil
}

// TrueCountKernel reports cardinality in O(1) via the bitmap's own count,
// feeding spec §3.6's StatTrueCount.
func (a *BoolArray) TrueCountKernel() (uint64, bool) {
	return a.bitmap.GetCardinality(), true
}

// FilterKernel implements compute.Filterer by walking the mask's selected
// positions and re-ranking each one that is set in the bitmap to its
// index within the output.
func (a *BoolArray) FilterKernel(m array.Mask) (array.Array, error) {
	selected := m.ToIndices()
	out := roaring.New()
	for rank, idx := range selected {
		if a.bitmap.Contains(idx) {
			out.Add(uint32(rank))
		}
	}
	return NewBool(out, len(selected)), nil
}

// IntArray stores a sorted set of non-negative integer values (spec
// §4.3.15's "sorted integer sets"); Len is the set's cardinality, not a
// separate row count, since Roaring-Int has no notion of fill positions.
type IntArray struct {
	dtype  array.DType
	bitmap *roaring.Bitmap
	stats  *array.Stats
}

// NewInt wraps a roaring bitmap of sorted values as an IntArray.
func NewInt(dtype array.DType, bitmap *roaring.Bitmap) *IntArray {
	return &IntArray{dtype: dtype, bitmap: bitmap, stats: array.NewStats()}
}

func (a *IntArray) Len() int                 { return int(a.bitmap.GetCardinality()) }
func (a *IntArray) DType() array.DType       { return a.dtype }
func (a *IntArray) EncodingID() string       { return IntEncodingID }
func (a *IntArray) Children() []array.Array  { return nil }
func (a *IntArray) Buffers() []*array.Buffer { return nil }
func (a *IntArray) Metadata() []byte         { return nil }
func (a *IntArray) Statistics() *array.Stats { return a.stats }
func (a *IntArray) Validity() array.Validity { return array.NonNullableValidity() }

func (a *IntArray) ScalarAt(i int) (array.Scalar, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, n).WithIndex(i)
	}
	it := a.bitmap.Iterator()
	it.AdvanceIfNeeded(0)
	var v uint32
	for k := 0; k <= i; k++ {
		v = it.Next()
	}
	return array.UintScalar(a.dtype.PType(), uint64(v), a.dtype.Nullable()), nil
}

func (a *IntArray) Slice(start, stop int) (array.Array, error) {
	vals := a.bitmap.ToArray()
	if start < 0 || stop < start || stop > len(vals) {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, len(vals))
	}
	sub := roaring.New()
	for _, v := range vals[start:stop] {
		sub.Add(v)
	}
	return NewInt(a.dtype, sub), nil
}

func (a *IntArray) ToCanonical() (array.Array, error) {
	vals := a.bitmap.ToArray()
	scalars := make([]array.Scalar, len(vals))
	for i, v := range vals {
		scalars[i] = array.UintScalar(a.dtype.PType(), uint64(v), a.dtype.Nullable())
	}
	return compute.BuildFromScalars(a.dtype, scalars)
}

// MinMaxKernel implements compute.MinMaxer in O(1) via the bitmap's own
// min/max summary.
func (a *IntArray) MinMaxKernel() (min, max array.Scalar, ok bool, err error) {
	if a.bitmap.IsEmpty() {
		return array.Scalar{}, array.Scalar{}, false, nil
	}
	return array.UintScalar(a.dtype.PType(), uint64(a.bitmap.Minimum()), a.dtype.Nullable()),
		array.UintScalar(a.dtype.PType(), uint64(a.bitmap.Maximum()), a.dtype.Nullable()), true, nil
}

// IsSortedKernel implements compute.SortedChecker: Roaring-Int always
// iterates in ascending order by construction.
func (a *IntArray) IsSortedKernel(strict bool) (array.Precision, bool) {
	return array.Exact(true), true
}
