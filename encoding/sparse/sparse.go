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

// Package sparse implements the Sparse encoding of spec §4.3.3: a small set
// of (index, value) pairs over a mostly-Fill array. Indices must be sorted
// ascending and unique.
package sparse

import (
	"sort"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.sparse"

// Array stores explicit rows at Indices, with Fill occupying every other
// row. Fill is typically a null scalar but need not be.
type Array struct {
	dtype   array.DType
	length  int
	indices []uint64 // strictly increasing
	values  array.Array
	fill    array.Scalar
	stats   *array.Stats
}

// New builds a Sparse array. indices must be sorted ascending with no
// duplicates; values.Len() must equal len(indices).
func New(indices []uint64, values array.Array, length int, fill array.Scalar) *Array {
	return &Array{dtype: values.DType(), length: length, indices: indices, values: values, fill: fill, stats: array.NewStats()}
}

func (a *Array) Len() int                 { return a.length }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return []array.Array{a.values} }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }

func (a *Array) findIndex(i int) (pos int, found bool) {
	pos = sort.Search(len(a.indices), func(j int) bool { return a.indices[j] >= uint64(i) })
	return pos, pos < len(a.indices) && a.indices[pos] == uint64(i)
}

func (a *Array) Validity() array.Validity {
	if !a.dtype.Nullable() {
		return array.NonNullableValidity()
	}
	if !a.fill.IsNull() && len(a.indices) == 0 {
		return array.AllValidValidity()
	}
	bools := make([]bool, a.length)
	fillValid := !a.fill.IsNull()
	for i := range bools {
		bools[i] = fillValid
	}
	for j, idx := range a.indices {
		sc, err := a.values.ScalarAt(j)
		bools[idx] = err == nil && !sc.IsNull()
	}
	return array.ArrayValidity(array.NewBoolArrayFromBools(bools, array.NonNullableValidity()))
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= a.length {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, a.length).WithIndex(i)
	}
	if pos, ok := a.findIndex(i); ok {
		return a.values.ScalarAt(pos)
	}
	return a.fill, nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.length {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.length)
	}
	lo, _ := a.findIndex(start)
	hi, _ := a.findIndex(stop)
	newIndices := make([]uint64, hi-lo)
	for j := lo; j < hi; j++ {
		newIndices[j-lo] = a.indices[j] - uint64(start)
	}
	newValues, err := a.values.Slice(lo, hi)
	if err != nil {
		return nil, err
	}
	return New(newIndices, newValues, stop-start, a.fill), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	vals := make([]array.Scalar, a.length)
	for i := range vals {
		vals[i] = a.fill
	}
	for j, idx := range a.indices {
		sc, err := a.values.ScalarAt(j)
		if err != nil {
			return nil, err
		}
		vals[idx] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// FilterKernel implements compute.Filterer in one pass over the rows:
// only the selected explicit entries are materialized, and the fill value
// is never expanded into a dense array (spec §8 concrete scenario 2).
func (a *Array) FilterKernel(m array.Mask) (array.Array, error) {
	newIndices := make([]uint64, 0, len(a.indices))
	var explicitScalars []array.Scalar
	out := 0
	ii := 0 // cursor into a.indices
	for i := 0; i < a.length; i++ {
		if !m.IsTrue(i) {
			if ii < len(a.indices) && a.indices[ii] == uint64(i) {
				ii++
			}
			continue
		}
		if ii < len(a.indices) && a.indices[ii] == uint64(i) {
			sc, err := a.values.ScalarAt(ii)
			if err != nil {
				return nil, err
			}
			newIndices = append(newIndices, uint64(out))
			explicitScalars = append(explicitScalars, sc)
			ii++
		}
		out++
	}
	newValues, err := compute.BuildFromScalars(a.dtype, explicitScalars)
	if err != nil {
		return nil, err
	}
	return New(newIndices, newValues, out, a.fill), nil
}

// TakeKernel implements compute.Taker: each requested row is resolved by a
// binary search against the sparse index set instead of expanding to
// canonical form.
func (a *Array) TakeKernel(indices array.Array) (array.Array, error) {
	n := indices.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		isc, err := indices.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if isc.IsNull() {
			vals[i] = array.NullScalar(a.dtype.WithNullable(true))
			continue
		}
		idx, ok := isc.Int()
		if !ok {
			u, _ := isc.Uint()
			idx = int64(u)
		}
		if idx < 0 || idx >= int64(a.length) {
			return nil, array.NewError(array.OutOfBounds, "take index %d out of range [0,%d)", idx, a.length).WithIndex(i)
		}
		sc, err := a.ScalarAt(int(idx))
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}
