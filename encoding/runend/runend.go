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

// Package runend implements the Run-End encoding of spec §4.3.2: a
// monotone Ends array paired with one Values entry per run. Row i belongs
// to the run found by the smallest index j with ends[j] > i, computed with
// a binary search (the source's lower_bound).
package runend

import (
	"sort"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.runend"

// Array is ends/values parallel arrays: ends[j] is the exclusive row bound
// of run j, values[j] is its value. len(ends) == len(values) == run count;
// ends must be strictly increasing with ends[len-1] == Len().
type Array struct {
	dtype  array.DType
	ends   []uint64
	values array.Array
	stats  *array.Stats
}

// New builds a Run-End array. ends must be strictly increasing.
func New(ends []uint64, values array.Array) *Array {
	return &Array{dtype: values.DType(), ends: ends, values: values, stats: array.NewStats()}
}

func (a *Array) Len() int {
	if len(a.ends) == 0 {
		return 0
	}
	return int(a.ends[len(a.ends)-1])
}
func (a *Array) DType() array.DType        { return a.dtype }
func (a *Array) EncodingID() string        { return EncodingID }
func (a *Array) Children() []array.Array   { return []array.Array{a.values} }
func (a *Array) Buffers() []*array.Buffer  { return nil }
func (a *Array) Metadata() []byte          { return nil }
func (a *Array) Statistics() *array.Stats  { return a.stats }

// findRun returns the run index owning row i via lower_bound on ends: the
// smallest j with ends[j] > i.
func (a *Array) findRun(i int) int {
	return sort.Search(len(a.ends), func(j int) bool { return a.ends[j] > uint64(i) })
}

// Validity expands the per-run null pattern into a row-level validity
// array. Composite encodings that need to avoid this expansion should
// consult Children()[0].Validity() run-by-run instead.
func (a *Array) Validity() array.Validity {
	if !a.dtype.Nullable() {
		return array.NonNullableValidity()
	}
	n := a.Len()
	bools := make([]bool, n)
	start := 0
	anyInvalid := false
	for j, end := range a.ends {
		sc, err := a.values.ScalarAt(j)
		valid := err == nil && !sc.IsNull()
		if !valid {
			anyInvalid = true
		}
		for i := start; i < int(end); i++ {
			bools[i] = valid
		}
		start = int(end)
	}
	if !anyInvalid {
		return array.AllValidValidity()
	}
	return array.ArrayValidity(array.NewBoolArrayFromBools(bools, array.NonNullableValidity()))
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, n).WithIndex(i)
	}
	run := a.findRun(i)
	return a.values.ScalarAt(run)
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	n := a.Len()
	if start < 0 || stop < start || stop > n {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, n)
	}
	if start == stop {
		return New(nil, sliceZero(a.values)), nil
	}
	firstRun := a.findRun(start)
	lastRun := a.findRun(stop - 1)
	newEnds := make([]uint64, lastRun-firstRun+1)
	for j := firstRun; j <= lastRun; j++ {
		end := a.ends[j]
		if int(end) > stop {
			end = uint64(stop)
		}
		newEnds[j-firstRun] = end - uint64(start)
	}
	newValues, err := a.values.Slice(firstRun, lastRun+1)
	if err != nil {
		return nil, err
	}
	return New(newEnds, newValues), nil
}

func sliceZero(values array.Array) array.Array {
	z, _ := values.Slice(0, 0)
	return z
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.Len()
	vals := make([]array.Scalar, n)
	start := 0
	for j, end := range a.ends {
		sc, err := a.values.ScalarAt(j)
		if err != nil {
			return nil, err
		}
		for i := start; i < int(end); i++ {
			vals[i] = sc
		}
		start = int(end)
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// SliceKernel implements compute.Slicer by forwarding to the Array.Slice
// method; it gives the kernel dispatcher an entry point distinct from the
// interface method.
func (a *Array) SliceKernel(start, stop int) (array.Array, error) { return a.Slice(start, stop) }

// TakeKernel implements compute.Taker: for each requested index, binary
// search its run and fetch that run's value directly, skipping expansion to
// the canonical form entirely (spec §8 concrete scenario 1).
func (a *Array) TakeKernel(indices array.Array) (array.Array, error) {
	n := indices.Len()
	vals := make([]array.Scalar, n)
	nullable := a.dtype.Nullable() || indices.Validity().Kind != array.NonNullable
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
		if idx < 0 || idx >= int64(a.Len()) {
			return nil, array.NewError(array.OutOfBounds, "take index %d out of range [0,%d)", idx, a.Len()).WithIndex(i)
		}
		run := a.findRun(int(idx))
		sc, err := a.values.ScalarAt(run)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	dt := a.dtype
	if nullable {
		dt = dt.WithNullable(true)
	}
	return compute.BuildFromScalars(dt, vals)
}

// IsSortedKernel implements compute.SortedChecker by checking monotonicity
// of the per-run values only, an O(run_count) shortcut over the O(n)
// generic check. In strict mode any run longer than one row repeats a
// value, so the array is not strictly sorted.
func (a *Array) IsSortedKernel(strict bool) (array.Precision, bool) {
	if !a.dtype.Comparable() {
		return array.Precision{}, false
	}
	if strict {
		prevEnd := uint64(0)
		for _, end := range a.ends {
			if end-prevEnd > 1 {
				return array.Exact(false), true
			}
			prevEnd = end
		}
	}
	runs := len(a.ends)
	for j := 1; j < runs; j++ {
		prev, err := a.values.ScalarAt(j - 1)
		if err != nil {
			return array.Precision{}, false
		}
		cur, err := a.values.ScalarAt(j)
		if err != nil {
			return array.Precision{}, false
		}
		cmp, ok := prev.Compare(cur)
		if !ok {
			return array.Precision{}, false
		}
		if strict {
			if cmp >= 0 {
				return array.Exact(false), true
			}
		} else if cmp > 0 {
			return array.Exact(false), true
		}
	}
	return array.Exact(true), true
}
