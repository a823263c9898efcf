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

package compute

import (
	"sort"

	"github.com/latticedb/lattice/array"
)

// IsSorted reports whether a's logical values are non-decreasing under
// total-compare, with nulls sorting least (spec §4.2). Honors an
// encoding-specific fast path via SortedChecker.
func IsSorted(a array.Array) (bool, error) {
	if sc, ok := a.(SortedChecker); ok {
		if p, handled := sc.IsSortedKernel(false); handled {
			v, _ := p.Value()
			b, _ := v.(bool)
			return b, nil
		}
	}
	return isSortedGeneric(a, false)
}

// IsStrictSorted reports whether a's logical values are strictly increasing.
func IsStrictSorted(a array.Array) (bool, error) {
	if sc, ok := a.(SortedChecker); ok {
		if p, handled := sc.IsSortedKernel(true); handled {
			v, _ := p.Value()
			b, _ := v.(bool)
			return b, nil
		}
	}
	return isSortedGeneric(a, true)
}

func isSortedGeneric(a array.Array, strict bool) (bool, error) {
	n := a.Len()
	if n < 2 {
		return true, nil
	}
	prev, err := a.ScalarAt(0)
	if err != nil {
		return false, err
	}
	for i := 1; i < n; i++ {
		cur, err := a.ScalarAt(i)
		if err != nil {
			return false, err
		}
		cmp, ok := prev.Compare(cur)
		if !ok {
			return false, array.NewError(array.ComputeError, "values at rows %d,%d are not comparable", i-1, i)
		}
		if strict {
			if cmp >= 0 {
				return false, nil
			}
		} else if cmp > 0 {
			return false, nil
		}
		prev = cur
	}
	return true, nil
}

// SortIndices returns the permutation (as a U32 primitive array) that sorts
// a's logical values ascending, nulls first, stable across ties. This
// supplements spec.md's is_sorted/is_strict_sorted with an explicit
// sort-producing kernel (see SPEC_FULL.md §12 item 4): the sampling
// compressor and Dictionary/Run-End encoders need a way to produce the
// codes/ends arrays they consume.
func SortIndices(a array.Array) (array.Array, error) {
	n := a.Len()
	scalars := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		scalars[i] = sc
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		cmp, _ := scalars[idx[i]].Compare(scalars[idx[j]])
		return cmp < 0
	})
	raw := make([]byte, n*4)
	for i, v := range idx {
		raw[i*4] = byte(v)
		raw[i*4+1] = byte(v >> 8)
		raw[i*4+2] = byte(v >> 16)
		raw[i*4+3] = byte(v >> 24)
	}
	buf, err := array.NewBuffer(raw, 4)
	if err != nil {
		return nil, err
	}
	return array.NewPrimitiveArray(array.Primitive(array.U32, false), buf, n, array.NonNullableValidity()), nil
}
