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

package runend

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func i32Values(t *testing.T, vs ...int64) array.Array {
	t.Helper()
	scalars := make([]array.Scalar, len(vs))
	for i, v := range vs {
		scalars[i] = array.IntScalar(array.I32, v, false)
	}
	a, err := compute.BuildFromScalars(array.Primitive(array.I32, false), scalars)
	if err != nil {
		t.Fatalf("build values: %v", err)
	}
	return a
}

func expectI32(t *testing.T, a array.Array, want []int64) {
	t.Helper()
	if a.Len() != len(want) {
		t.Fatalf("length = %d, want %d", a.Len(), len(want))
	}
	for i, w := range want {
		sc, err := a.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Int()
		if got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}

func TestRunEndSliceAndTake(t *testing.T) {
	ends := []uint64{2, 5, 10}
	values := i32Values(t, 1, 2, 3)
	re := New(ends, values)

	expectI32(t, re, []int64{1, 1, 2, 2, 2, 3, 3, 3, 3, 3})

	sliced, err := re.Slice(3, 8)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	expectI32(t, sliced, []int64{2, 2, 3, 3, 3})

	idxScalars := []array.Scalar{
		array.IntScalar(array.I32, 9, false),
		array.IntScalar(array.I32, 8, false),
		array.IntScalar(array.I32, 1, false),
		array.IntScalar(array.I32, 3, false),
	}
	idx, err := compute.BuildFromScalars(array.Primitive(array.I32, false), idxScalars)
	if err != nil {
		t.Fatalf("build indices: %v", err)
	}
	taken, err := compute.Take(re, idx, false)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	expectI32(t, taken, []int64{3, 3, 1, 2})
}

func TestRunEndToCanonicalRoundTrip(t *testing.T) {
	ends := []uint64{2, 5, 10}
	values := i32Values(t, 1, 2, 3)
	re := New(ends, values)
	canon, err := re.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	expectI32(t, canon, []int64{1, 1, 2, 2, 2, 3, 3, 3, 3, 3})
}

func TestRunEndIsSorted(t *testing.T) {
	re := New([]uint64{2, 5, 10}, i32Values(t, 1, 2, 3))
	sorted, err := compute.IsSorted(re)
	if err != nil {
		t.Fatalf("IsSorted: %v", err)
	}
	if !sorted {
		t.Errorf("expected sorted")
	}
	strict, err := compute.IsStrictSorted(re)
	if err != nil {
		t.Fatalf("IsStrictSorted: %v", err)
	}
	if strict {
		t.Errorf("expected not strictly sorted (runs repeat values)")
	}
}
