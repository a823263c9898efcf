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

package chunked

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func chunkOf(t *testing.T, vs ...int64) array.Array {
	t.Helper()
	scalars := make([]array.Scalar, len(vs))
	for i, v := range vs {
		scalars[i] = array.IntScalar(array.I32, v, false)
	}
	out, err := compute.BuildFromScalars(array.Primitive(array.I32, false), scalars)
	if err != nil {
		t.Fatalf("build chunk: %v", err)
	}
	return out
}

func TestChunkedSliceAcrossBoundary(t *testing.T) {
	c := New([]array.Array{
		chunkOf(t, 1, 2, 3),
		chunkOf(t, 4, 5, 6),
		chunkOf(t, 7, 8),
	})
	if c.Len() != 8 {
		t.Fatalf("length = %d, want 8", c.Len())
	}
	sliced, err := c.Slice(2, 6)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	want := []int64{3, 4, 5, 6}
	if sliced.Len() != len(want) {
		t.Fatalf("sliced length = %d, want %d", sliced.Len(), len(want))
	}
	for i, w := range want {
		sc, err := sliced.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Int(); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}

func TestChunkedSum(t *testing.T) {
	c := New([]array.Array{chunkOf(t, 1, 2, 3), chunkOf(t, 4, 5, 6)})
	sum, err := compute.Sum(c)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	got, _ := sum.Int()
	if got != 21 {
		t.Errorf("sum = %d, want 21", got)
	}
}
