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

package frameref

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func TestFrameOfReferenceScalarAtAndMinMax(t *testing.T) {
	offScalars := []array.Scalar{
		array.UintScalar(array.U32, 0, false),
		array.UintScalar(array.U32, 5, false),
		array.UintScalar(array.U32, 2, false),
		array.UintScalar(array.U32, 9, false),
	}
	offsets, err := compute.BuildFromScalars(array.Primitive(array.U32, false), offScalars)
	if err != nil {
		t.Fatalf("build offsets: %v", err)
	}
	dt := array.Primitive(array.I32, false)
	fr := New(dt, array.IntScalar(array.I32, 100, false), offsets)

	want := []int64{100, 105, 102, 109}
	for i, w := range want {
		sc, err := fr.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Int(); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}

	min, max, ok, err := compute.MinMax(fr)
	if err != nil || !ok {
		t.Fatalf("MinMax: ok=%v err=%v", ok, err)
	}
	if gm, _ := min.Int(); gm != 100 {
		t.Errorf("min = %d, want 100", gm)
	}
	if gx, _ := max.Int(); gx != 109 {
		t.Errorf("max = %d, want 109", gx)
	}
}
