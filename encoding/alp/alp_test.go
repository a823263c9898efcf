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

package alp

import (
	"math"
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func TestALPComparePatchOutlier(t *testing.T) {
	dt := array.Primitive(array.F32, false)
	values := []float64{1.234, 1.5, 19.0, math.E, 1000000.9}
	e, f, _ := Train(values)
	arr := Encode(dt, values, e, f)

	if arr.Len() != len(values) {
		t.Fatalf("length = %d, want %d", arr.Len(), len(values))
	}
	for i, w := range values {
		sc, err := arr.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Float(); got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}

	out, err := compute.CompareScalar(arr, compute.Eq, array.FloatScalar(array.F32, 1000000.9, false))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	last, err := out.ScalarAt(len(values) - 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if got, _ := last.Bool(); !got {
		t.Errorf("expected last row true")
	}
}
