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

package zigzag

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func TestZigZagRoundTrip(t *testing.T) {
	signed := []int64{0, -1, 1, -2, 2, -1000000, 1000000}
	codes := make([]array.Scalar, len(signed))
	for i, v := range signed {
		codes[i] = array.UintScalar(array.U32, EncodeScalar(array.I32, v), false)
	}
	encoded, err := compute.BuildFromScalars(array.Primitive(array.U32, false), codes)
	if err != nil {
		t.Fatalf("build encoded: %v", err)
	}
	zz := New(array.Primitive(array.I32, false), encoded)
	for i, w := range signed {
		sc, err := zz.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Int(); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}
