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

package sparse

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func newTestSparse(t *testing.T) *Array {
	t.Helper()
	dt := array.Primitive(array.I32, true)
	scalars := []array.Scalar{
		array.IntScalar(array.I32, 33, true),
		array.IntScalar(array.I32, 44, true),
		array.IntScalar(array.I32, 55, true),
	}
	values, err := compute.BuildFromScalars(dt, scalars)
	if err != nil {
		t.Fatalf("build values: %v", err)
	}
	return New([]uint64{2, 9, 15}, values, 20, array.NullScalar(dt))
}

func TestSparseFilter(t *testing.T) {
	sp := newTestSparse(t)
	bools := make([]bool, 20)
	bools[2] = true
	m := array.NewMaskFromBools(bools)

	out, err := compute.Filter(sp, m)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("length = %d, want 1", out.Len())
	}
	sc, err := out.ScalarAt(0)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	got, ok := sc.Int()
	if !ok || got != 33 {
		t.Errorf("value = %v (ok=%v), want 33", got, ok)
	}
}

func TestSparseScalarAtFillsNull(t *testing.T) {
	sp := newTestSparse(t)
	sc, err := sp.ScalarAt(0)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if !sc.IsNull() {
		t.Errorf("row 0 should be fill (null)")
	}
	sc, err = sp.ScalarAt(9)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if got, _ := sc.Int(); got != 44 {
		t.Errorf("row 9 = %d, want 44", got)
	}
}

func TestSparseToCanonical(t *testing.T) {
	sp := newTestSparse(t)
	canon, err := sp.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	if canon.Len() != 20 {
		t.Fatalf("length = %d, want 20", canon.Len())
	}
	sc, _ := canon.ScalarAt(15)
	if got, _ := sc.Int(); got != 55 {
		t.Errorf("row 15 = %d, want 55", got)
	}
}
