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

package dict

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func newTestDict(t *testing.T) *Array {
	t.Helper()
	codeScalars := []array.Scalar{
		array.UintScalar(array.U8, 0, false),
		array.UintScalar(array.U8, 1, false),
		array.UintScalar(array.U8, 2, false),
		array.UintScalar(array.U8, 2, false),
		array.UintScalar(array.U8, 1, false),
		array.UintScalar(array.U8, 0, false),
	}
	codes, err := compute.BuildFromScalars(array.Primitive(array.U8, false), codeScalars)
	if err != nil {
		t.Fatalf("build codes: %v", err)
	}
	valueScalars := []array.Scalar{
		array.StringScalar("a", false),
		array.StringScalar("b", false),
		array.StringScalar("c", false),
	}
	values, err := compute.BuildFromScalars(array.Utf8(false), valueScalars)
	if err != nil {
		t.Fatalf("build values: %v", err)
	}
	return New(codes, values)
}

func TestDictCompareScalarEq(t *testing.T) {
	d := newTestDict(t)
	out, err := compute.CompareScalar(d, compute.Eq, array.StringScalar("c", false))
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	want := []bool{false, false, true, true, false, false}
	if out.Len() != len(want) {
		t.Fatalf("length = %d, want %d", out.Len(), len(want))
	}
	for i, w := range want {
		sc, err := out.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestDictToCanonical(t *testing.T) {
	d := newTestDict(t)
	canon, err := d.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	want := []string{"a", "b", "c", "c", "b", "a"}
	for i, w := range want {
		sc, err := canon.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.String()
		if got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}
