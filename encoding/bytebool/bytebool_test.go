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

package bytebool

import (
	"testing"

	"github.com/latticedb/lattice/array"
)

func TestByteBoolScalarAtAndSlice(t *testing.T) {
	bytes := []byte{0, 1, 1, 0, 1}
	validity := array.ArrayValidity(array.NewBoolArrayFromBools([]bool{true, true, false, true, true}, array.NonNullableValidity()))
	a := New(bytes, validity)

	sc, err := a.ScalarAt(2)
	if err != nil {
		t.Fatalf("ScalarAt(2): %v", err)
	}
	if !sc.IsNull() {
		t.Errorf("row 2 should be null")
	}

	sc, err = a.ScalarAt(1)
	if err != nil {
		t.Fatalf("ScalarAt(1): %v", err)
	}
	if got, _ := sc.Bool(); !got {
		t.Errorf("row 1 = %v, want true", got)
	}

	sl, err := a.Slice(1, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	sb := sl.(*Array)
	if sb.Len() != 3 {
		t.Fatalf("slice len = %d, want 3", sb.Len())
	}
}

func TestByteBoolToCanonical(t *testing.T) {
	bytes := []byte{1, 0, 1}
	a := New(bytes, array.NonNullableValidity())
	c, err := a.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	ba, ok := c.(*array.BoolArray)
	if !ok {
		t.Fatalf("expected *array.BoolArray, got %T", c)
	}
	want := []bool{true, false, true}
	for i, w := range want {
		sc, err := ba.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}
