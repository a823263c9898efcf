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

package roaring

import (
	"testing"

	"github.com/RoaringBitmap/roaring"

	"github.com/latticedb/lattice/array"
)

func TestBoolArrayScalarAt(t *testing.T) {
	bm := roaring.New()
	bm.AddMany([]uint32{1, 3, 4})
	a := NewBool(bm, 6)
	want := []bool{false, true, false, true, true, false}
	for i, w := range want {
		sc, err := a.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
	if n, ok := a.TrueCountKernel(); !ok || n != 3 {
		t.Errorf("TrueCountKernel = %d,%v want 3,true", n, ok)
	}
}

func TestBoolArrayFilterKernel(t *testing.T) {
	bm := roaring.New()
	bm.AddMany([]uint32{1, 3, 4})
	a := NewBool(bm, 6)
	// select rows 0,1,3,5 -> bitmap contains 1 and 3 -> output ranks 1 and 2
	m := array.NewMaskFromBools([]bool{true, true, false, true, false, true})
	out, err := a.FilterKernel(m)
	if err != nil {
		t.Fatalf("FilterKernel: %v", err)
	}
	bo, ok := out.(*BoolArray)
	if !ok {
		t.Fatalf("expected *BoolArray, got %T", out)
	}
	if bo.Len() != 4 {
		t.Fatalf("len = %d, want 4", bo.Len())
	}
	want := []bool{false, true, true, false}
	for i, w := range want {
		sc, _ := bo.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestIntArrayMinMaxAndSorted(t *testing.T) {
	bm := roaring.New()
	bm.AddMany([]uint32{5, 10, 42, 7})
	a := NewInt(array.Primitive(array.U32, false), bm)
	if a.Len() != 4 {
		t.Fatalf("len = %d, want 4", a.Len())
	}
	min, max, ok, err := a.MinMaxKernel()
	if err != nil || !ok {
		t.Fatalf("MinMaxKernel: ok=%v err=%v", ok, err)
	}
	mn, _ := min.Uint()
	mx, _ := max.Uint()
	if mn != 5 || mx != 42 {
		t.Errorf("min=%d max=%d, want 5,42", mn, mx)
	}
	p, ok := a.IsSortedKernel(false)
	sorted, _ := p.Value()
	if !ok || sorted != true {
		t.Errorf("IsSortedKernel = %v,%v want true,true", p, ok)
	}
	// ascending iteration order: 5,7,10,42
	want := []uint64{5, 7, 10, 42}
	for i, w := range want {
		sc, err := a.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Uint()
		if got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}
}
