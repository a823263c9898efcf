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

package runendbool

import (
	"testing"

	"github.com/latticedb/lattice/array"
)

// false,false,true,true,true,false,false,true -> ends [2,5,7,8], startsTrue=false
func buildSample() *Array {
	return New([]uint64{2, 5, 7, 8}, false)
}

func TestRunEndBoolScalarAt(t *testing.T) {
	a := buildSample()
	want := []bool{false, false, true, true, true, false, false, true}
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
}

func TestRunEndBoolToCanonical(t *testing.T) {
	a := buildSample()
	c, err := a.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	ba := c.(*array.BoolArray)
	want := []bool{false, false, true, true, true, false, false, true}
	for i, w := range want {
		sc, _ := ba.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestRunEndBoolFilterKernel(t *testing.T) {
	a := buildSample()
	// select rows 1,2,4,5,7 -> values: false,true,true,false,true
	m := array.NewMaskFromBools([]bool{false, true, true, false, true, true, false, true})
	out, err := a.FilterKernel(m)
	if err != nil {
		t.Fatalf("FilterKernel: %v", err)
	}
	rb := out.(*Array)
	if rb.Len() != 5 {
		t.Fatalf("len = %d, want 5", rb.Len())
	}
	want := []bool{false, true, true, false, true}
	for i, w := range want {
		sc, _ := rb.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestRunEndBoolSlice(t *testing.T) {
	a := buildSample()
	sl, err := a.Slice(3, 8)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	rb := sl.(*Array)
	want := []bool{true, true, false, false, true}
	for i, w := range want {
		sc, _ := rb.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestRunEndBoolIsSorted(t *testing.T) {
	sorted := New([]uint64{3, 8}, false) // false,false,false,true,true,true,true,true
	p, ok := sorted.IsSortedKernel(false)
	v, _ := p.Value()
	if !ok || v != true {
		t.Errorf("expected sorted=true, got %v,%v", p, ok)
	}
	notSorted := New([]uint64{2, 5, 7, 8}, false)
	p, ok = notSorted.IsSortedKernel(false)
	v, _ = p.Value()
	if !ok || v != false {
		t.Errorf("expected sorted=false, got %v,%v", p, ok)
	}
}
