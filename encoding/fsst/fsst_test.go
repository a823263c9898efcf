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

package fsst

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func TestFSSTRoundTripWithTake(t *testing.T) {
	rows := [][]byte{
		[]byte("hello world"),
		[]byte("hello there"),
		[]byte("goodbye world"),
		[]byte("hello world"),
	}
	table := Train(rows)
	dt := array.Utf8(false)
	arr := Encode(dt, table, rows, array.NonNullableValidity())

	for i, w := range rows {
		sc, err := arr.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.String(); got != string(w) {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}

	idxScalars := []array.Scalar{
		array.IntScalar(array.I32, 3, false),
		array.IntScalar(array.I32, 0, false),
	}
	idx, err := compute.BuildFromScalars(array.Primitive(array.I32, false), idxScalars)
	if err != nil {
		t.Fatalf("build indices: %v", err)
	}
	taken, err := compute.Take(arr, idx, false)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	want := []string{"hello world", "hello world"}
	for i, w := range want {
		sc, err := taken.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.String(); got != w {
			t.Errorf("taken row %d = %q, want %q", i, got, w)
		}
	}
}
