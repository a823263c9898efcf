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

package bitpacked

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/internal/ints"
)

func pack(vals []uint64, bitWidth int) []byte {
	out := make([]byte, ints.BytesForBits(len(vals)*bitWidth))
	for i, v := range vals {
		for b := 0; b < bitWidth; b++ {
			if v&(1<<uint(b)) != 0 {
				ints.SetBit(out, i*bitWidth+b)
			}
		}
	}
	return out
}

func TestBitPackedScalarAtAndSlice(t *testing.T) {
	vals := []uint64{3, 1, 7, 0, 5}
	packed := pack(vals, 3)
	dt := array.Primitive(array.U8, false)
	bp := New(dt, packed, 3, len(vals), nil)

	for i, w := range vals {
		sc, err := bp.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Uint(); got != w {
			t.Errorf("row %d = %d, want %d", i, got, w)
		}
	}

	sliced, err := bp.Slice(1, 4)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	want := []uint64{1, 7, 0}
	for i, w := range want {
		sc, err := sliced.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if got, _ := sc.Uint(); got != w {
			t.Errorf("sliced row %d = %d, want %d", i, got, w)
		}
	}
}
