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

package decimalbyteparts

import (
	"math/big"
	"testing"

	"github.com/latticedb/lattice/array"
)

func TestDecimalByteRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 12345, -12345, 1 << 40, -(1 << 40)}
	for _, c := range cases {
		v := big.NewInt(c)
		msb, lower := split(v)
		got := join(msb, lower)
		if got.Cmp(v) != 0 {
			t.Errorf("round trip %d: got %s", c, got.String())
		}
	}
}

func TestDecimalByteEncodeScalarAt(t *testing.T) {
	dt := array.Decimal(20, 2, false)
	values := []*big.Int{big.NewInt(100), big.NewInt(-250), big.NewInt(999999)}
	arr, err := Encode(dt, values, array.NonNullableValidity())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i, w := range values {
		sc, err := arr.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got, _ := sc.Decimal()
		if got.Cmp(w) != 0 {
			t.Errorf("row %d = %s, want %s", i, got.String(), w.String())
		}
	}
}
