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

package sampling

import (
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func intArray(t *testing.T, vals []int64) array.Array {
	t.Helper()
	scalars := make([]array.Scalar, len(vals))
	for i, v := range vals {
		scalars[i] = array.IntScalar(array.I64, v, false)
	}
	a, err := compute.BuildFromScalars(array.Primitive(array.I64, false), scalars)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return a
}

func assertRoundTrip(t *testing.T, want []int64, got array.Array) {
	t.Helper()
	if got.Len() != len(want) {
		t.Fatalf("length mismatch: got %d want %d", got.Len(), len(want))
	}
	for i, w := range want {
		sc, err := got.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		v, ok := sc.Int()
		if !ok || v != w {
			t.Errorf("row %d = %v, want %d", i, sc, w)
		}
	}
}

func TestConstantCandidateCompressesUniformArray(t *testing.T) {
	vals := make([]int64, 200)
	for i := range vals {
		vals[i] = 7
	}
	a := intArray(t, vals)
	c := NewCompressor(nil, DefaultOptions())
	out, err := c.Compress(a)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.EncodingID() != "lattice.constant" {
		t.Fatalf("expected constant encoding, got %s", out.EncodingID())
	}
	canon, err := out.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	assertRoundTrip(t, vals, canon)
}

func TestCompressorIsDeterministic(t *testing.T) {
	vals := make([]int64, 500)
	for i := range vals {
		vals[i] = int64(i % 37)
	}
	a1 := intArray(t, vals)
	a2 := intArray(t, vals)
	opts := DefaultOptions()
	out1, err := NewCompressor(nil, opts).Compress(a1)
	if err != nil {
		t.Fatalf("Compress 1: %v", err)
	}
	out2, err := NewCompressor(nil, opts).Compress(a2)
	if err != nil {
		t.Fatalf("Compress 2: %v", err)
	}
	if out1.EncodingID() != out2.EncodingID() {
		t.Fatalf("nondeterministic top-level encoding: %s vs %s", out1.EncodingID(), out2.EncodingID())
	}
	c1, err := out1.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical 1: %v", err)
	}
	c2, err := out2.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical 2: %v", err)
	}
	for i := 0; i < len(vals); i++ {
		s1, _ := c1.ScalarAt(i)
		s2, _ := c2.ScalarAt(i)
		v1, _ := s1.Int()
		v2, _ := s2.Int()
		if v1 != v2 {
			t.Fatalf("row %d: %d vs %d", i, v1, v2)
		}
	}
}

func TestCompressAlwaysRoundTrips(t *testing.T) {
	vals := make([]int64, 300)
	for i := range vals {
		vals[i] = int64(1000 + (i*31)%97)
	}
	a := intArray(t, vals)
	out, err := NewCompressor(nil, DefaultOptions()).Compress(a)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	canon, err := out.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	assertRoundTrip(t, vals, canon)
}

func TestDowncaleIntegersNarrowsPType(t *testing.T) {
	vals := make([]array.Scalar, 10)
	for i := range vals {
		vals[i] = array.IntScalar(array.I64, int64(i), false)
	}
	a, err := compute.BuildFromScalars(array.Primitive(array.I64, false), vals)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := downscaleIntegers(a)
	if out.DType().PType() != array.I8 {
		t.Fatalf("expected downscale to I8, got %s", out.DType().PType())
	}
}

func TestDictCandidateOnLowCardinalityStrings(t *testing.T) {
	words := []string{"red", "green", "blue"}
	vals := make([]array.Scalar, 300)
	for i := range vals {
		vals[i] = array.StringScalar(words[i%3], false)
	}
	a, err := compute.BuildFromScalars(array.Utf8(false), vals)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := NewCompressor(nil, DefaultOptions()).Compress(a)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	canon, err := out.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	for i := 0; i < 300; i++ {
		sc, err := canon.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		s, _ := sc.String()
		if s != words[i%3] {
			t.Errorf("row %d = %q, want %q", i, s, words[i%3])
		}
	}
}

func TestMaxDepthStopsRecursion(t *testing.T) {
	vals := make([]int64, 128)
	for i := range vals {
		// Large enough that downscaleIntegers' own preprocessing step
		// cannot narrow away from I64, isolating MaxDepth as the only
		// thing under test.
		vals[i] = int64(i)*1_000_000_000 + 3_000_000_000_000
	}
	a := intArray(t, vals)
	opts := DefaultOptions()
	opts.MaxDepth = 0
	out, err := NewCompressor(nil, opts).Compress(a)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out != a {
		t.Fatalf("MaxDepth=0 should return the input array unchanged")
	}
}
