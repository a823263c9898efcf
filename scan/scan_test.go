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

package scan

import (
	"bytes"
	"context"
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/expr"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/segment"
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

func newChunkedLayout(t *testing.T, chunks [][]int64, withStats bool) (layout.Layout, *segment.Writer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w := segment.NewWriter(&buf, nil)
	cw := &layout.ChunkedWriter{
		NewInner: func() layout.Writer { return &layout.FlatWriter{Seg: w} },
		Seg:      w,
	}
	if withStats {
		cw.StatsFields = []array.Stat{array.StatMin, array.StatMax, array.StatNullCount}
	}
	for _, c := range chunks {
		if err := cw.Write(intArray(t, c)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	l, err := cw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return l, w, &buf
}

func readerFor(w *segment.Writer, buf *bytes.Buffer) *segment.Reader {
	src := &segment.ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	return segment.NewReader(w.Catalogue(), src, nil)
}

func statsWrapped(child *layout.Chunked) *layout.Stats {
	return &layout.Stats{
		Child:      child,
		BlockSize:  child.Children[0].RowCount(),
		StatsTable: child.Stats,
		Present:    []array.Stat{array.StatMin, array.StatMax, array.StatNullCount},
	}
}

func TestRowSplitsFromChunked(t *testing.T) {
	l, _, _ := newChunkedLayout(t, [][]int64{{1, 2, 3}, {4, 5}, {6, 7, 8, 9}}, false)
	ranges := RowSplits(l)
	want := []Range{{0, 3}, {3, 5}, {5, 9}}
	if len(ranges) != len(want) {
		t.Fatalf("got %v, want %v", ranges, want)
	}
	for i, r := range ranges {
		if r != want[i] {
			t.Errorf("range %d = %v, want %v", i, r, want[i])
		}
	}
}

func TestCanPruneSkipsNonMatchingBlock(t *testing.T) {
	chunked, w, buf := newChunkedLayout(t, [][]int64{{1, 2, 3}, {100, 101}}, true)
	c := chunked.(*layout.Chunked)
	stats := statsWrapped(c)
	r := readerFor(w, buf)

	filter := &expr.BinaryExpr{Op: expr.Gt, Lhs: &expr.Identity{}, Rhs: &expr.Literal{Value: array.IntScalar(array.I64, 50, false)}}

	pruned, err := CanPrune(context.Background(), stats, Range{0, 3}, filter, r)
	if err != nil {
		t.Fatalf("CanPrune: %v", err)
	}
	if !pruned {
		t.Errorf("expected block [0,3) (values 1..3) to be pruned for > 50")
	}

	pruned, err = CanPrune(context.Background(), stats, Range{3, 5}, filter, r)
	if err != nil {
		t.Fatalf("CanPrune: %v", err)
	}
	if pruned {
		t.Errorf("expected block [3,5) (values 100,101) to survive > 50")
	}
}

func TestStreamFiltersAndProjects(t *testing.T) {
	l, w, buf := newChunkedLayout(t, [][]int64{{1, 2, 3}, {10, 20, 30}}, false)
	r := readerFor(w, buf)

	filter := &expr.BinaryExpr{Op: expr.Gte, Lhs: &expr.Identity{}, Rhs: &expr.Literal{Value: array.IntScalar(array.I64, 10, false)}}
	opts := Options{Filter: filter}

	s, err := NewStream(context.Background(), l, r, opts, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	var got []int64
	for {
		out, ok, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		for i := 0; i < out.Len(); i++ {
			sc, err := out.ScalarAt(i)
			if err != nil {
				t.Fatalf("ScalarAt: %v", err)
			}
			v, _ := sc.Int()
			got = append(got, v)
		}
	}
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("row %d = %d, want %d", i, got[i], w)
		}
	}
}

func TestStreamHonorsRowRange(t *testing.T) {
	l, w, buf := newChunkedLayout(t, [][]int64{{1, 2, 3}, {4, 5, 6}}, false)
	r := readerFor(w, buf)

	opts := Options{RowRange: &Range{Lo: 2, Hi: 5}}
	s, err := NewStream(context.Background(), l, r, opts, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	var got []int64
	for {
		out, ok, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		for i := 0; i < out.Len(); i++ {
			sc, _ := out.ScalarAt(i)
			v, _ := sc.Int()
			got = append(got, v)
		}
	}
	want := []int64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("row %d = %d, want %d", i, got[i], w)
		}
	}
}
