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

package lattice

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

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

func TestFileWriteOpenScanRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteMagicPrefix(&buf); err != nil {
		t.Fatalf("WriteMagicPrefix: %v", err)
	}
	segW := segment.NewWriterAt(&buf, nil, uint64(buf.Len()))

	cw := &layout.ChunkedWriter{
		NewInner: func() layout.Writer { return &layout.FlatWriter{Seg: segW} },
		Seg:      segW,
	}
	chunks := [][]int64{{1, 2, 3}, {10, 20, 30}}
	for _, c := range chunks {
		if err := cw.Write(intArray(t, c)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	root, err := cw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	dtype := array.Primitive(array.I64, false)
	if err := WriteFooter(&buf, dtype, root, segW, []string{"lattice.flat"}, uuid.Nil); err != nil {
		t.Fatalf("WriteFooter: %v", err)
	}

	src := &segment.ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	f, err := Open(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.RowCount() != 6 {
		t.Fatalf("RowCount = %d, want 6", f.RowCount())
	}
	if !f.DType().Equal(dtype) {
		t.Fatalf("DType = %s, want %s", f.DType(), dtype)
	}
	if f.FileID() == uuid.Nil {
		t.Fatalf("expected a generated non-nil file id")
	}
	if len(f.EncodingContext()) != 1 || f.EncodingContext()[0] != "lattice.flat" {
		t.Fatalf("EncodingContext = %v", f.EncodingContext())
	}

	splits := f.Splits()
	if len(splits) != 2 {
		t.Fatalf("Splits = %v, want 2 ranges", splits)
	}

	filter := &expr.BinaryExpr{Op: expr.Gte, Lhs: &expr.Identity{}, Rhs: &expr.Literal{Value: array.IntScalar(array.I64, 10, false)}}
	s, err := f.Scan(context.Background(), filter, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
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
