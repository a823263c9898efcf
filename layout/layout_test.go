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

package layout

import (
	"bytes"
	"context"
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
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

func newTestSegWriter() (*segment.Writer, *bytes.Buffer) {
	var buf bytes.Buffer
	return segment.NewWriter(&buf, nil), &buf
}

func readerFor(w *segment.Writer, buf *bytes.Buffer) *segment.Reader {
	src := &segment.ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	return segment.NewReader(w.Catalogue(), src, nil)
}

func assertIntRows(t *testing.T, want []int64, got array.Array) {
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

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	vals := []int64{1, -2, 3, -4, 5}
	a := intArray(t, vals)
	data, err := SerializeArray(a)
	if err != nil {
		t.Fatalf("SerializeArray: %v", err)
	}
	out, err := DeserializeArray(a.DType(), a.Len(), data)
	if err != nil {
		t.Fatalf("DeserializeArray: %v", err)
	}
	assertIntRows(t, vals, out)
}

func TestSerializeDeserializeWithNulls(t *testing.T) {
	dt := array.Primitive(array.I64, true)
	vals := []array.Scalar{
		array.IntScalar(array.I64, 10, true),
		array.NullScalar(dt),
		array.IntScalar(array.I64, -10, true),
	}
	a, err := compute.BuildFromScalars(dt, vals)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := SerializeArray(a)
	if err != nil {
		t.Fatalf("SerializeArray: %v", err)
	}
	out, err := DeserializeArray(dt, a.Len(), data)
	if err != nil {
		t.Fatalf("DeserializeArray: %v", err)
	}
	sc, err := out.ScalarAt(1)
	if err != nil {
		t.Fatalf("ScalarAt(1): %v", err)
	}
	if !sc.IsNull() {
		t.Fatalf("row 1 should be null, got %v", sc)
	}
}

func TestFlatWriterSingleChunk(t *testing.T) {
	w, buf := newTestSegWriter()
	fw := &FlatWriter{Seg: w}
	vals := []int64{1, 2, 3, 4}
	if err := fw.Write(intArray(t, vals)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	l, err := fw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	flat, ok := l.(*Flat)
	if !ok {
		t.Fatalf("expected *Flat for a single chunk, got %T", l)
	}
	if err := flat.Validate(w.Catalogue()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := Materialize(context.Background(), l, readerFor(w, buf))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	assertIntRows(t, vals, out)
}

func TestFlatWriterMultiChunkProducesChunked(t *testing.T) {
	w, buf := newTestSegWriter()
	fw := &FlatWriter{Seg: w}
	chunks := [][]int64{{1, 2}, {3, 4, 5}, {6}}
	for _, c := range chunks {
		if err := fw.Write(intArray(t, c)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	l, err := fw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	chunked, ok := l.(*Chunked)
	if !ok {
		t.Fatalf("expected *Chunked for multiple chunks, got %T", l)
	}
	if chunked.RowCount() != 6 {
		t.Fatalf("row count = %d, want 6", chunked.RowCount())
	}
	if err := chunked.Validate(w.Catalogue()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := Materialize(context.Background(), l, readerFor(w, buf))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	assertIntRows(t, []int64{1, 2, 3, 4, 5, 6}, out)
}

func TestChunkedWriterWithStats(t *testing.T) {
	w, buf := newTestSegWriter()
	cw := &ChunkedWriter{
		NewInner:    func() Writer { return &FlatWriter{Seg: w} },
		StatsFields: []array.Stat{array.StatMin, array.StatMax, array.StatNullCount},
		Seg:         w,
	}
	chunks := [][]int64{{5, 1, 3}, {100, 50}, {-1, -2, -3, -4}}
	for _, c := range chunks {
		if err := cw.Write(intArray(t, c)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	l, err := cw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	chunkedL := l.(*Chunked)
	if chunkedL.Stats == nil {
		t.Fatalf("expected a stats sibling")
	}
	if err := chunkedL.Validate(w.Catalogue()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	r := readerFor(w, buf)
	statsTable, err := MaterializeStats(context.Background(), &Stats{Child: chunkedL, BlockSize: 1, StatsTable: chunkedL.Stats}, r)
	if err != nil {
		t.Fatalf("MaterializeStats: %v", err)
	}
	minCol, ok, err := StatColumn(statsTable, array.StatMin)
	if err != nil {
		t.Fatalf("StatColumn: %v", err)
	}
	if !ok {
		t.Fatalf("expected a min column")
	}
	wantMin := []int64{1, 50, -4}
	assertIntRows(t, wantMin, minCol)
}

func TestStructWriterRoundTrip(t *testing.T) {
	w, buf := newTestSegWriter()
	dt := array.Struct([]array.Field{
		{Name: "a", Type: array.Primitive(array.I64, false)},
		{Name: "b", Type: array.Primitive(array.I64, false)},
	}, false)
	aVals := []array.Scalar{array.IntScalar(array.I64, 1, false), array.IntScalar(array.I64, 2, false)}
	bVals := []array.Scalar{array.IntScalar(array.I64, 10, false), array.IntScalar(array.I64, 20, false)}
	aArr, _ := compute.BuildFromScalars(array.Primitive(array.I64, false), aVals)
	bArr, _ := compute.BuildFromScalars(array.Primitive(array.I64, false), bVals)
	structArr := array.NewStructArray(dt, 2, []array.Array{aArr, bArr}, array.NonNullableValidity())

	sw := &StructWriter{NewField: func(string) Writer { return &FlatWriter{Seg: w} }}
	if err := sw.Write(structArr); err != nil {
		t.Fatalf("Write: %v", err)
	}
	l, err := sw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := l.Validate(w.Catalogue()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := Materialize(context.Background(), l, readerFor(w, buf))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	fa := out.(interface {
		Field(name string) (array.Array, bool)
	})
	fa_, ok := fa.Field("a")
	if !ok {
		t.Fatalf("missing field a")
	}
	assertIntRows(t, []int64{1, 2}, fa_)
}

func TestDictWriterRoundTrip(t *testing.T) {
	w, buf := newTestSegWriter()
	vals := []array.Scalar{
		array.StringScalar("red", false),
		array.StringScalar("green", false),
		array.StringScalar("red", false),
		array.StringScalar("blue", false),
	}
	a, err := compute.BuildFromScalars(array.Utf8(false), vals)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	dw := &DictWriter{Seg: w}
	if err := dw.Write(a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	l, err := dw.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, ok := l.(*Dict); !ok {
		t.Fatalf("expected *Dict, got %T", l)
	}
	if err := l.Validate(w.Catalogue()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := Materialize(context.Background(), l, readerFor(w, buf))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	canon, err := out.ToCanonical()
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	want := []string{"red", "green", "red", "blue"}
	for i, w := range want {
		sc, err := canon.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		s, _ := sc.String()
		if s != w {
			t.Errorf("row %d = %q, want %q", i, s, w)
		}
	}
}

func TestRepartitionWriterFixedBlocks(t *testing.T) {
	w, buf := newTestSegWriter()
	var written [][]int64
	rw := &RepartitionWriter{
		Inner: writerFunc{
			write: func(a array.Array) error {
				row := make([]int64, a.Len())
				for i := range row {
					sc, _ := a.ScalarAt(i)
					v, _ := sc.Int()
					row[i] = v
				}
				written = append(written, row)
				return nil
			},
			finish: func() (Layout, error) { return &Flat{Rows: 0}, nil },
		},
		BlockLenMultiple: 3,
	}
	for _, chunk := range [][]int64{{1, 2}, {3, 4, 5, 6}, {7}} {
		if err := rw.Write(intArray(t, chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if _, err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// 7 rows at BlockLenMultiple 3: two full blocks, then Finish flushes
	// the 1-row remainder.
	wantSizes := []int{3, 3, 1}
	if len(written) != len(wantSizes) {
		t.Fatalf("expected %d repartitioned blocks, got %d: %v", len(wantSizes), len(written), written)
	}
	for i, block := range written {
		if len(block) != wantSizes[i] {
			t.Errorf("block %d has %d rows, want %d: %v", i, len(block), wantSizes[i], block)
		}
	}
	_ = w
	_ = buf
}

// writerFunc adapts two closures to the Writer interface, for tests that
// only need to observe what RepartitionWriter forwards downstream.
type writerFunc struct {
	write  func(array.Array) error
	finish func() (Layout, error)
}

func (w writerFunc) Write(a array.Array) error { return w.write(a) }
func (w writerFunc) Finish() (Layout, error)   { return w.finish() }
