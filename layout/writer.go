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
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/segment"
)

// Writer consumes a sequence of same-dtype arrays (chunks) and produces a
// Layout plus the segment writes backing it (spec §4.8). Writers are
// composable: ChunkedWriter delegates each chunk to an inner Writer,
// StructWriter splits fields to per-field inner writers, StatsWriter wraps
// another writer and emits per-block stats alongside it.
type Writer interface {
	Write(a array.Array) error
	Finish() (Layout, error)
}

// FlatWriter is the simplest Writer: every array handed to Write becomes
// its own segment and its own Flat leaf. Finish wraps more than one leaf in
// a Chunked node; with exactly one leaf it is returned directly.
type FlatWriter struct {
	Seg       *segment.Writer
	Alignment uint16 // defaults to 1 if zero

	leaves []Layout
}

func (w *FlatWriter) Write(a array.Array) error {
	align := w.Alignment
	if align == 0 {
		align = 1
	}
	data, err := SerializeArray(a)
	if err != nil {
		return err
	}
	id, err := w.Seg.WriteSegment(data, align)
	if err != nil {
		return err
	}
	w.leaves = append(w.leaves, &Flat{Segment: id, Rows: a.Len(), Dtype: a.DType()})
	return nil
}

func (w *FlatWriter) Finish() (Layout, error) {
	switch len(w.leaves) {
	case 0:
		return nil, array.NewError(array.InvalidArgument, "flat writer: no chunks written")
	case 1:
		return w.leaves[0], nil
	default:
		return &Chunked{Children: w.leaves}, nil
	}
}

// ChunkedWriter composes an inner strategy per chunk: each call to Write
// hands the chunk to a freshly built inner Writer (via NewInner), and the
// resulting child layout becomes one element of the produced Chunked
// layout's Children (spec §4.8's "chunked writer delegates each chunk to
// an inner strategy").
type ChunkedWriter struct {
	NewInner func() Writer

	// StatsFields, if non-empty, causes Finish to attach a per-chunk stats
	// sibling covering these statistics (spec §4.7's Chunked "optional
	// child holding a stats table"). Seg must be set whenever StatsFields
	// is non-empty, since the stats sibling needs somewhere to write its
	// own segment.
	StatsFields []array.Stat
	Seg         *segment.Writer

	children []Layout
	chunks   []array.Array // kept only when StatsFields is set
}

func (w *ChunkedWriter) Write(a array.Array) error {
	inner := w.NewInner()
	if err := inner.Write(a); err != nil {
		return err
	}
	child, err := inner.Finish()
	if err != nil {
		return err
	}
	w.children = append(w.children, child)
	if len(w.StatsFields) > 0 {
		w.chunks = append(w.chunks, a)
	}
	return nil
}

func (w *ChunkedWriter) Finish() (Layout, error) {
	if len(w.children) == 0 {
		return nil, array.NewError(array.InvalidArgument, "chunked writer: no chunks written")
	}
	out := &Chunked{Children: w.children}
	if len(w.StatsFields) > 0 {
		if w.Seg == nil {
			return nil, array.NewError(array.InvalidArgument, "chunked writer: Seg must be set when StatsFields is non-empty")
		}
		statsArr, err := buildStatsTable(w.chunks, w.StatsFields)
		if err != nil {
			return nil, err
		}
		statsWriter := &FlatWriter{Seg: w.Seg}
		if err := statsWriter.Write(statsArr); err != nil {
			return nil, err
		}
		statsLayout, err := statsWriter.Finish()
		if err != nil {
			return nil, err
		}
		out.Stats = statsLayout
	}
	return out, nil
}

func buildStatsTable(chunks []array.Array, fields []array.Stat) (array.Array, error) {
	structFields := make([]array.Field, 0, len(fields))
	colVals := make([][]array.Scalar, len(fields))
	for fi, st := range fields {
		dt := statColumnDType(st, chunks)
		structFields = append(structFields, array.Field{Name: st.String(), Type: dt})
		colVals[fi] = make([]array.Scalar, len(chunks))
	}
	for ci, chunk := range chunks {
		row, err := computeChunkStats(chunk, fields)
		if err != nil {
			return nil, err
		}
		for fi := range fields {
			colVals[fi][ci] = row[fi]
		}
	}
	dt := array.Struct(structFields, false)
	children := make([]array.Array, len(fields))
	for fi, f := range structFields {
		col, err := compute.BuildFromScalars(f.Type, colVals[fi])
		if err != nil {
			return nil, err
		}
		children[fi] = col
	}
	return array.NewStructArray(dt, len(chunks), children, array.NonNullableValidity()), nil
}

func statColumnDType(st array.Stat, chunks []array.Array) array.DType {
	switch st {
	case array.StatMin, array.StatMax:
		if len(chunks) > 0 {
			return chunks[0].DType().WithNullable(true)
		}
		return array.Null()
	case array.StatNullCount, array.StatTrueCount, array.StatRunCount:
		return array.Primitive(array.I64, false)
	case array.StatIsSorted, array.StatIsStrictSorted, array.StatIsConstant:
		return array.Bool(false)
	default:
		return array.Primitive(array.I64, true)
	}
}

func computeChunkStats(a array.Array, fields []array.Stat) ([]array.Scalar, error) {
	out := make([]array.Scalar, len(fields))
	var min, max array.Scalar
	var haveMinMax, computedMinMax bool
	for i, st := range fields {
		switch st {
		case array.StatMin, array.StatMax:
			if !computedMinMax {
				var err error
				var ok bool
				min, max, ok, err = compute.MinMax(a)
				if err != nil {
					return nil, err
				}
				haveMinMax = ok
				computedMinMax = true
			}
			if !haveMinMax {
				out[i] = array.NullScalar(a.DType().WithNullable(true))
			} else if st == array.StatMin {
				out[i] = min
			} else {
				out[i] = max
			}
		case array.StatNullCount:
			nc, _ := a.Validity().NullCount(a.Len()).Value()
			n, _ := nc.(int)
			out[i] = array.IntScalar(array.I64, int64(n), false)
		default:
			out[i] = array.NullScalar(array.Primitive(array.I64, true))
		}
	}
	return out, nil
}

// StructWriter splits a Struct-dtype chunk across one inner Writer per
// field (spec §4.8's "struct writer splits fields to per-field inner
// writers").
type StructWriter struct {
	NewField func(fieldName string) Writer

	dtype    array.DType
	fieldW   map[string]Writer
	order    []string
	rowCount int
}

func (w *StructWriter) Write(a array.Array) error {
	if a.DType().Kind() != array.KindStruct {
		return array.NewError(array.InvalidArgument, "struct writer requires struct input, got %s", a.DType()).WithDType(a.DType())
	}
	if w.fieldW == nil {
		w.fieldW = make(map[string]Writer, len(a.DType().Fields()))
		w.dtype = a.DType()
	}
	fa, ok := a.(interface {
		Field(name string) (array.Array, bool)
	})
	if !ok {
		c, err := a.ToCanonical()
		if err != nil {
			return err
		}
		fa, ok = c.(interface {
			Field(name string) (array.Array, bool)
		})
		if !ok {
			return array.NewError(array.InvalidArgument, "struct writer: canonical form has no field accessor")
		}
	}
	for _, f := range w.dtype.Fields() {
		fv, ok2 := fa.Field(f.Name)
		if !ok2 {
			return array.NewError(array.InvalidArgument, "struct writer: missing field %q", f.Name).WithDType(w.dtype)
		}
		fw, ok3 := w.fieldW[f.Name]
		if !ok3 {
			fw = w.NewField(f.Name)
			w.fieldW[f.Name] = fw
			w.order = append(w.order, f.Name)
		}
		if err := fw.Write(fv); err != nil {
			return err
		}
	}
	w.rowCount += a.Len()
	return nil
}

func (w *StructWriter) Finish() (Layout, error) {
	fields := make([]Layout, len(w.order))
	for i, name := range w.order {
		l, err := w.fieldW[name].Finish()
		if err != nil {
			return nil, err
		}
		fields[i] = l
	}
	return &Struct{Dtype: w.dtype, Fields: fields, Rows: w.rowCount}, nil
}

// StatsWriter wraps an inner Writer, accumulating BlockSize-row blocks of
// the logical input and emitting one stats row per block alongside the
// inner layout (spec §4.7's Stats node).
type StatsWriter struct {
	Inner     Writer
	Seg       *segment.Writer
	BlockSize int
	Fields    []array.Stat

	buffered []array.Array
	pending  int
	blocks   []array.Array
}

func (w *StatsWriter) Write(a array.Array) error {
	if err := w.Inner.Write(a); err != nil {
		return err
	}
	w.buffered = append(w.buffered, a)
	w.pending += a.Len()
	for w.pending >= w.BlockSize {
		block, rest, err := splitBuffered(w.buffered, w.BlockSize)
		if err != nil {
			return err
		}
		w.blocks = append(w.blocks, block)
		w.buffered = rest
		w.pending -= w.BlockSize
	}
	return nil
}

func splitBuffered(bufs []array.Array, n int) (block array.Array, rest []array.Array, err error) {
	var rows []array.Scalar
	var dt array.DType
	idx := 0
	for idx < len(bufs) && len(rows) < n {
		a := bufs[idx]
		dt = a.DType()
		for i := 0; i < a.Len() && len(rows) < n; i++ {
			sc, e := a.ScalarAt(i)
			if e != nil {
				return nil, nil, e
			}
			rows = append(rows, sc)
		}
		idx++
	}
	block, err = compute.BuildFromScalars(dt, rows)
	if err != nil {
		return nil, nil, err
	}
	// rebuild rest from any leftover tail of the last consumed array
	var used int
	for _, a := range bufs[:idx] {
		used += a.Len()
	}
	leftover := used - n
	if leftover <= 0 {
		return block, bufs[idx:], nil
	}
	last := bufs[idx-1]
	tail, err := last.Slice(last.Len()-leftover, last.Len())
	if err != nil {
		return nil, nil, err
	}
	rest = append([]array.Array{tail}, bufs[idx:]...)
	return block, rest, nil
}

func (w *StatsWriter) Finish() (Layout, error) {
	if w.pending > 0 {
		block, _, err := splitBuffered(w.buffered, w.pending)
		if err != nil {
			return nil, err
		}
		w.blocks = append(w.blocks, block)
	}
	child, err := w.Inner.Finish()
	if err != nil {
		return nil, err
	}
	statsArr, err := buildStatsTable(w.blocks, w.Fields)
	if err != nil {
		return nil, err
	}
	sw := &FlatWriter{Seg: w.Seg}
	if err := sw.Write(statsArr); err != nil {
		return nil, err
	}
	statsLayout, err := sw.Finish()
	if err != nil {
		return nil, err
	}
	return &Stats{Child: child, BlockSize: w.BlockSize, StatsTable: statsLayout, Present: w.Fields}, nil
}

// RepartitionWriter collects chunks and re-emits them to Inner at a fixed
// BlockLenMultiple row count and a minimum BlockSizeBytes, buffering
// under-sized inputs and splitting oversized ones (spec §4.8).
type RepartitionWriter struct {
	Inner           Writer
	BlockLenMultiple int
	BlockSizeBytes   int64

	buffered []array.Array
	pending  int
}

func (w *RepartitionWriter) Write(a array.Array) error {
	w.buffered = append(w.buffered, a)
	w.pending += a.Len()
	for w.readyToFlush() {
		block, rest, err := splitBuffered(w.buffered, w.BlockLenMultiple)
		if err != nil {
			return err
		}
		if err := w.Inner.Write(block); err != nil {
			return err
		}
		w.buffered = rest
		w.pending -= w.BlockLenMultiple
	}
	return nil
}

func (w *RepartitionWriter) readyToFlush() bool {
	if w.BlockLenMultiple <= 0 {
		return false
	}
	if w.pending < w.BlockLenMultiple {
		return false
	}
	if w.BlockSizeBytes <= 0 {
		return true
	}
	var bytes int64
	for _, a := range w.buffered {
		bytes += estimateBytes(a)
	}
	return bytes >= w.BlockSizeBytes
}

func estimateBytes(a array.Array) int64 {
	var n int64
	for _, b := range a.Buffers() {
		if b != nil {
			n += int64(len(b.Bytes()))
		}
	}
	for _, c := range a.Children() {
		n += estimateBytes(c)
	}
	return n
}

func (w *RepartitionWriter) Finish() (Layout, error) {
	if w.pending > 0 {
		block, _, err := splitBuffered(w.buffered, w.pending)
		if err != nil {
			return nil, err
		}
		if err := w.Inner.Write(block); err != nil {
			return nil, err
		}
	}
	return w.Inner.Finish()
}

// DictWriter builds a Dict layout from each chunk independently: distinct
// values become the Values child, per-row positions the Codes child (spec
// §4.7's Dict node), following the same dedup-by-scalar-equality approach
// as sampling.DictCandidate.
type DictWriter struct {
	Seg *segment.Writer

	layouts []Layout
}

func (w *DictWriter) Write(a array.Array) error {
	n := a.Len()
	var distinct []array.Scalar
	codes := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			return err
		}
		if v.IsNull() {
			codes[i] = array.NullScalar(array.Primitive(array.I32, true))
			continue
		}
		pos := -1
		for j, d := range distinct {
			if c, ok := d.Compare(v); ok && c == 0 {
				pos = j
				break
			}
		}
		if pos < 0 {
			pos = len(distinct)
			distinct = append(distinct, v)
		}
		codes[i] = array.IntScalar(array.I32, int64(pos), true)
	}
	codesArr, err := compute.BuildFromScalars(array.Primitive(array.I32, true), codes)
	if err != nil {
		return err
	}
	valuesArr, err := compute.BuildFromScalars(a.DType().WithNullable(false), distinct)
	if err != nil {
		return err
	}
	codesW := &FlatWriter{Seg: w.Seg}
	if err := codesW.Write(codesArr); err != nil {
		return err
	}
	codesLayout, err := codesW.Finish()
	if err != nil {
		return err
	}
	valuesW := &FlatWriter{Seg: w.Seg}
	if err := valuesW.Write(valuesArr); err != nil {
		return err
	}
	valuesLayout, err := valuesW.Finish()
	if err != nil {
		return err
	}
	w.layouts = append(w.layouts, &Dict{Values: valuesLayout, Codes: codesLayout})
	return nil
}

func (w *DictWriter) Finish() (Layout, error) {
	switch len(w.layouts) {
	case 0:
		return nil, array.NewError(array.InvalidArgument, "dict writer: no chunks written")
	case 1:
		return w.layouts[0], nil
	default:
		return &Chunked{Children: w.layouts}, nil
	}
}
