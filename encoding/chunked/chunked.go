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

// Package chunked implements the Chunked encoding of spec §4.3.2: a
// sequence of same-dtype child arrays concatenated logically. Chunked
// arrays arise from streaming writers (one chunk per write call) and from
// the layout package's per-block segmentation.
package chunked

import (
	"sort"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.chunked"

// Array concatenates Chunks logically. offsets[i] is the first row of
// chunk i in the logical row space; offsets[len(chunks)] is the total
// length.
type Array struct {
	dtype   array.DType
	chunks  []array.Array
	offsets []int
	stats   *array.Stats
}

// New builds a Chunked array over chunks, which must all share the same
// dtype.
func New(chunks []array.Array) *Array {
	offsets := make([]int, len(chunks)+1)
	for i, c := range chunks {
		offsets[i+1] = offsets[i] + c.Len()
	}
	var dtype array.DType
	if len(chunks) > 0 {
		dtype = chunks[0].DType()
	}
	return &Array{dtype: dtype, chunks: chunks, offsets: offsets, stats: array.NewStats()}
}

func (a *Array) Len() int           { return a.offsets[len(a.offsets)-1] }
func (a *Array) DType() array.DType { return a.dtype }
func (a *Array) EncodingID() string { return EncodingID }
func (a *Array) Children() []array.Array {
	return a.chunks
}
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }

func (a *Array) findChunk(i int) int {
	return sort.Search(len(a.chunks), func(j int) bool { return a.offsets[j+1] > i })
}

func (a *Array) Validity() array.Validity {
	if !a.dtype.Nullable() {
		return array.NonNullableValidity()
	}
	n := a.Len()
	bools := make([]bool, n)
	anyInvalid := false
	for ci, c := range a.chunks {
		base := a.offsets[ci]
		v := c.Validity()
		for i := 0; i < c.Len(); i++ {
			valid := v.IsValid(i)
			bools[base+i] = valid
			if !valid {
				anyInvalid = true
			}
		}
	}
	if !anyInvalid {
		return array.AllValidValidity()
	}
	return array.ArrayValidity(array.NewBoolArrayFromBools(bools, array.NonNullableValidity()))
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, n).WithIndex(i)
	}
	ci := a.findChunk(i)
	return a.chunks[ci].ScalarAt(i - a.offsets[ci])
}

// SliceKernel implements compute.Slicer: a slice across a chunk boundary
// keeps multiple (trimmed) chunks rather than flattening, so that a
// subsequent filter/take can still use per-chunk fast paths (spec §8
// concrete scenario 6, "chunked slice across boundary").
func (a *Array) SliceKernel(start, stop int) (array.Array, error) { return a.Slice(start, stop) }

func (a *Array) Slice(start, stop int) (array.Array, error) {
	n := a.Len()
	if start < 0 || stop < start || stop > n {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, n)
	}
	if start == stop {
		return New(nil), nil
	}
	firstCi := a.findChunk(start)
	lastCi := a.findChunk(stop - 1)
	newChunks := make([]array.Array, 0, lastCi-firstCi+1)
	for ci := firstCi; ci <= lastCi; ci++ {
		lo := 0
		if ci == firstCi {
			lo = start - a.offsets[ci]
		}
		hi := a.chunks[ci].Len()
		if ci == lastCi {
			hi = stop - a.offsets[ci]
		}
		sub, err := a.chunks[ci].Slice(lo, hi)
		if err != nil {
			return nil, err
		}
		newChunks = append(newChunks, sub)
	}
	return New(newChunks), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.Len()
	vals := make([]array.Scalar, 0, n)
	for _, c := range a.chunks {
		for i := 0; i < c.Len(); i++ {
			sc, err := c.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			vals = append(vals, sc)
		}
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// FilterKernel implements compute.Filterer by filtering each chunk with
// its own mask slice and re-chunking the results, dispatching each chunk
// through compute.Filter so that child encodings keep their own fast
// paths (e.g. a Chunked<Constant> filters each constant chunk in O(1)).
func (a *Array) FilterKernel(m array.Mask) (array.Array, error) {
	newChunks := make([]array.Array, 0, len(a.chunks))
	for ci, c := range a.chunks {
		sub := m.Slice(a.offsets[ci], a.offsets[ci+1])
		out, err := compute.Filter(c, sub)
		if err != nil {
			return nil, err
		}
		if out.Len() > 0 {
			newChunks = append(newChunks, out)
		}
	}
	return New(newChunks), nil
}

// SumKernel implements compute.Summer by summing each chunk and combining,
// avoiding a full canonicalization (spec §8's "integer sum invariance"
// universal property: sum(whole) must equal sum(chunk sums)).
func (a *Array) SumKernel() (array.Scalar, bool, error) {
	if a.dtype.Kind() != array.KindPrimitive {
		return array.Scalar{}, false, nil
	}
	pt := a.dtype.PType()
	anyValid := false
	// For integer dtypes, compute.Sum returns null both for "chunk is
	// all-null" and for "chunk's own sum overflowed" (spec §4.2), and the
	// two are indistinguishable here; conservatively treat either as an
	// overflow of the combined sum rather than silently skipping the
	// chunk, so combining never under-reports an overflow.
	overflow := false
	var fAcc float64
	var iAcc int64
	var uAcc uint64
	for _, c := range a.chunks {
		sc, err := compute.Sum(c)
		if err != nil {
			return array.Scalar{}, true, err
		}
		if sc.IsNull() {
			if !pt.IsFloat() {
				overflow = true
			}
			continue
		}
		anyValid = true
		switch {
		case pt.IsFloat():
			f, _ := sc.Float()
			fAcc += f
		case pt.IsSignedInt():
			v, _ := sc.Int()
			next := iAcc + v
			if (v > 0 && next < iAcc) || (v < 0 && next > iAcc) {
				overflow = true
			}
			iAcc = next
		default:
			v, _ := sc.Uint()
			next := uAcc + v
			if next < uAcc {
				overflow = true
			}
			uAcc = next
		}
	}
	if !anyValid && !overflow {
		return array.NullScalar(a.dtype.WithNullable(true)), true, nil
	}
	switch {
	case pt.IsFloat():
		return array.FloatScalar(array.F64, fAcc, true), true, nil
	case pt.IsSignedInt():
		if overflow {
			return array.NullScalar(array.Primitive(array.I64, true)), true, nil
		}
		return array.IntScalar(array.I64, iAcc, true), true, nil
	default:
		if overflow {
			return array.NullScalar(array.Primitive(array.U64, true)), true, nil
		}
		return array.UintScalar(array.U64, uAcc, true), true, nil
	}
}
