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

// Package delta implements the Delta encoding of spec §4.3.9: values split
// into fixed-size blocks, each block storing a Base and a Deltas child
// array; a logical value is reconstructed by a block-local prefix sum
// starting from Base. BlockLen plays the role of the source's FastLanes
// block width; it need not be a SIMD-friendly constant here since the
// reconstruction loop is scalar.
package delta

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.delta"
const DefaultBlockLen = 1024

// Array holds one Base scalar per block and a single Deltas child array
// (signed) spanning every block concatenated. Deltas[i] is the signed
// step from the previous value within its block; the first row of each
// block starts fresh from that block's Base.
type Array struct {
	dtype    array.DType
	blockLen int
	bases    []array.Scalar
	deltas   array.Array // signed primitive, same width as dtype
	length   int
	stats    *array.Stats
}

// New builds a Delta array. len(bases) must equal ceil(length/blockLen).
func New(dtype array.DType, blockLen int, bases []array.Scalar, deltas array.Array, length int) *Array {
	return &Array{dtype: dtype, blockLen: blockLen, bases: bases, deltas: deltas, length: length, stats: array.NewStats()}
}

func (a *Array) Len() int                 { return a.length }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return []array.Array{a.deltas} }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.deltas.Validity() }

// valueAt reconstructs row i via the prefix sum within its block, starting
// at the block's base. This is O(blockLen) worst case; encode/decode
// writers are expected to keep blockLen small (spec's default 1024).
func (a *Array) valueAt(i int) (int64, bool, error) {
	block := i / a.blockLen
	blockStart := block * a.blockLen
	base, _ := a.bases[block].Int()
	acc := base
	anyNull := a.bases[block].IsNull()
	for j := blockStart; j <= i; j++ {
		if j == blockStart {
			continue
		}
		dsc, err := a.deltas.ScalarAt(j)
		if err != nil {
			return 0, false, err
		}
		if dsc.IsNull() {
			anyNull = true
			continue
		}
		dv, _ := dsc.Int()
		acc += dv
	}
	return acc, !anyNull, nil
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= a.length {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, a.length).WithIndex(i)
	}
	v, valid, err := a.valueAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	if !valid {
		return array.NullScalar(a.dtype), nil
	}
	pt := a.dtype.PType()
	if pt.IsSignedInt() {
		return array.IntScalar(pt, v, a.dtype.Nullable()), nil
	}
	return array.UintScalar(pt, uint64(v), a.dtype.Nullable()), nil
}

// Slice materializes a canonical sub-array rather than re-blocking Delta:
// producing a correct new (bases, deltas) pair requires re-running the
// prefix-sum encoder over the sliced range, which belongs in the sampling
// compressor's re-encode path rather than here.
func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.length {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.length)
	}
	n := stop - start
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(start + i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

func (a *Array) ToCanonical() (array.Array, error) {
	vals := make([]array.Scalar, a.length)
	for i := range vals {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}
