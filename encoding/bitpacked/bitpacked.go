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

// Package bitpacked implements the Bit-Packed encoding of spec §4.3.8:
// unsigned integers packed at a fixed bit width below the storage type's
// native width, with an optional Patches sparse array carrying outliers
// that do not fit in bit_width. Packing/unpacking here is a straight
// bit-level loop rather than the source's SIMD-oriented 1024-wide block
// layout. There are no fused unpack+filter or unpack+compare kernels:
// filter and compare go through the canonical fallback.
package bitpacked

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/internal/ints"
)

const EncodingID = "lattice.bitpacked"

// Patcher is satisfied by encoding/sparse.Array; kept narrow to avoid a
// bitpacked->sparse->bitpacked import cycle risk if sparse ever grows a
// bit-packed values child.
type Patcher interface {
	array.Array
}

// Array holds Length values packed at BitWidth bits each (LSB-first,
// unsigned), plus an optional Patches array overriding values that did
// not fit in BitWidth at encode time.
type Array struct {
	dtype    array.DType
	packed   []byte
	bitWidth int
	length   int
	patches  Patcher // optional; nil if no-patches variant
	stats    *array.Stats
}

// New builds a Bit-Packed array. packed must hold at least
// ceil(length*bitWidth/8) bytes.
func New(dtype array.DType, packed []byte, bitWidth, length int, patches Patcher) *Array {
	return &Array{dtype: dtype, packed: packed, bitWidth: bitWidth, length: length, patches: patches, stats: array.NewStats()}
}

func (a *Array) Len() int                { return a.length }
func (a *Array) DType() array.DType      { return a.dtype }
func (a *Array) EncodingID() string      { return EncodingID }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte        { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }

func (a *Array) Children() []array.Array {
	if a.patches == nil {
		return nil
	}
	return []array.Array{a.patches}
}

func (a *Array) Validity() array.Validity { return array.NonNullableValidity() }

// unpack returns the raw bit_width-wide unsigned value at row i, ignoring
// any patch override.
func (a *Array) unpack(i int) uint64 {
	bitOff := i * a.bitWidth
	var v uint64
	for b := 0; b < a.bitWidth; b++ {
		bit := bitOff + b
		if ints.TestBit(a.packed, bit) {
			v |= 1 << uint(b)
		}
	}
	return v
}

// patchValue returns the patched scalar at row i, if a.patches carries one.
func (a *Array) patchValue(i int) (array.Scalar, bool, error) {
	if a.patches == nil {
		return array.Scalar{}, false, nil
	}
	sc, err := a.patches.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, false, err
	}
	return sc, !sc.IsNull(), nil
}

func (a *Array) scalarFromRaw(v uint64) array.Scalar {
	pt := a.dtype.PType()
	if pt.IsSignedInt() {
		return array.IntScalar(pt, int64(v), a.dtype.Nullable())
	}
	return array.UintScalar(pt, v, a.dtype.Nullable())
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= a.length {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, a.length).WithIndex(i)
	}
	if sc, ok, err := a.patchValue(i); err != nil {
		return array.Scalar{}, err
	} else if ok {
		return sc, nil
	}
	return a.scalarFromRaw(a.unpack(i)), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.length {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.length)
	}
	n := stop - start
	out := make([]byte, ints.BytesForBits(n*a.bitWidth))
	for i := 0; i < n; i++ {
		v := a.unpack(start + i)
		for b := 0; b < a.bitWidth; b++ {
			if v&(1<<uint(b)) != 0 {
				ints.SetBit(out, i*a.bitWidth+b)
			}
		}
	}
	var patches Patcher
	if a.patches != nil {
		sub, err := a.patches.Slice(start, stop)
		if err != nil {
			return nil, err
		}
		if p, ok := sub.(Patcher); ok {
			patches = p
		}
	}
	return New(a.dtype, out, a.bitWidth, n, patches), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.length
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// statMax records the encoding's inexact upper bound (2^bit_width-1,
// spec §4.5) into the stats cache on first access; it does not implement
// compute.MinMaxer since the bound is not tight enough to serve as an
// actual minimum/maximum value.
func (a *Array) statMax() array.Precision {
	return a.stats.GetOrCompute(array.StatMax, func() array.Precision {
		if a.patches != nil || a.length == 0 {
			return array.Precision{}
		}
		maxRaw := uint64(1)<<uint(a.bitWidth) - 1
		return array.Inexact(a.scalarFromRaw(maxRaw))
	})
}
