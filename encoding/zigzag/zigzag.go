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

// Package zigzag implements the ZigZag encoding of spec §4.3.10: signed
// integers mapped to unsigned via (n << 1) ^ (n >> (bits-1)) so that small
// magnitude values, positive or negative, map to small unsigned codes
// suitable for bit-packing.
package zigzag

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/internal/ints"
)

const EncodingID = "lattice.zigzag"

// Array wraps an unsigned Encoded child array, decoding signed logical
// values on demand.
type Array struct {
	dtype   array.DType // signed primitive
	encoded array.Array // unsigned primitive, same width
	stats   *array.Stats
}

// New builds a ZigZag array over an unsigned-encoded child. dtype must be
// a signed integer primitive.
func New(dtype array.DType, encoded array.Array) *Array {
	return &Array{dtype: dtype, encoded: encoded, stats: array.NewStats()}
}

func (a *Array) Len() int                 { return a.encoded.Len() }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return []array.Array{a.encoded} }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.encoded.Validity() }

func decode(pt array.PType, u uint64) int64 {
	switch pt {
	case array.I32:
		return int64(ints.ZigZagDecode32(uint32(u)))
	default:
		return ints.ZigZagDecode64(u)
	}
}

func encode(pt array.PType, v int64) uint64 {
	switch pt {
	case array.I32:
		return uint64(ints.ZigZagEncode32(int32(v)))
	default:
		return ints.ZigZagEncode64(v)
	}
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	sc, err := a.encoded.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	if sc.IsNull() {
		return array.NullScalar(a.dtype), nil
	}
	u, _ := sc.Uint()
	return array.IntScalar(a.dtype.PType(), decode(a.dtype.PType(), u), a.dtype.Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	sub, err := a.encoded.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.dtype, sub), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.Len()
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

// EncodeScalar maps a signed logical scalar into its unsigned zigzag code,
// for use by writers building an Encoded child.
func EncodeScalar(pt array.PType, v int64) uint64 { return encode(pt, v) }
