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

// Package decimalbyteparts implements the Decimal-Byte-Parts encoding of
// spec §4.3.14: decimals split into an MSB child (an I64 primitive array
// holding the high 8 bytes of the unscaled value's 128-bit two's
// complement) and an optional Lower child (a U64 primitive array holding
// the low 8 bytes). Lower is omitted only when every value's low 8 bytes
// are zero (every value a multiple of 2^64); small-magnitude values have
// non-zero low bytes, so they keep a Lower child and their MSB is 0 or -1.
// Compare-with-constant pushes into MSB only when Lower is omitted and the
// comparand's low bytes are zero.
package decimalbyteparts

import (
	"math/big"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.decimalbyteparts"

var (
	lowerMask  = new(big.Int).SetUint64(^uint64(0))
	twoPow128  = new(big.Int).Lsh(big.NewInt(1), 128)
	twoPow127  = new(big.Int).Lsh(big.NewInt(1), 127)
)

// Array splits a KindDecimal dtype's unscaled big.Int values into MSB
// (signed high bits) and an optional Lower (unsigned low 64 bits) child.
type Array struct {
	dtype    array.DType
	msb      array.Array // I64 primitive
	lower    array.Array // U64 primitive, nil if every value's low 64 bits are zero
	validity array.Validity
	stats    *array.Stats
}

// New builds a Decimal-Byte-Parts array.
func New(dtype array.DType, msb, lower array.Array, validity array.Validity) *Array {
	return &Array{dtype: dtype, msb: msb, lower: lower, validity: validity, stats: array.NewStats()}
}

func (a *Array) Len() int           { return a.msb.Len() }
func (a *Array) DType() array.DType { return a.dtype }
func (a *Array) EncodingID() string { return EncodingID }
func (a *Array) Children() []array.Array {
	if a.lower == nil {
		return []array.Array{a.msb}
	}
	return []array.Array{a.msb, a.lower}
}
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.validity }

// split computes v's 128-bit two's-complement representation and returns
// its high 64 bits (reinterpreted as signed, carrying the overall sign)
// and low 64 bits (unsigned).
func split(v *big.Int) (msb int64, lower uint64) {
	mod := new(big.Int).Mod(v, twoPow128) // Euclidean mod == two's-complement bit pattern
	lower = new(big.Int).And(mod, lowerMask).Uint64()
	hi := new(big.Int).Rsh(mod, 64).Uint64()
	msb = int64(hi)
	return
}

// join inverts split.
func join(msb int64, lower uint64) *big.Int {
	hi := new(big.Int).SetUint64(uint64(msb))
	out := new(big.Int).Lsh(hi, 64)
	out.Or(out, new(big.Int).SetUint64(lower))
	if out.Cmp(twoPow127) >= 0 {
		out.Sub(out, twoPow128)
	}
	return out
}

func (a *Array) valueAt(i int) (*big.Int, error) {
	msc, err := a.msb.ScalarAt(i)
	if err != nil {
		return nil, err
	}
	m, _ := msc.Int()
	var l uint64
	if a.lower != nil {
		lsc, err := a.lower.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		l, _ = lsc.Uint()
	}
	return join(m, l), nil
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if !a.validity.IsValid(i) {
		return array.NullScalar(a.dtype), nil
	}
	v, err := a.valueAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	return array.DecimalScalar(a.dtype, v, a.dtype.Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	msb, err := a.msb.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	var lower array.Array
	if a.lower != nil {
		lower, err = a.lower.Slice(start, stop)
		if err != nil {
			return nil, err
		}
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.dtype, msb, lower, v), nil
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

// CompareScalarKernel implements compute.ScalarComparer: when the array has
// no Lower child and rhs's low 64 bits are zero, the comparison is pushed
// entirely into the MSB child since ordering is then determined by MSB
// alone (spec §4.3.14). Otherwise it reports not handled and the generic
// path is used.
func (a *Array) CompareScalarKernel(op compute.CompareOp, rhs array.Scalar) (array.Array, bool, error) {
	if a.lower != nil || rhs.IsNull() {
		return nil, false, nil
	}
	rv, ok := rhs.Decimal()
	if !ok {
		return nil, false, nil
	}
	msbR, lowerR := split(rv)
	if lowerR != 0 {
		return nil, false, nil
	}
	out, err := compute.CompareScalar(a.msb, op, array.IntScalar(array.I64, msbR, false))
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}

// Encode builds a Decimal-Byte-Parts array from dense decimal values.
func Encode(dtype array.DType, values []*big.Int, validity array.Validity) (*Array, error) {
	n := len(values)
	msbVals := make([]array.Scalar, n)
	lowerVals := make([]array.Scalar, n)
	anyLower := false
	for i, v := range values {
		m, l := split(v)
		msbVals[i] = array.IntScalar(array.I64, m, false)
		lowerVals[i] = array.UintScalar(array.U64, l, false)
		if l != 0 {
			anyLower = true
		}
	}
	msb, err := compute.BuildFromScalars(array.Primitive(array.I64, false), msbVals)
	if err != nil {
		return nil, err
	}
	var lower array.Array
	if anyLower {
		lower, err = compute.BuildFromScalars(array.Primitive(array.U64, false), lowerVals)
		if err != nil {
			return nil, err
		}
	}
	return New(dtype, msb, lower, validity), nil
}
