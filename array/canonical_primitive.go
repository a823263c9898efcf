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

package array

import "math"

// PrimitiveArray is the canonical form of fixed-width numeric dtypes: a
// packed buffer of T plus validity.
type PrimitiveArray struct {
	canonicalTag
	dtype    DType
	n        int
	data     *Buffer // packed values, PType().ByteWidth() bytes each
	off      int     // element offset, for zero-copy slicing
	validity Validity
	stats    *Stats
}

// NewPrimitiveArray wraps a packed value buffer as a PrimitiveArray. dtype
// must have Kind()==KindPrimitive.
func NewPrimitiveArray(dtype DType, data *Buffer, n int, validity Validity) *PrimitiveArray {
	return &PrimitiveArray{dtype: dtype, n: n, data: data, validity: validity, stats: NewStats()}
}

func (a *PrimitiveArray) Len() int           { return a.n }
func (a *PrimitiveArray) DType() DType       { return a.dtype }
func (a *PrimitiveArray) EncodingID() string { return "lattice.primitive" }
func (a *PrimitiveArray) Validity() Validity { return a.validity }
func (a *PrimitiveArray) Children() []Array  { return nil }
func (a *PrimitiveArray) Buffers() []*Buffer { return []*Buffer{a.data} }
func (a *PrimitiveArray) Metadata() []byte   { return nil }
func (a *PrimitiveArray) Statistics() *Stats { return a.stats }
func (a *PrimitiveArray) ToCanonical() (Array, error) { return a, nil }

func (a *PrimitiveArray) byteAt(i int) []byte {
	w := a.dtype.PType().ByteWidth()
	off := (a.off + i) * w
	return a.data.Bytes()[off : off+w]
}

// Uint64At returns the raw bits at row i widened to uint64, ignoring sign
// and float interpretation (used by bit-packing/FoR/delta codecs).
func (a *PrimitiveArray) Uint64At(i int) uint64 {
	b := a.byteAt(i)
	var v uint64
	for k := len(b) - 1; k >= 0; k-- {
		v = v<<8 | uint64(b[k])
	}
	return v
}

func (a *PrimitiveArray) valueScalar(i int) Scalar {
	nullable := a.validity.Kind != NonNullable
	pt := a.dtype.PType()
	switch {
	case pt.IsFloat():
		var f float64
		switch pt {
		case F32:
			f = float64(math.Float32frombits(uint32(a.Uint64At(i))))
		case F64:
			f = math.Float64frombits(a.Uint64At(i))
		default: // F16: widen via a simple half->float32 path
			f = float64(halfToFloat32(uint16(a.Uint64At(i))))
		}
		return FloatScalar(pt, f, nullable)
	case pt.IsSignedInt():
		u := a.Uint64At(i)
		w := pt.ByteWidth() * 8
		shift := 64 - w
		return IntScalar(pt, int64(u<<shift)>>shift, nullable)
	default:
		return UintScalar(pt, a.Uint64At(i), nullable)
	}
}

func (a *PrimitiveArray) ScalarAt(i int) (Scalar, error) {
	if i < 0 || i >= a.n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, a.n).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return NullScalar(a.dtype), nil
	}
	return a.valueScalar(i), nil
}

func (a *PrimitiveArray) Slice(start, stop int) (Array, error) {
	if start < 0 || stop < start || stop > a.n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.n)
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return &PrimitiveArray{dtype: a.dtype, n: stop - start, data: a.data, off: a.off + start, validity: v, stats: NewStats()}, nil
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := (h >> 10) & 0x1f
	mant := uint32(h & 0x3ff)
	var bits uint32
	switch {
	case exp == 0:
		if mant == 0 {
			bits = sign
		} else {
			// subnormal half -> normalize into float32
			e := 0
			for mant&0x400 == 0 {
				mant <<= 1
				e--
			}
			mant &= 0x3ff
			bits = sign | uint32(int32(e+1+127-15))<<23 | (mant << 13)
		}
	case exp == 0x1f:
		bits = sign | 0xff<<23 | (mant << 13)
	default:
		bits = sign | (uint32(exp)+127-15)<<23 | (mant << 13)
	}
	return math.Float32frombits(bits)
}
