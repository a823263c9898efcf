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

package compute

import (
	"math"
	"math/big"

	"github.com/latticedb/lattice/array"
)

// Cast converts a to dtype to. Narrowing conversions check each value and
// fail on overflow; casting non-nullable from nullable fails if any value
// is null; decimal-to-decimal adjusts precision/scale and fails on
// precision loss (spec §4.2).
func Cast(a array.Array, to array.DType) (array.Array, error) {
	if c, ok := a.(Caster); ok {
		if out, handled, err := c.CastKernel(to); handled {
			return out, err
		}
	}
	n := a.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			if !to.Nullable() {
				return nil, array.NewError(array.ComputeError, "cannot cast null to non-nullable dtype %s", to).WithIndex(i).WithDType(to)
			}
			vals[i] = array.NullScalar(to)
			continue
		}
		out, err := castScalar(sc, to)
		if err != nil {
			return nil, array.NewError(array.ComputeError, "cast error at row %d: %v", i, err).WithIndex(i).WithDType(to)
		}
		vals[i] = out
	}
	return BuildFromScalars(to, vals)
}

func castScalar(sc array.Scalar, to array.DType) (array.Scalar, error) {
	from := sc.DType()
	switch to.Kind() {
	case array.KindPrimitive:
		f, ok := sc.AsF64()
		if !ok {
			return array.Scalar{}, array.NewError(array.ComputeError, "cannot cast %s to %s", from, to)
		}
		pt := to.PType()
		switch {
		case pt.IsFloat():
			return array.FloatScalar(pt, f, to.Nullable()), nil
		case pt.IsSignedInt():
			iv := int64(f)
			if float64(iv) != f {
				return array.Scalar{}, array.NewError(array.ComputeError, "non-integral value %v cannot cast to %s", f, to)
			}
			if !fitsSigned(iv, pt) {
				return array.Scalar{}, array.NewError(array.ComputeError, "value %d overflows %s", iv, to)
			}
			return array.IntScalar(pt, iv, to.Nullable()), nil
		default:
			uv := uint64(f)
			if float64(uv) != f || f < 0 {
				return array.Scalar{}, array.NewError(array.ComputeError, "value %v cannot cast to unsigned %s", f, to)
			}
			if !fitsUnsigned(uv, pt) {
				return array.Scalar{}, array.NewError(array.ComputeError, "value %d overflows %s", uv, to)
			}
			return array.UintScalar(pt, uv, to.Nullable()), nil
		}
	case array.KindDecimal:
		return castToDecimal(sc, to)
	case array.KindUtf8:
		return array.StringScalar(scalarToString(sc), to.Nullable()), nil
	case array.KindBool:
		switch from.Kind() {
		case array.KindBool:
			b, _ := sc.Bool()
			return array.BoolScalar(b, to.Nullable()), nil
		}
		return array.Scalar{}, array.NewError(array.ComputeError, "cannot cast %s to bool", from)
	default:
		return array.Scalar{}, array.NewError(array.NotImplemented, "cast to %s not implemented", to)
	}
}

func fitsSigned(v int64, pt array.PType) bool {
	switch pt {
	case array.I8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case array.I16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case array.I32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	default:
		return true
	}
}

func fitsUnsigned(v uint64, pt array.PType) bool {
	switch pt {
	case array.U8:
		return v <= math.MaxUint8
	case array.U16:
		return v <= math.MaxUint16
	case array.U32:
		return v <= math.MaxUint32
	default:
		return true
	}
}

func castToDecimal(sc array.Scalar, to array.DType) (array.Scalar, error) {
	from := sc.DType()
	if from.Kind() == array.KindDecimal {
		v, _ := sc.Decimal()
		v = new(big.Int).Set(v)
		scaleDiff := to.Scale() - from.Scale()
		if scaleDiff > 0 {
			v.Mul(v, pow10(scaleDiff))
		} else if scaleDiff < 0 {
			div := pow10(-scaleDiff)
			q, r := new(big.Int).QuoRem(v, div, new(big.Int))
			if r.Sign() != 0 {
				return array.Scalar{}, array.NewError(array.ComputeError, "decimal cast loses precision")
			}
			v = q
		}
		return array.DecimalScalar(to, v, to.Nullable()), nil
	}
	f, ok := sc.AsF64()
	if !ok {
		return array.Scalar{}, array.NewError(array.ComputeError, "cannot cast %s to decimal", from)
	}
	scaled := f * math.Pow(10, float64(to.Scale()))
	bi, _ := big.NewFloat(scaled).Int(nil)
	return array.DecimalScalar(to, bi, to.Nullable()), nil
}

func pow10(n int) *big.Int {
	r := big.NewInt(1)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		r.Mul(r, ten)
	}
	return r
}

func scalarToString(sc array.Scalar) string {
	if s, ok := sc.String(); ok {
		return s
	}
	return sc.GoString()
}
