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
	"math/big"

	"github.com/latticedb/lattice/array"
)

// BuildFromScalars constructs a fresh canonical array of dtype d from a
// list of scalars (each either dtype d or its null). It is the shared
// fallback path used when an encoding does not implement a fast kernel for
// filter/take/fill-null/cast: the dispatcher canonicalizes, walks the
// logical values with ScalarAt, and rebuilds with this function.
func BuildFromScalars(d array.DType, vals []array.Scalar) (array.Array, error) {
	n := len(vals)
	nullable := d.Nullable()
	valid := make([]bool, n)
	anyNull := false
	for i, v := range vals {
		valid[i] = !v.IsNull()
		if v.IsNull() {
			anyNull = true
		}
	}
	validity := array.NonNullableValidity()
	if nullable {
		if anyNull {
			validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
		} else {
			validity = array.AllValidValidity()
		}
	} else if anyNull {
		return nil, array.NewError(array.InvalidArgument, "null value for non-nullable dtype %s", d).WithDType(d)
	}

	switch d.Kind() {
	case array.KindNull:
		return array.NewNullArray(n), nil
	case array.KindBool:
		bools := make([]bool, n)
		for i, v := range vals {
			if !v.IsNull() {
				bools[i], _ = v.Bool()
			}
		}
		ba := array.NewBoolArrayFromBools(bools, validity)
		return ba, nil
	case array.KindPrimitive:
		return buildPrimitive(d, vals, validity)
	case array.KindDecimal:
		values := make([]*big.Int, n)
		for i, v := range vals {
			if v.IsNull() {
				values[i] = new(big.Int)
				continue
			}
			dv, _ := v.Decimal()
			values[i] = dv
		}
		return array.NewDecimalArray(d, values, validity), nil
	case array.KindUtf8, array.KindBinary:
		raw := make([][]byte, n)
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			if d.Kind() == array.KindUtf8 {
				s, _ := v.String()
				raw[i] = []byte(s)
			} else {
				b, _ := v.Binary()
				raw[i] = b
			}
		}
		return array.BuildVarBinView(d, raw, validity)
	case array.KindList:
		return buildList(d, vals, validity)
	case array.KindStruct:
		return buildStruct(d, vals, validity)
	case array.KindExtension:
		storageDT := d.StorageDType()
		storageVals := make([]array.Scalar, n)
		for i, v := range vals {
			if v.IsNull() {
				storageVals[i] = array.NullScalar(storageDT)
			} else {
				storageVals[i] = v
			}
		}
		storage, err := BuildFromScalars(storageDT, storageVals)
		if err != nil {
			return nil, err
		}
		return array.NewExtensionArray(d, storage), nil
	default:
		return nil, array.NewError(array.NotImplemented, "cannot build canonical array for dtype kind %s", d.Kind())
	}
}

func buildPrimitive(d array.DType, vals []array.Scalar, validity array.Validity) (array.Array, error) {
	pt := d.PType()
	w := pt.ByteWidth()
	raw := make([]byte, len(vals)*w)
	for i, v := range vals {
		var bits uint64
		if !v.IsNull() {
			switch {
			case pt.IsFloat():
				f, _ := v.Float()
				bits = floatBits(pt, f)
			case pt.IsSignedInt():
				iv, _ := v.Int()
				bits = uint64(iv)
			default:
				uv, _ := v.Uint()
				bits = uv
			}
		}
		for k := 0; k < w; k++ {
			raw[i*w+k] = byte(bits >> (8 * k))
		}
	}
	buf, err := array.NewBuffer(raw, uint(w))
	if err != nil {
		return nil, err
	}
	return array.NewPrimitiveArray(d, buf, len(vals), validity), nil
}

func floatBits(pt array.PType, f float64) uint64 {
	switch pt {
	case array.F32:
		return uint64(float32Bits(float32(f)))
	case array.F64:
		return float64Bits(f)
	default:
		return uint64(float32ToHalfBits(float32(f)))
	}
}

func buildList(d array.DType, vals []array.Scalar, validity array.Validity) (array.Array, error) {
	elemDT := d.Element()
	offsets := make([]uint32, len(vals)+1)
	var flat []array.Scalar
	for i, v := range vals {
		offsets[i] = uint32(len(flat))
		if !v.IsNull() {
			elems, _ := v.List()
			flat = append(flat, elems...)
		}
	}
	offsets[len(vals)] = uint32(len(flat))
	values, err := BuildFromScalars(elemDT, flat)
	if err != nil {
		return nil, err
	}
	return array.NewListArray(d, offsets, values, validity), nil
}

func buildStruct(d array.DType, vals []array.Scalar, validity array.Validity) (array.Array, error) {
	fields := d.Fields()
	children := make([]array.Array, len(fields))
	for fi, f := range fields {
		fieldVals := make([]array.Scalar, len(vals))
		for i, v := range vals {
			if v.IsNull() {
				fieldVals[i] = array.NullScalar(f.Type)
				continue
			}
			sv, _ := v.Struct()
			fieldVals[i] = sv[fi]
		}
		child, err := BuildFromScalars(f.Type, fieldVals)
		if err != nil {
			return nil, err
		}
		children[fi] = child
	}
	return array.NewStructArray(d, len(vals), children, validity), nil
}
