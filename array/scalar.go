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

import (
	"fmt"
	"math"
	"math/big"
)

// Scalar is a single typed value whose physical representation mirrors its
// DType (spec §3.5). A Scalar is either null or carries exactly one of the
// typed payloads below, selected by dtype.Kind().
type Scalar struct {
	dtype DType
	null  bool

	b    bool
	i    int64
	u    uint64
	f    float64
	dec  *big.Int
	str  string
	bin  []byte
	list []Scalar
	strc []Scalar
}

// DType returns the scalar's logical type.
func (s Scalar) DType() DType { return s.dtype }

// IsNull reports whether the scalar represents a logical null.
func (s Scalar) IsNull() bool { return s.null }

// NullScalar returns the null value of dtype d.
func NullScalar(d DType) Scalar { return Scalar{dtype: d, null: true} }

// BoolScalar returns a non-null bool scalar.
func BoolScalar(v bool, nullable bool) Scalar {
	return Scalar{dtype: Bool(nullable), b: v}
}

func (s Scalar) Bool() (bool, bool) {
	if s.null || s.dtype.Kind() != KindBool {
		return false, false
	}
	return s.b, true
}

// IntScalar returns a non-null signed-integer primitive scalar.
func IntScalar(pt PType, v int64, nullable bool) Scalar {
	return Scalar{dtype: Primitive(pt, nullable), i: v}
}

// UintScalar returns a non-null unsigned-integer primitive scalar.
func UintScalar(pt PType, v uint64, nullable bool) Scalar {
	return Scalar{dtype: Primitive(pt, nullable), u: v}
}

// FloatScalar returns a non-null floating-point primitive scalar.
func FloatScalar(pt PType, v float64, nullable bool) Scalar {
	return Scalar{dtype: Primitive(pt, nullable), f: v}
}

// Int returns the scalar's value widened to int64; ok is false if the
// scalar is null or not a signed-integer primitive.
func (s Scalar) Int() (int64, bool) {
	if s.null || s.dtype.Kind() != KindPrimitive || !s.dtype.PType().IsSignedInt() {
		return 0, false
	}
	return s.i, true
}

// Uint returns the scalar's value widened to uint64; ok is false if the
// scalar is null or not an unsigned-integer primitive.
func (s Scalar) Uint() (uint64, bool) {
	if s.null || s.dtype.Kind() != KindPrimitive || !s.dtype.PType().IsUnsigned() {
		return 0, false
	}
	return s.u, true
}

// Float returns the scalar's value widened to float64; ok is false if the
// scalar is null or not a floating point primitive.
func (s Scalar) Float() (float64, bool) {
	if s.null || s.dtype.Kind() != KindPrimitive || !s.dtype.PType().IsFloat() {
		return 0, false
	}
	return s.f, true
}

// AsF64 widens any non-null numeric primitive scalar to float64, for use in
// cost/compare computations that do not care about the exact ptype.
func (s Scalar) AsF64() (float64, bool) {
	if s.null || s.dtype.Kind() != KindPrimitive {
		return 0, false
	}
	switch {
	case s.dtype.PType().IsFloat():
		return s.f, true
	case s.dtype.PType().IsSignedInt():
		return float64(s.i), true
	default:
		return float64(s.u), true
	}
}

// DecimalScalar returns a non-null decimal scalar. v is the unscaled
// integer value (i128/i256 in the source model; Go uses math/big.Int for
// both, since correctness rather than a fixed 128/256-bit layout is what
// matters for the core's compute semantics).
func DecimalScalar(d DType, v *big.Int, nullable bool) Scalar {
	dt := d
	dt = dt.WithNullable(nullable)
	return Scalar{dtype: dt, dec: new(big.Int).Set(v)}
}

func (s Scalar) Decimal() (*big.Int, bool) {
	if s.null || s.dtype.Kind() != KindDecimal {
		return nil, false
	}
	return s.dec, true
}

// StringScalar returns a non-null UTF-8 scalar.
func StringScalar(v string, nullable bool) Scalar {
	return Scalar{dtype: Utf8(nullable), str: v}
}

func (s Scalar) String() (string, bool) {
	if s.null || s.dtype.Kind() != KindUtf8 {
		return "", false
	}
	return s.str, true
}

// BinaryScalar returns a non-null opaque-bytes scalar.
func BinaryScalar(v []byte, nullable bool) Scalar {
	return Scalar{dtype: Binary(nullable), bin: v}
}

func (s Scalar) Binary() ([]byte, bool) {
	if s.null || s.dtype.Kind() != KindBinary {
		return nil, false
	}
	return s.bin, true
}

// ListScalar returns a non-null list scalar.
func ListScalar(d DType, vals []Scalar, nullable bool) Scalar {
	dt := d.WithNullable(nullable)
	return Scalar{dtype: dt, list: vals}
}

func (s Scalar) List() ([]Scalar, bool) {
	if s.null || s.dtype.Kind() != KindList {
		return nil, false
	}
	return s.list, true
}

// StructScalar returns a non-null struct scalar whose field values are in
// dtype-field order.
func StructScalar(d DType, vals []Scalar, nullable bool) Scalar {
	dt := d.WithNullable(nullable)
	return Scalar{dtype: dt, strc: vals}
}

func (s Scalar) Struct() ([]Scalar, bool) {
	if s.null || s.dtype.Kind() != KindStruct {
		return nil, false
	}
	return s.strc, true
}

// Compare compares two scalars of equal (modulo nullability) dtype. Float
// comparisons use total-compare, placing NaN last (spec §3.5). ok is false
// when the dtypes are not comparable or not equal-enough to compare (e.g.
// distinct struct shapes).
func (s Scalar) Compare(o Scalar) (cmp int, ok bool) {
	if !s.dtype.Comparable() || !o.dtype.Comparable() {
		return 0, false
	}
	if s.null && o.null {
		return 0, true
	}
	if s.null {
		return -1, true // nulls sort least, per spec §4.2 is_sorted
	}
	if o.null {
		return 1, true
	}
	switch s.dtype.Kind() {
	case KindBool:
		ob, ok2 := o.Bool()
		if !ok2 {
			return 0, false
		}
		return boolCmp(s.b, ob), true
	case KindPrimitive:
		return comparePrimitive(s, o)
	case KindDecimal:
		od, ok2 := o.Decimal()
		if !ok2 {
			return 0, false
		}
		return s.dec.Cmp(od), true
	case KindUtf8:
		os, ok2 := o.String()
		if !ok2 {
			return 0, false
		}
		switch {
		case s.str < os:
			return -1, true
		case s.str > os:
			return 1, true
		default:
			return 0, true
		}
	case KindBinary:
		ob, ok2 := o.Binary()
		if !ok2 {
			return 0, false
		}
		return compareBytes(s.bin, ob), true
	case KindNull:
		return 0, true
	default:
		return 0, false
	}
}

func boolCmp(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// totalCompareFloat orders floats with NaN sorting after every other value,
// including +Inf, matching spec §3.5's "total-compare (NaN last)".
func totalCompareFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func comparePrimitive(s, o Scalar) (int, bool) {
	pt := s.dtype.PType()
	if o.dtype.Kind() != KindPrimitive {
		return 0, false
	}
	switch {
	case pt.IsFloat():
		of, ok := o.Float()
		if !ok {
			return 0, false
		}
		return totalCompareFloat(s.f, of), true
	case pt.IsSignedInt():
		oi, ok := o.Int()
		if !ok {
			return 0, false
		}
		switch {
		case s.i < oi:
			return -1, true
		case s.i > oi:
			return 1, true
		default:
			return 0, true
		}
	default:
		ou, ok := o.Uint()
		if !ok {
			return 0, false
		}
		switch {
		case s.u < ou:
			return -1, true
		case s.u > ou:
			return 1, true
		default:
			return 0, true
		}
	}
}

func (s Scalar) GoString() string {
	if s.null {
		return fmt.Sprintf("null(%s)", s.dtype)
	}
	return fmt.Sprintf("%s(%v)", s.dtype, s.anyValue())
}

func (s Scalar) anyValue() any {
	switch s.dtype.Kind() {
	case KindBool:
		return s.b
	case KindPrimitive:
		if s.dtype.PType().IsFloat() {
			return s.f
		}
		if s.dtype.PType().IsSignedInt() {
			return s.i
		}
		return s.u
	case KindDecimal:
		return s.dec
	case KindUtf8:
		return s.str
	case KindBinary:
		return s.bin
	case KindList:
		return s.list
	case KindStruct:
		return s.strc
	default:
		return nil
	}
}
