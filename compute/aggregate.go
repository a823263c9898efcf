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

import "github.com/latticedb/lattice/array"

// Sum returns a widened accumulator: u64/i64 for integer dtypes, f64 for
// floats. An only-invalid array sums to null; an overflowing integer sum
// also returns null (spec §4.2).
func Sum(a array.Array) (array.Scalar, error) {
	if s, ok := a.(Summer); ok {
		if out, handled, err := s.SumKernel(); handled {
			return out, err
		}
	}
	pt := a.DType().PType()
	if a.DType().Kind() != array.KindPrimitive {
		return array.Scalar{}, array.NewError(array.InvalidArgument, "sum requires a primitive dtype, got %s", a.DType()).WithDType(a.DType())
	}
	n := a.Len()
	anyValid := false
	switch {
	case pt.IsFloat():
		var acc float64
		for i := 0; i < n; i++ {
			sc, err := a.ScalarAt(i)
			if err != nil {
				return array.Scalar{}, err
			}
			if sc.IsNull() {
				continue
			}
			anyValid = true
			f, _ := sc.Float()
			acc += f
		}
		if !anyValid {
			return array.NullScalar(array.Primitive(array.F64, true)), nil
		}
		return array.FloatScalar(array.F64, acc, true), nil
	case pt.IsSignedInt():
		var acc int64
		overflow := false
		for i := 0; i < n; i++ {
			sc, err := a.ScalarAt(i)
			if err != nil {
				return array.Scalar{}, err
			}
			if sc.IsNull() {
				continue
			}
			anyValid = true
			v, _ := sc.Int()
			next := acc + v
			if (v > 0 && next < acc) || (v < 0 && next > acc) {
				overflow = true
			}
			acc = next
		}
		if !anyValid || overflow {
			return array.NullScalar(array.Primitive(array.I64, true)), nil
		}
		return array.IntScalar(array.I64, acc, true), nil
	default:
		var acc uint64
		overflow := false
		for i := 0; i < n; i++ {
			sc, err := a.ScalarAt(i)
			if err != nil {
				return array.Scalar{}, err
			}
			if sc.IsNull() {
				continue
			}
			anyValid = true
			v, _ := sc.Uint()
			next := acc + v
			if next < acc {
				overflow = true
			}
			acc = next
		}
		if !anyValid || overflow {
			return array.NullScalar(array.Primitive(array.U64, true)), nil
		}
		return array.UintScalar(array.U64, acc, true), nil
	}
}

// MinMax returns the minimum and maximum logical values in a, or ok=false
// for non-comparable dtypes (struct/list) or all-null input (spec §4.2).
func MinMax(a array.Array) (min, max array.Scalar, ok bool, err error) {
	if mm, isMM := a.(MinMaxer); isMM {
		min, max, ok, err = mm.MinMaxKernel()
		return
	}
	if !a.DType().Comparable() {
		return array.Scalar{}, array.Scalar{}, false, nil
	}
	n := a.Len()
	for i := 0; i < n; i++ {
		sc, e := a.ScalarAt(i)
		if e != nil {
			return array.Scalar{}, array.Scalar{}, false, e
		}
		if sc.IsNull() {
			continue
		}
		if !ok {
			min, max, ok = sc, sc, true
			continue
		}
		if c, _ := sc.Compare(min); c < 0 {
			min = sc
		}
		if c, _ := sc.Compare(max); c > 0 {
			max = sc
		}
	}
	return min, max, ok, nil
}
