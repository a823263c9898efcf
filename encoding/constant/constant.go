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

// Package constant implements the Constant encoding of spec §4.3.1: a
// single (scalar, length) pair standing in for an array that is the same
// value everywhere. Every operation on it is closed-form.
package constant

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

// Array carries a repeated scalar value for Length rows.
type Array struct {
	Scalar array.Scalar
	Length int
	stats  *array.Stats
}

// New returns a Constant array repeating scalar for n rows.
func New(scalar array.Scalar, n int) *Array {
	return &Array{Scalar: scalar, Length: n, stats: array.NewStats()}
}

const EncodingID = "lattice.constant"

func (a *Array) Len() int           { return a.Length }
func (a *Array) DType() array.DType { return a.Scalar.DType() }
func (a *Array) EncodingID() string { return EncodingID }
func (a *Array) Children() []array.Array { return nil }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte   { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }

func (a *Array) Validity() array.Validity {
	if a.Scalar.IsNull() {
		return array.AllInvalidValidity()
	}
	if a.Scalar.DType().Nullable() {
		return array.AllValidValidity()
	}
	return array.NonNullableValidity()
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= a.Length {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, a.Length).WithIndex(i)
	}
	return a.Scalar, nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.Length {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.Length)
	}
	return New(a.Scalar, stop-start), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	vals := make([]array.Scalar, a.Length)
	for i := range vals {
		vals[i] = a.Scalar
	}
	return compute.BuildFromScalars(a.DType(), vals)
}

// FilterKernel implements compute.Filterer in O(1): the result is simply a
// shorter Constant.
func (a *Array) FilterKernel(m array.Mask) (array.Array, error) {
	return New(a.Scalar, m.TrueCount()), nil
}

// TakeKernel implements compute.Taker in O(1) when every index is valid;
// out-of-range indices still need to be checked so the contract (spec
// §4.2) is preserved.
func (a *Array) TakeKernel(indices array.Array) (array.Array, error) {
	n := indices.Len()
	for i := 0; i < n; i++ {
		isc, err := indices.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if isc.IsNull() {
			continue
		}
		idx, ok := isc.Int()
		if !ok {
			u, _ := isc.Uint()
			idx = int64(u)
		}
		if idx < 0 || idx >= int64(a.Length) {
			return nil, array.NewError(array.OutOfBounds, "take index %d out of range [0,%d)", idx, a.Length).WithIndex(i)
		}
	}
	return New(a.Scalar, n), nil
}

// CompareScalarKernel implements compute.ScalarComparer in O(1).
func (a *Array) CompareScalarKernel(op compute.CompareOp, rhs array.Scalar) (array.Array, bool, error) {
	if a.Scalar.IsNull() || rhs.IsNull() {
		out := array.NewBoolArrayFromBools(make([]bool, a.Length), array.AllInvalidValidity())
		return out, true, nil
	}
	cmp, ok := a.Scalar.Compare(rhs)
	if !ok {
		return nil, false, nil
	}
	result := op.Eval(cmp)
	return New(array.BoolScalar(result, false), a.Length), true, nil
}

// SumKernel implements compute.Summer in closed form.
func (a *Array) SumKernel() (array.Scalar, bool, error) {
	if a.Scalar.IsNull() || a.DType().Kind() != array.KindPrimitive {
		return array.Scalar{}, false, nil
	}
	pt := a.DType().PType()
	switch {
	case pt.IsFloat():
		f, _ := a.Scalar.Float()
		return array.FloatScalar(array.F64, f*float64(a.Length), true), true, nil
	case pt.IsSignedInt():
		v, _ := a.Scalar.Int()
		return array.IntScalar(array.I64, v*int64(a.Length), true), true, nil
	default:
		v, _ := a.Scalar.Uint()
		return array.UintScalar(array.U64, v*uint64(a.Length), true), true, nil
	}
}

// MinMaxKernel implements compute.MinMaxer in closed form.
func (a *Array) MinMaxKernel() (min, max array.Scalar, ok bool, err error) {
	if a.Length == 0 || a.Scalar.IsNull() || !a.DType().Comparable() {
		return array.Scalar{}, array.Scalar{}, false, nil
	}
	return a.Scalar, a.Scalar, true, nil
}

// IsSortedKernel implements compute.SortedChecker: a constant array is
// always sorted, but never strictly sorted unless it has fewer than 2 rows.
func (a *Array) IsSortedKernel(strict bool) (array.Precision, bool) {
	if strict {
		return array.Exact(a.Length < 2), true
	}
	return array.Exact(true), true
}
