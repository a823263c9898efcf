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

// Package dict implements the Dictionary encoding of spec §4.3.4: a Codes
// array of indices into a deduplicated Values array. Equality comparisons
// against a constant are pushed into codes space by first resolving which
// (if any) dictionary entry matches, then comparing the codes array against
// that single small integer.
package dict

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.dict"

// Array is a Codes primitive array of unsigned integers paired with a
// Values array holding each distinct logical value exactly once.
type Array struct {
	dtype  array.DType
	codes  array.Array // unsigned primitive
	values array.Array
	stats  *array.Stats
}

// New builds a Dictionary array. codes must be an unsigned-integer
// primitive array whose values index into values.
func New(codes, values array.Array) *Array {
	return &Array{dtype: values.DType(), codes: codes, values: values, stats: array.NewStats()}
}

func (a *Array) Len() int                 { return a.codes.Len() }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return []array.Array{a.codes, a.values} }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }

func (a *Array) Validity() array.Validity { return a.codes.Validity() }

func (a *Array) codeAt(i int) (int64, bool, error) {
	sc, err := a.codes.ScalarAt(i)
	if err != nil {
		return 0, false, err
	}
	if sc.IsNull() {
		return 0, false, nil
	}
	if v, ok := sc.Uint(); ok {
		return int64(v), true, nil
	}
	v, _ := sc.Int()
	return v, true, nil
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	code, valid, err := a.codeAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	if !valid {
		return array.NullScalar(a.dtype), nil
	}
	return a.values.ScalarAt(int(code))
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	newCodes, err := a.codes.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(newCodes, a.values), nil
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

// CompareScalarKernel implements compute.ScalarComparer: for Eq/NotEq it
// resolves which dictionary entries match rhs (typically 0 or 1, since
// Values holds each logical value once) and pushes the comparison into the
// small Codes array instead of expanding to canonical form (spec §4.3.4,
// §8 concrete scenario 3). Ordering comparisons (<, <=, >, >=) fall back
// to the generic path since they may match many dictionary entries at
// once and dict does not maintain a sorted-values invariant.
func (a *Array) CompareScalarKernel(op compute.CompareOp, rhs array.Scalar) (array.Array, bool, error) {
	if op != compute.Eq && op != compute.NotEq {
		return nil, false, nil
	}
	if rhs.IsNull() {
		return nil, false, nil
	}
	nvals := a.values.Len()
	matching := make(map[int64]bool)
	for vi := 0; vi < nvals; vi++ {
		vsc, err := a.values.ScalarAt(vi)
		if err != nil {
			return nil, true, err
		}
		if vsc.IsNull() {
			continue
		}
		cmp, ok := vsc.Compare(rhs)
		if ok && cmp == 0 {
			matching[int64(vi)] = true
		}
	}
	n := a.Len()
	bools := make([]bool, n)
	valid := make([]bool, n)
	nullable := a.codes.Validity().Kind != array.NonNullable
	for i := 0; i < n; i++ {
		code, ok, err := a.codeAt(i)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			continue
		}
		valid[i] = true
		isEq := matching[code]
		if op == compute.Eq {
			bools[i] = isEq
		} else {
			bools[i] = !isEq
		}
	}
	validity := array.AllValidValidity()
	if nullable {
		validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
	}
	return array.NewBoolArrayFromBools(bools, validity), true, nil
}
