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

// Package frameref implements the Frame-of-Reference encoding of spec
// §4.3.5: a single reference value (the minimum) plus a child array of
// unsigned offsets from it, typically feeding into encoding/bitpacked.
package frameref

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.frameref"

// Array stores Reference (the frame minimum, widened to int64/uint64
// depending on signedness) plus an Offsets child array of unsigned
// integers such that logical[i] = Reference + Offsets[i].
type Array struct {
	dtype     array.DType
	reference array.Scalar
	offsets   array.Array
	stats     *array.Stats
}

// New builds a Frame-of-Reference array. offsets must be an unsigned
// integer primitive array.
func New(dtype array.DType, reference array.Scalar, offsets array.Array) *Array {
	return &Array{dtype: dtype, reference: reference, offsets: offsets, stats: array.NewStats()}
}

func (a *Array) Len() int                 { return a.offsets.Len() }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return []array.Array{a.offsets} }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.offsets.Validity() }

func (a *Array) combine(off array.Scalar) (array.Scalar, error) {
	if off.IsNull() {
		return array.NullScalar(a.dtype), nil
	}
	pt := a.dtype.PType()
	ov, _ := off.Uint()
	switch {
	case pt.IsSignedInt():
		rv, _ := a.reference.Int()
		return array.IntScalar(pt, rv+int64(ov), a.dtype.Nullable()), nil
	case pt.IsFloat():
		rv, _ := a.reference.Float()
		return array.FloatScalar(pt, rv+float64(ov), a.dtype.Nullable()), nil
	default:
		rv, _ := a.reference.Uint()
		return array.UintScalar(pt, rv+ov, a.dtype.Nullable()), nil
	}
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	off, err := a.offsets.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	return a.combine(off)
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	sub, err := a.offsets.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.dtype, a.reference, sub), nil
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

// MinMaxKernel implements compute.MinMaxer in O(1) after the child's own
// min/max of its offsets, since the encoding is monotone in its offsets:
// min(logical) = reference + min(offsets), max(logical) = reference +
// max(offsets) (spec §4.5's monotone-derivation rule).
func (a *Array) MinMaxKernel() (min, max array.Scalar, ok bool, err error) {
	omin, omax, found, err := compute.MinMax(a.offsets)
	if err != nil || !found {
		return array.Scalar{}, array.Scalar{}, false, err
	}
	min, err = a.combine(omin)
	if err != nil {
		return array.Scalar{}, array.Scalar{}, false, err
	}
	max, err = a.combine(omax)
	if err != nil {
		return array.Scalar{}, array.Scalar{}, false, err
	}
	return min, max, true, nil
}

// IsSortedKernel implements compute.SortedChecker: since Reference is
// constant, logical order follows Offsets' order exactly.
func (a *Array) IsSortedKernel(strict bool) (array.Precision, bool) {
	var sorted bool
	var err error
	if strict {
		sorted, err = compute.IsStrictSorted(a.offsets)
	} else {
		sorted, err = compute.IsSorted(a.offsets)
	}
	if err != nil {
		return array.Precision{}, false
	}
	return array.Exact(sorted), true
}
