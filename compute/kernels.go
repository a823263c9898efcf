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
	"github.com/latticedb/lattice/array"
)

// Optional per-encoding fast-path capabilities (spec §9's "capability set").
// An encoding may implement any subset; Filter/Take/... fall back to
// canonicalize-and-retry when the capability is absent.

type Filterer interface {
	FilterKernel(m array.Mask) (array.Array, error)
}

type Taker interface {
	TakeKernel(indices array.Array) (array.Array, error)
}

type Slicer interface {
	// Most encodings satisfy Slice via array.Array.Slice directly; this
	// interface exists for encodings (e.g. Run-End, Chunked) that provide a
	// Compute-level entry point distinct from the Array method.
	SliceKernel(start, stop int) (array.Array, error)
}

type ScalarComparer interface {
	CompareScalarKernel(op CompareOp, rhs array.Scalar) (array.Array, bool, error)
}

type Caster interface {
	CastKernel(to array.DType) (array.Array, bool, error)
}

type Summer interface {
	SumKernel() (array.Scalar, bool, error)
}

type MinMaxer interface {
	MinMaxKernel() (min, max array.Scalar, ok bool, err error)
}

type SortedChecker interface {
	IsSortedKernel(strict bool) (array.Precision, bool)
}

type Inverter interface {
	InvertKernel() (array.Array, bool, error)
}

// fallback canonicalizes a and logs the fallback (spec §4.1: "served by
// canonicalizing the array and retrying, with a warning logged").
func fallback(a array.Array, op string) (array.Array, error) {
	logf("compute: %s has no %s kernel, canonicalizing", a.EncodingID(), op)
	return a.ToCanonical()
}

// Filter returns the rows of a selected by mask (spec §4.2). len(output) ==
// mask.TrueCount().
func Filter(a array.Array, m array.Mask) (array.Array, error) {
	if m.Len() != a.Len() {
		return nil, array.NewError(array.InvalidArgument, "filter mask length %d != array length %d", m.Len(), a.Len())
	}
	if f, ok := a.(Filterer); ok {
		return f.FilterKernel(m)
	}
	canon, err := fallback(a, "filter")
	if err != nil {
		return nil, err
	}
	if canon != a {
		if f, ok := canon.(Filterer); ok {
			return f.FilterKernel(m)
		}
	}
	return filterGeneric(canon, m)
}

func filterGeneric(a array.Array, m array.Mask) (array.Array, error) {
	var vals []array.Scalar
	if m.PreferSlices() {
		m.Runs(func(start, stop int) {
			for i := start; i < stop; i++ {
				sc, _ := a.ScalarAt(i)
				vals = append(vals, sc)
			}
		})
	} else {
		for _, idx := range m.ToIndices() {
			sc, err := a.ScalarAt(int(idx))
			if err != nil {
				return nil, err
			}
			vals = append(vals, sc)
		}
	}
	return BuildFromScalars(a.DType(), vals)
}

// Take gathers rows of a at the given (possibly nullable) integer indices
// array; output length equals indices.Len(). Out-of-bounds indices are
// fatal unless skipBoundsCheck is set (spec §4.2).
func Take(a array.Array, indices array.Array, skipBoundsCheck bool) (array.Array, error) {
	if t, ok := a.(Taker); ok {
		return t.TakeKernel(indices)
	}
	canon, err := fallback(a, "take")
	if err != nil {
		return nil, err
	}
	if canon != a {
		if t, ok := canon.(Taker); ok {
			return t.TakeKernel(indices)
		}
	}
	return takeGeneric(canon, indices, skipBoundsCheck)
}

func takeGeneric(a array.Array, indices array.Array, skipBoundsCheck bool) (array.Array, error) {
	n := indices.Len()
	vals := make([]array.Scalar, n)
	widened := a.DType()
	if indices.Validity().Kind != array.NonNullable {
		widened = widened.WithNullable(true)
	}
	for i := 0; i < n; i++ {
		isc, err := indices.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if isc.IsNull() {
			vals[i] = array.NullScalar(widened)
			continue
		}
		idx, ok := isc.Int()
		var uidx uint64
		if ok {
			if idx < 0 {
				return nil, array.NewError(array.OutOfBounds, "negative take index %d", idx).WithIndex(i)
			}
			uidx = uint64(idx)
		} else {
			uidx, _ = isc.Uint()
		}
		if !skipBoundsCheck && uidx >= uint64(a.Len()) {
			return nil, array.NewError(array.OutOfBounds, "take index %d out of range [0,%d)", uidx, a.Len()).WithIndex(i)
		}
		sc, err := a.ScalarAt(int(uidx))
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return BuildFromScalars(widened, vals)
}

// Slice returns a's rows [start, stop). It uses a's Slicer kernel when a
// has one and array.Array.Slice otherwise; this wrapper exists so Slice
// participates in the same error-contract shape as the rest of the
// kernels.
func Slice(a array.Array, start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > a.Len() {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.Len())
	}
	if s, ok := a.(Slicer); ok {
		return s.SliceKernel(start, stop)
	}
	return a.Slice(start, stop)
}

// Compare evaluates lhs <op> rhs elementwise (spec §4.2). Both operands
// must have comparable, equal-modulo-nullability dtypes.
func Compare(lhs, rhs array.Array, op CompareOp) (array.Array, error) {
	if lhs.Len() != rhs.Len() {
		return nil, array.NewError(array.InvalidArgument, "compare length mismatch %d != %d", lhs.Len(), rhs.Len())
	}
	if !lhs.DType().Comparable() {
		return nil, array.NewError(array.InvalidArgument, "dtype %s is not comparable", lhs.DType()).WithDType(lhs.DType())
	}
	n := lhs.Len()
	nullable := lhs.Validity().Kind != array.NonNullable || rhs.Validity().Kind != array.NonNullable
	outDT := array.Bool(nullable)
	bools := make([]bool, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		lv, err := lhs.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		rv, err := rhs.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if lv.IsNull() || rv.IsNull() {
			continue
		}
		cmp, ok := lv.Compare(rv)
		if !ok {
			return nil, array.NewError(array.ComputeError, "values at row %d are not comparable", i).WithIndex(i)
		}
		valid[i] = true
		bools[i] = op.Eval(cmp)
	}
	validity := array.NonNullableValidity()
	if nullable {
		validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
	}
	_ = outDT
	return array.NewBoolArrayFromBools(bools, validity), nil
}

// CompareScalar evaluates a <op> rhs where rhs is a constant, preferring an
// encoding-specific fast path (e.g. Dictionary pushing the comparison into
// codes space, spec §4.3.4).
func CompareScalar(a array.Array, op CompareOp, rhs array.Scalar) (array.Array, error) {
	if sc, ok := a.(ScalarComparer); ok {
		if out, handled, err := sc.CompareScalarKernel(op, rhs); handled {
			return out, err
		}
	}
	canon, err := fallback(a, "compare-scalar")
	if err != nil {
		return nil, err
	}
	constArr, err := BuildFromScalars(rhs.DType().WithNullable(false), repeatScalar(rhs, a.Len()))
	if err != nil {
		return nil, err
	}
	return Compare(canon, constArr, op)
}

func repeatScalar(s array.Scalar, n int) []array.Scalar {
	out := make([]array.Scalar, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// Boolean evaluates lhs <op> rhs for Bool arrays. Non-Kleene ops propagate
// null as "unknown"; Kleene ops apply three-valued short-circuit logic
// (spec §4.2).
func Boolean(lhs, rhs array.Array, op BooleanOp) (array.Array, error) {
	if lhs.Len() != rhs.Len() {
		return nil, array.NewError(array.InvalidArgument, "boolean op length mismatch")
	}
	n := lhs.Len()
	bools := make([]bool, n)
	valid := make([]bool, n)
	nullable := lhs.Validity().Kind != array.NonNullable || rhs.Validity().Kind != array.NonNullable
	for i := 0; i < n; i++ {
		lv, err := lhs.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		rv, err := rhs.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		lb, lok := lv.Bool()
		rb, rok := rv.Bool()
		switch op {
		case And, Or:
			if !lok || !rok {
				continue
			}
			valid[i] = true
			if op == And {
				bools[i] = lb && rb
			} else {
				bools[i] = lb || rb
			}
		case AndKleene:
			if lok && !lb || rok && !rb {
				valid[i] = true
				bools[i] = false
				continue
			}
			if !lok || !rok {
				continue
			}
			valid[i] = true
			bools[i] = lb && rb
		case OrKleene:
			if lok && lb || rok && rb {
				valid[i] = true
				bools[i] = true
				continue
			}
			if !lok || !rok {
				continue
			}
			valid[i] = true
			bools[i] = lb || rb
		}
	}
	validity := array.NonNullableValidity()
	if nullable {
		validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
	}
	return array.NewBoolArrayFromBools(bools, validity), nil
}

// Invert flips every bit of a Bool array, preserving validity.
func Invert(a array.Array) (array.Array, error) {
	if a.DType().Kind() != array.KindBool {
		return nil, array.NewError(array.InvalidArgument, "invert requires bool dtype, got %s", a.DType()).WithDType(a.DType())
	}
	if inv, ok := a.(Inverter); ok {
		if out, handled, err := inv.InvertKernel(); handled {
			return out, err
		}
	}
	n := a.Len()
	bools := make([]bool, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			continue
		}
		b, _ := sc.Bool()
		bools[i] = !b
	}
	return array.NewBoolArrayFromBools(bools, a.Validity()), nil
}

// FillNull replaces invalid positions with scalar. Result nullability
// follows scalar's dtype (spec §4.2).
func FillNull(a array.Array, scalar array.Scalar) (array.Array, error) {
	n := a.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			vals[i] = scalar
		} else {
			vals[i] = sc
		}
	}
	return BuildFromScalars(a.DType().WithNullable(scalar.DType().Nullable()), vals)
}

// ScalarAtOp returns the logical value at row i (spec §4.2 scalar_at).
func ScalarAtOp(a array.Array, i int) (array.Scalar, error) {
	return a.ScalarAt(i)
}

// MaskOp sets positions where m is true to null (spec §4.2's "mask" op,
// distinct from the Mask type); result dtype is nullable.
func MaskOp(a array.Array, m array.Mask) (array.Array, error) {
	if m.Len() != a.Len() {
		return nil, array.NewError(array.InvalidArgument, "mask length mismatch")
	}
	n := a.Len()
	vals := make([]array.Scalar, n)
	outDT := a.DType().WithNullable(true)
	for i := 0; i < n; i++ {
		if m.IsTrue(i) {
			vals[i] = array.NullScalar(outDT)
			continue
		}
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return BuildFromScalars(outDT, vals)
}
