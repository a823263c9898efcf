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

// ValidityKind discriminates the four validity representations of spec
// §3.3.
type ValidityKind uint8

const (
	NonNullable ValidityKind = iota
	AllValid
	AllInvalid
	ValidityArray
)

// Validity is the per-row null indicator carried by every Array. When Kind
// is ValidityArray, Arr is a Bool-dtype array (any encoding) whose logical
// true/false values mean valid/invalid.
type Validity struct {
	Kind ValidityKind
	Arr  Array
}

// NonNullableValidity returns the validity for a non-nullable array: every
// row is implicitly valid and the dtype itself forbids nulls.
func NonNullableValidity() Validity { return Validity{Kind: NonNullable} }

// AllValidValidity returns the validity for an array with no null rows.
func AllValidValidity() Validity { return Validity{Kind: AllValid} }

// AllInvalidValidity returns the validity for an array every one of whose
// rows is null.
func AllInvalidValidity() Validity { return Validity{Kind: AllInvalid} }

// ArrayValidity returns a validity backed by an explicit bool array.
func ArrayValidity(a Array) Validity { return Validity{Kind: ValidityArray, Arr: a} }

// IsValid reports whether row i is valid.
func (v Validity) IsValid(i int) bool {
	switch v.Kind {
	case NonNullable, AllValid:
		return true
	case AllInvalid:
		return false
	default:
		sc, err := v.Arr.ScalarAt(i)
		if err != nil {
			return false
		}
		b, _ := sc.Bool()
		return b
	}
}

// Mask converts the validity to a row Mask of the given length (true =
// valid).
func (v Validity) Mask(n int) Mask {
	switch v.Kind {
	case NonNullable, AllValid:
		return AllTrueMask(n)
	case AllInvalid:
		return AllFalseMask(n)
	default:
		bools := make([]bool, n)
		for i := range bools {
			bools[i] = v.IsValid(i)
		}
		return NewMaskFromBools(bools)
	}
}

// NullCount returns the number of invalid rows out of n, with a precision
// tag: NonNullable/AllValid/AllInvalid are exact in O(1); an explicit
// validity array counts its mask (still exact, O(n)).
func (v Validity) NullCount(n int) Precision {
	switch v.Kind {
	case NonNullable, AllValid:
		return Exact(0)
	case AllInvalid:
		return Exact(n)
	default:
		return Exact(n - v.Mask(n).TrueCount())
	}
}

// Slice returns the validity restricted to rows [start, stop).
func (v Validity) Slice(start, stop int) (Validity, error) {
	switch v.Kind {
	case NonNullable:
		return v, nil
	case AllValid:
		return v, nil
	case AllInvalid:
		return v, nil
	default:
		sub, err := v.Arr.Slice(start, stop)
		if err != nil {
			return Validity{}, err
		}
		return ArrayValidity(sub), nil
	}
}
