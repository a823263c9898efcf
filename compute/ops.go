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

// Package compute implements the per-operation kernel contracts of spec
// §4.2: filter, take, slice, compare, boolean ops, cast, fill-null,
// scalar-at, sum, min/max, sort, and is-sorted. Every encoding may
// implement a fast path for any subset of these by satisfying the optional
// capability interfaces in kernels.go; operations missing a fast path are
// served by canonicalizing the array and retrying, with a warning logged
// (spec §4.1), the same "dynamic dispatch, no inheritance" shape spec §9
// describes.
package compute

// CompareOp enumerates the comparison operators of spec §4.2.
type CompareOp uint8

const (
	Eq CompareOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
)

func (op CompareOp) String() string {
	switch op {
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	default:
		return "cmp(?)"
	}
}

// Invert flips a comparison the way NNF pushes Not past a BinaryExpr (spec
// §6.4).
func (op CompareOp) Invert() CompareOp {
	switch op {
	case Eq:
		return NotEq
	case NotEq:
		return Eq
	case Lt:
		return Gte
	case Lte:
		return Gt
	case Gt:
		return Lte
	case Gte:
		return Lt
	default:
		return op
	}
}

// Eval applies op to the result of a three-way Compare (-1/0/1).
func (op CompareOp) Eval(cmp int) bool {
	switch op {
	case Eq:
		return cmp == 0
	case NotEq:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Lte:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Gte:
		return cmp >= 0
	default:
		return false
	}
}

// BooleanOp enumerates the boolean combinators of spec §4.2.
type BooleanOp uint8

const (
	And BooleanOp = iota
	Or
	AndKleene
	OrKleene
)
