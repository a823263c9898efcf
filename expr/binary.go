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

package expr

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

// BinOp is the operator of a BinaryExpr: the six comparisons plus the two
// non-Kleene boolean combinators (spec §6.4).
type BinOp uint8

const (
	Eq BinOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

func (op BinOp) isComparison() bool { return op <= Gte }

func (op BinOp) toCompareOp() compute.CompareOp {
	switch op {
	case Eq:
		return compute.Eq
	case NotEq:
		return compute.NotEq
	case Lt:
		return compute.Lt
	case Lte:
		return compute.Lte
	case Gt:
		return compute.Gt
	default:
		return compute.Gte
	}
}

func fromCompareOp(op compute.CompareOp) BinOp {
	switch op {
	case compute.Eq:
		return Eq
	case compute.NotEq:
		return NotEq
	case compute.Lt:
		return Lt
	case compute.Lte:
		return Lte
	case compute.Gt:
		return Gt
	default:
		return Gte
	}
}

// BinaryExpr evaluates Lhs <Op> Rhs. For a comparison op, Rhs may be a
// *Literal, in which case evaluate prefers compute.CompareScalar's
// encoding-specific fast path over materializing a constant array.
type BinaryExpr struct {
	Op       BinOp
	Lhs, Rhs Node
}

func (n *BinaryExpr) ReturnDType(scope array.DType) (array.DType, error) {
	lhsDT, err := n.Lhs.ReturnDType(scope)
	if err != nil {
		return array.DType{}, err
	}
	rhsDT, err := n.Rhs.ReturnDType(scope)
	if err != nil {
		return array.DType{}, err
	}
	nullable := lhsDT.Nullable() || rhsDT.Nullable()
	return array.Bool(nullable), nil
}

func (n *BinaryExpr) Evaluate(a array.Array) (array.Array, error) {
	lhs, err := n.Lhs.Evaluate(a)
	if err != nil {
		return nil, err
	}
	if n.Op.isComparison() {
		if lit, ok := n.Rhs.(*Literal); ok {
			return compute.CompareScalar(lhs, n.Op.toCompareOp(), lit.Value)
		}
		rhs, err := n.Rhs.Evaluate(a)
		if err != nil {
			return nil, err
		}
		return compute.Compare(lhs, rhs, n.Op.toCompareOp())
	}
	rhs, err := n.Rhs.Evaluate(a)
	if err != nil {
		return nil, err
	}
	var bop compute.BooleanOp
	if n.Op == And {
		bop = compute.And
	} else {
		bop = compute.Or
	}
	return compute.Boolean(lhs, rhs, bop)
}

// Not inverts a boolean-producing Child. NNF pushes this to the leaves; an
// un-normalized tree may still evaluate Not directly via compute.Invert.
type Not struct {
	Child Node
}

func (n *Not) ReturnDType(scope array.DType) (array.DType, error) {
	return n.Child.ReturnDType(scope)
}

func (n *Not) Evaluate(a array.Array) (array.Array, error) {
	c, err := n.Child.Evaluate(a)
	if err != nil {
		return nil, err
	}
	return compute.Invert(c)
}

// NNF rewrites n into Negative Normal Form: Not pushed to the leaves by
// inverting comparisons and distributing over And/Or via De Morgan's laws
// (spec §6.4). Nodes outside {Not, BinaryExpr} pass through unchanged,
// since Not only ever wraps a boolean-producing subtree built from these.
func NNF(n Node) Node {
	return nnf(n, false)
}

// nnf rewrites n under negate: if negate is true, the result is the
// logical negation of n.
func nnf(n Node, negate bool) Node {
	switch t := n.(type) {
	case *Not:
		return nnf(t.Child, !negate)
	case *BinaryExpr:
		if t.Op.isComparison() {
			op := t.Op
			if negate {
				op = fromCompareOp(t.Op.toCompareOp().Invert())
			}
			return &BinaryExpr{Op: op, Lhs: t.Lhs, Rhs: t.Rhs}
		}
		// De Morgan: negate(A and B) = negate(A) or negate(B), and
		// symmetrically for Or.
		op := t.Op
		if negate {
			if op == And {
				op = Or
			} else {
				op = And
			}
		}
		return &BinaryExpr{Op: op, Lhs: nnf(t.Lhs, negate), Rhs: nnf(t.Rhs, negate)}
	default:
		if negate {
			return &Not{Child: n}
		}
		return n
	}
}
