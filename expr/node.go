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

// Package expr implements the pushdown expression tree of spec §6.4: the
// small set of node kinds a scan's filter and projection are built from,
// each carrying a return_dtype and evaluate contract, plus the Negative
// Normal Form transform the pruning path in package scan relies on.
package expr

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

// Node is one expression tree node. Every node type in this file implements
// it; the tree is immutable once built.
type Node interface {
	// ReturnDType reports the dtype evaluate would produce given an input
	// of dtype scope, without touching any data.
	ReturnDType(scope array.DType) (array.DType, error)
	// Evaluate runs the node over a, which must have dtype compatible with
	// whatever scope this node was built against.
	Evaluate(a array.Array) (array.Array, error)
}

// Literal always evaluates to itself, broadcast to a's length.
type Literal struct {
	Value array.Scalar
}

func (n *Literal) ReturnDType(scope array.DType) (array.DType, error) {
	return n.Value.DType(), nil
}

func (n *Literal) Evaluate(a array.Array) (array.Array, error) {
	vals := make([]array.Scalar, a.Len())
	for i := range vals {
		vals[i] = n.Value
	}
	return compute.BuildFromScalars(n.Value.DType(), vals)
}

// Identity returns its input unchanged.
type Identity struct{}

func (Identity) ReturnDType(scope array.DType) (array.DType, error) { return scope, nil }
func (Identity) Evaluate(a array.Array) (array.Array, error)        { return a, nil }

// GetItem accesses a struct field (Field != "") or a list element (Field ==
// "" and Index is used) of Child's result.
type GetItem struct {
	Child Node
	Field string
	Index int
}

func (n *GetItem) ReturnDType(scope array.DType) (array.DType, error) {
	childDT, err := n.Child.ReturnDType(scope)
	if err != nil {
		return array.DType{}, err
	}
	if n.Field != "" {
		if childDT.Kind() != array.KindStruct {
			return array.DType{}, array.NewError(array.InvalidArgument, "GetItem(%q) on non-struct dtype %s", n.Field, childDT).WithDType(childDT)
		}
		f, ok := childDT.FieldByName(n.Field)
		if !ok {
			return array.DType{}, array.NewError(array.InvalidArgument, "no field %q in dtype %s", n.Field, childDT).WithDType(childDT)
		}
		return f.Type, nil
	}
	if childDT.Kind() != array.KindList {
		return array.DType{}, array.NewError(array.InvalidArgument, "GetItem[%d] on non-list dtype %s", n.Index, childDT).WithDType(childDT)
	}
	return childDT.Element().WithNullable(true), nil
}

func (n *GetItem) Evaluate(a array.Array) (array.Array, error) {
	child, err := n.Child.Evaluate(a)
	if err != nil {
		return nil, err
	}
	if n.Field != "" {
		return fieldOf(child, n.Field)
	}
	return elementOf(child, n.Index)
}

func fieldOf(a array.Array, name string) (array.Array, error) {
	fa, ok := a.(fieldAccessor)
	if !ok {
		canon, err := a.ToCanonical()
		if err != nil {
			return nil, err
		}
		fa, ok = canon.(fieldAccessor)
		if !ok {
			return nil, array.NewError(array.InvalidArgument, "dtype %s has no struct fields", a.DType()).WithDType(a.DType())
		}
	}
	f, ok := fa.Field(name)
	if !ok {
		return nil, array.NewError(array.InvalidArgument, "no field %q in dtype %s", name, a.DType()).WithDType(a.DType())
	}
	return f, nil
}

// fieldAccessor is satisfied by array.StructArray; named locally so GetItem
// does not need to import the concrete type.
type fieldAccessor interface {
	Field(name string) (array.Array, bool)
}

func elementOf(a array.Array, index int) (array.Array, error) {
	n := a.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			continue
		}
		list, ok := sc.List()
		if !ok {
			return nil, array.NewError(array.InvalidArgument, "row %d is not a list", i).WithIndex(i)
		}
		if index < 0 || index >= len(list) {
			return nil, array.NewError(array.OutOfBounds, "list element index %d out of range [0,%d) at row %d", index, len(list), i).WithIndex(i)
		}
		vals[i] = list[index]
	}
	if a.DType().Kind() != array.KindList {
		return nil, array.NewError(array.InvalidArgument, "GetItem[%d] on non-list dtype %s", index, a.DType()).WithDType(a.DType())
	}
	elemDT := a.DType().Element()
	return compute.BuildFromScalars(elemDT.WithNullable(true), vals)
}
