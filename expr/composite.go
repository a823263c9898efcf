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
)

// Select projects a subset of a struct's fields, in the given order,
// dropping the rest.
type Select struct {
	Fields []string
}

func (n *Select) ReturnDType(scope array.DType) (array.DType, error) {
	if scope.Kind() != array.KindStruct {
		return array.DType{}, array.NewError(array.InvalidArgument, "Select requires struct input, got %s", scope).WithDType(scope)
	}
	fields := make([]array.Field, len(n.Fields))
	for i, name := range n.Fields {
		f, ok := scope.FieldByName(name)
		if !ok {
			return array.DType{}, array.NewError(array.InvalidArgument, "no field %q in dtype %s", name, scope).WithDType(scope)
		}
		fields[i] = f
	}
	return array.Struct(fields, scope.Nullable()), nil
}

func (n *Select) Evaluate(a array.Array) (array.Array, error) {
	dt, err := n.ReturnDType(a.DType())
	if err != nil {
		return nil, err
	}
	fields := make([]array.Array, len(n.Fields))
	for i, name := range n.Fields {
		f, err := fieldOf(a, name)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return array.NewStructArray(dt, a.Len(), fields, a.Validity()), nil
}

// Merge evaluates every child over the same input and merges their struct
// results into one struct, later children's fields overriding earlier ones
// of the same name.
type Merge struct {
	Children []Node
}

func (n *Merge) ReturnDType(scope array.DType) (array.DType, error) {
	var fields []array.Field
	for _, c := range n.Children {
		dt, err := c.ReturnDType(scope)
		if err != nil {
			return array.DType{}, err
		}
		if dt.Kind() != array.KindStruct {
			return array.DType{}, array.NewError(array.InvalidArgument, "Merge requires struct-producing children, got %s", dt).WithDType(dt)
		}
		fields = mergeFields(fields, dt.Fields())
	}
	return array.Struct(fields, scope.Nullable()), nil
}

func mergeFields(base []array.Field, add []array.Field) []array.Field {
	for _, f := range add {
		replaced := false
		for i, b := range base {
			if b.Name == f.Name {
				base[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			base = append(base, f)
		}
	}
	return base
}

func (n *Merge) Evaluate(a array.Array) (array.Array, error) {
	dt, err := n.ReturnDType(a.DType())
	if err != nil {
		return nil, err
	}
	byName := make(map[string]array.Array, len(dt.Fields()))
	for _, c := range n.Children {
		res, err := c.Evaluate(a)
		if err != nil {
			return nil, err
		}
		for _, f := range res.DType().Fields() {
			fv, err := fieldOf(res, f.Name)
			if err != nil {
				return nil, err
			}
			byName[f.Name] = fv
		}
	}
	fields := make([]array.Array, len(dt.Fields()))
	for i, f := range dt.Fields() {
		fields[i] = byName[f.Name]
	}
	return array.NewStructArray(dt, a.Len(), fields, a.Validity()), nil
}

// Pack builds a new struct whose fields are Names[i]: Children[i].Evaluate,
// independent of any input struct shape (it is how a projection introduces
// computed or renamed fields rather than merely selecting existing ones).
type Pack struct {
	Names    []string
	Children []Node
}

func (n *Pack) ReturnDType(scope array.DType) (array.DType, error) {
	fields := make([]array.Field, len(n.Names))
	for i, c := range n.Children {
		dt, err := c.ReturnDType(scope)
		if err != nil {
			return array.DType{}, err
		}
		fields[i] = array.Field{Name: n.Names[i], Type: dt}
	}
	return array.Struct(fields, false), nil
}

func (n *Pack) Evaluate(a array.Array) (array.Array, error) {
	dt, err := n.ReturnDType(a.DType())
	if err != nil {
		return nil, err
	}
	fields := make([]array.Array, len(n.Children))
	for i, c := range n.Children {
		v, err := c.Evaluate(a)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return array.NewStructArray(dt, a.Len(), fields, array.NonNullableValidity()), nil
}
