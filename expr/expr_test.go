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
	"testing"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

func buildStructRows(t *testing.T) array.Array {
	t.Helper()
	ages := []array.Scalar{
		array.IntScalar(array.I64, 10, false),
		array.IntScalar(array.I64, 25, false),
		array.IntScalar(array.I64, 40, false),
	}
	names := []array.Scalar{
		array.StringScalar("ann", false),
		array.StringScalar("bo", false),
		array.StringScalar("cy", false),
	}
	ageArr, err := compute.BuildFromScalars(array.Primitive(array.I64, false), ages)
	if err != nil {
		t.Fatalf("build ages: %v", err)
	}
	nameArr, err := compute.BuildFromScalars(array.Utf8(false), names)
	if err != nil {
		t.Fatalf("build names: %v", err)
	}
	dt := array.Struct([]array.Field{
		{Name: "age", Type: array.Primitive(array.I64, false)},
		{Name: "name", Type: array.Utf8(false)},
	}, false)
	return array.NewStructArray(dt, 3, []array.Array{ageArr, nameArr}, array.NonNullableValidity())
}

func TestBinaryExprCompareScalar(t *testing.T) {
	rows := buildStructRows(t)
	pred := &BinaryExpr{
		Op:  Gt,
		Lhs: &GetItem{Child: Identity{}, Field: "age"},
		Rhs: &Literal{Value: array.IntScalar(array.I64, 20, false)},
	}
	out, err := pred.Evaluate(rows)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []bool{false, true, true}
	for i, w := range want {
		sc, _ := out.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestNNFPushesNotToLeaves(t *testing.T) {
	inner := &BinaryExpr{
		Op:  And,
		Lhs: &BinaryExpr{Op: Eq, Lhs: &GetItem{Child: Identity{}, Field: "age"}, Rhs: &Literal{Value: array.IntScalar(array.I64, 1, false)}},
		Rhs: &BinaryExpr{Op: Lt, Lhs: &GetItem{Child: Identity{}, Field: "age"}, Rhs: &Literal{Value: array.IntScalar(array.I64, 2, false)}},
	}
	n := &Not{Child: inner}
	got := NNF(n)
	be, ok := got.(*BinaryExpr)
	if !ok || be.Op != Or {
		t.Fatalf("expected top-level Or, got %#v", got)
	}
	lhs, ok := be.Lhs.(*BinaryExpr)
	if !ok || lhs.Op != NotEq {
		t.Fatalf("expected lhs NotEq, got %#v", be.Lhs)
	}
	rhs, ok := be.Rhs.(*BinaryExpr)
	if !ok || rhs.Op != Gte {
		t.Fatalf("expected rhs Gte, got %#v", be.Rhs)
	}
}

func TestNNFDoubleNegation(t *testing.T) {
	leaf := &BinaryExpr{Op: Eq, Lhs: &GetItem{Child: Identity{}, Field: "age"}, Rhs: &Literal{Value: array.IntScalar(array.I64, 1, false)}}
	n := &Not{Child: &Not{Child: leaf}}
	got := NNF(n)
	be, ok := got.(*BinaryExpr)
	if !ok || be.Op != Eq {
		t.Fatalf("double negation should restore original, got %#v", got)
	}
}

func TestSelectProjectsFields(t *testing.T) {
	rows := buildStructRows(t)
	sel := &Select{Fields: []string{"name"}}
	out, err := sel.Evaluate(rows)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(out.DType().Fields()) != 1 || out.DType().Fields()[0].Name != "name" {
		t.Fatalf("unexpected dtype %s", out.DType())
	}
}

func TestLikeMatchesWildcard(t *testing.T) {
	rows := buildStructRows(t)
	l := &Like{Child: &GetItem{Child: Identity{}, Field: "name"}, Pattern: "a%"}
	out, err := l.Evaluate(rows)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []bool{true, false, false}
	for i, w := range want {
		sc, _ := out.ScalarAt(i)
		got, _ := sc.Bool()
		if got != w {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}
