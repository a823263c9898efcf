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

// Package array implements the logical type system, scalar values, aligned
// buffers, and the polymorphic Array container that the rest of lattice is
// built on.
package array

import (
	"fmt"
	"strings"
)

// Kind discriminates the logical type variants a DType can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindDecimal
	KindUtf8
	KindBinary
	KindList
	KindStruct
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindDecimal:
		return "decimal"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindExtension:
		return "extension"
	default:
		return "kind(?)"
	}
}

// PType enumerates the primitive physical types a KindPrimitive DType may
// carry.
type PType uint8

const (
	U8 PType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F16
	F32
	F64
)

// ByteWidth returns the in-memory size of one value of this ptype.
func (p PType) ByteWidth() int {
	switch p {
	case U8, I8:
		return 1
	case U16, I16, F16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		panic(fmt.Sprintf("ptype(%d): unknown byte width", p))
	}
}

// IsUnsigned reports whether p is one of the unsigned integer ptypes.
func (p PType) IsUnsigned() bool {
	switch p {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsSignedInt reports whether p is one of the signed integer ptypes.
func (p PType) IsSignedInt() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether p is one of the floating point ptypes.
func (p PType) IsFloat() bool {
	switch p {
	case F16, F32, F64:
		return true
	default:
		return false
	}
}

func (p PType) String() string {
	switch p {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "ptype(?)"
	}
}

// Field is one named member of a Struct DType. Field order is significant
// and is preserved through canonicalization.
type Field struct {
	Name string
	Type DType
}

// DType is the logical type descriptor for an Array (spec §3.1). DType is a
// value type and is safe to copy; List/Struct/Extension variants share their
// nested DTypes by pointer internally but present value semantics.
type DType struct {
	kind     Kind
	nullable bool

	ptype PType // KindPrimitive

	precision int // KindDecimal
	scale     int // KindDecimal

	element *DType // KindList

	fields []Field // KindStruct

	extID      string // KindExtension
	extStorage *DType // KindExtension
	extMeta    []byte // KindExtension
}

// Null returns the Null dtype (always logically null, never carries a
// value).
func Null() DType { return DType{kind: KindNull, nullable: true} }

// Bool returns the Bool dtype.
func Bool(nullable bool) DType { return DType{kind: KindBool, nullable: nullable} }

// Primitive returns a fixed-width numeric dtype.
func Primitive(pt PType, nullable bool) DType {
	return DType{kind: KindPrimitive, ptype: pt, nullable: nullable}
}

// Decimal returns a fixed-precision decimal dtype. Precision must be in
// 1..=76 and scale must not exceed precision; violations are caught by
// Validate, not by this constructor, so that deserialization code can build
// a DType first and validate it afterward the way ion's decoders do.
func Decimal(precision, scale int, nullable bool) DType {
	return DType{kind: KindDecimal, precision: precision, scale: scale, nullable: nullable}
}

// Utf8 returns the UTF-8 string dtype.
func Utf8(nullable bool) DType { return DType{kind: KindUtf8, nullable: nullable} }

// Binary returns the opaque byte-string dtype.
func Binary(nullable bool) DType { return DType{kind: KindBinary, nullable: nullable} }

// List returns a dtype whose elements have dtype elem.
func List(elem DType, nullable bool) DType {
	e := elem
	return DType{kind: KindList, element: &e, nullable: nullable}
}

// Struct returns a dtype with the given ordered fields. Field names must be
// unique; this is enforced by Validate.
func Struct(fields []Field, nullable bool) DType {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return DType{kind: KindStruct, fields: cp, nullable: nullable}
}

// Extension returns a dtype identified by id whose physical representation
// is storage. storage must not itself be an extension dtype (Validate
// enforces this).
func Extension(id string, storage DType, meta []byte, nullable bool) DType {
	return DType{kind: KindExtension, extID: id, extStorage: &storage, extMeta: meta, nullable: nullable}
}

func (d DType) Kind() Kind        { return d.kind }
func (d DType) Nullable() bool    { return d.nullable }
func (d DType) PType() PType      { return d.ptype }
func (d DType) Precision() int    { return d.precision }
func (d DType) Scale() int        { return d.scale }
func (d DType) ExtensionID() string { return d.extID }
func (d DType) ExtensionMeta() []byte { return d.extMeta }

// Element returns the element dtype of a List dtype; it panics if d is not
// a List.
func (d DType) Element() DType {
	if d.kind != KindList {
		panic("DType.Element: not a list dtype")
	}
	return *d.element
}

// Fields returns the fields of a Struct dtype; it panics if d is not a
// Struct.
func (d DType) Fields() []Field {
	if d.kind != KindStruct {
		panic("DType.Fields: not a struct dtype")
	}
	return d.fields
}

// FieldByName looks up a struct field by name.
func (d DType) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// StorageDType returns the physical storage dtype of an Extension dtype; it
// panics if d is not an Extension.
func (d DType) StorageDType() DType {
	if d.kind != KindExtension {
		panic("DType.StorageDType: not an extension dtype")
	}
	return *d.extStorage
}

// WithNullable returns a copy of d with its nullability flag set to n. Null
// is always nullable and ignores this call.
func (d DType) WithNullable(n bool) DType {
	if d.kind == KindNull {
		return d
	}
	d.nullable = n
	return d
}

// Validate checks the invariants of spec §3.1: an extension's storage dtype
// is never itself an extension, decimal precision is in 1..=76 with scale
// no greater than precision, and struct field names are unique.
func (d DType) Validate() error {
	switch d.kind {
	case KindDecimal:
		if d.precision < 1 || d.precision > 76 {
			return fmt.Errorf("lattice: decimal precision %d out of range [1,76]", d.precision)
		}
		if d.scale > d.precision {
			return fmt.Errorf("lattice: decimal scale %d exceeds precision %d", d.scale, d.precision)
		}
	case KindList:
		if d.element == nil {
			return fmt.Errorf("lattice: list dtype missing element type")
		}
		return d.element.Validate()
	case KindStruct:
		seen := make(map[string]struct{}, len(d.fields))
		for _, f := range d.fields {
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("lattice: duplicate struct field name %q", f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := f.Type.Validate(); err != nil {
				return fmt.Errorf("lattice: field %q: %w", f.Name, err)
			}
		}
	case KindExtension:
		if d.extStorage == nil {
			return fmt.Errorf("lattice: extension dtype missing storage type")
		}
		if d.extStorage.kind == KindExtension {
			return fmt.Errorf("lattice: extension storage dtype must not itself be an extension")
		}
		return d.extStorage.Validate()
	}
	return nil
}

// Equal reports whether d and other describe the same logical type,
// including nullability.
func (d DType) Equal(other DType) bool {
	if d.kind != other.kind || d.nullable != other.nullable {
		return false
	}
	switch d.kind {
	case KindPrimitive:
		return d.ptype == other.ptype
	case KindDecimal:
		return d.precision == other.precision && d.scale == other.scale
	case KindList:
		return d.element.Equal(*other.element)
	case KindStruct:
		if len(d.fields) != len(other.fields) {
			return false
		}
		for i := range d.fields {
			if d.fields[i].Name != other.fields[i].Name || !d.fields[i].Type.Equal(other.fields[i].Type) {
				return false
			}
		}
		return true
	case KindExtension:
		return d.extID == other.extID && d.extStorage.Equal(*other.extStorage)
	default:
		return true
	}
}

// Comparable reports whether values of this dtype support a total order
// (used by min_max, is_sorted, compare with ordering operators).
func (d DType) Comparable() bool {
	switch d.kind {
	case KindStruct, KindList:
		return false
	default:
		return true
	}
}

func (d DType) String() string {
	switch d.kind {
	case KindNull:
		return "null"
	case KindBool:
		return nullSuffix("bool", d.nullable)
	case KindPrimitive:
		return nullSuffix(d.ptype.String(), d.nullable)
	case KindDecimal:
		return nullSuffix(fmt.Sprintf("decimal(%d,%d)", d.precision, d.scale), d.nullable)
	case KindUtf8:
		return nullSuffix("utf8", d.nullable)
	case KindBinary:
		return nullSuffix("binary", d.nullable)
	case KindList:
		return nullSuffix(fmt.Sprintf("list<%s>", d.element.String()), d.nullable)
	case KindStruct:
		var b strings.Builder
		b.WriteString("struct<")
		for i, f := range d.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(f.Type.String())
		}
		b.WriteString(">")
		return nullSuffix(b.String(), d.nullable)
	case KindExtension:
		return nullSuffix(fmt.Sprintf("ext<%s,%s>", d.extID, d.extStorage.String()), d.nullable)
	default:
		return "dtype(?)"
	}
}

func nullSuffix(s string, nullable bool) string {
	if nullable {
		return s + "?"
	}
	return s
}
