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

// StructArray is the canonical form of the Struct dtype: one child array
// per field, in dtype field order, each with the same length as the
// struct itself.
type StructArray struct {
	canonicalTag
	dtype    DType
	n        int
	fields   []Array
	validity Validity
	stats    *Stats
}

// NewStructArray builds a StructArray. len(fields) must equal
// len(dtype.Fields()) and every field array must have length n.
func NewStructArray(dtype DType, n int, fields []Array, validity Validity) *StructArray {
	return &StructArray{dtype: dtype, n: n, fields: fields, validity: validity, stats: NewStats()}
}

func (a *StructArray) Len() int           { return a.n }
func (a *StructArray) DType() DType       { return a.dtype }
func (a *StructArray) EncodingID() string { return "lattice.struct" }
func (a *StructArray) Validity() Validity { return a.validity }
func (a *StructArray) Children() []Array  { return a.fields }
func (a *StructArray) Buffers() []*Buffer { return nil }
func (a *StructArray) Metadata() []byte   { return nil }
func (a *StructArray) Statistics() *Stats { return a.stats }
func (a *StructArray) ToCanonical() (Array, error) { return a, nil }

// Field returns the child array for the named field.
func (a *StructArray) Field(name string) (Array, bool) {
	for i, f := range a.dtype.Fields() {
		if f.Name == name {
			return a.fields[i], true
		}
	}
	return nil, false
}

func (a *StructArray) ScalarAt(i int) (Scalar, error) {
	if i < 0 || i >= a.n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, a.n).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return NullScalar(a.dtype), nil
	}
	vals := make([]Scalar, len(a.fields))
	for k, f := range a.fields {
		sc, err := f.ScalarAt(i)
		if err != nil {
			return Scalar{}, err
		}
		vals[k] = sc
	}
	return StructScalar(a.dtype, vals, a.validity.Kind != NonNullable), nil
}

func (a *StructArray) Slice(start, stop int) (Array, error) {
	if start < 0 || stop < start || stop > a.n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.n)
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	sliced := make([]Array, len(a.fields))
	for k, f := range a.fields {
		sf, err := f.Slice(start, stop)
		if err != nil {
			return nil, err
		}
		sliced[k] = sf
	}
	return &StructArray{dtype: a.dtype, n: stop - start, fields: sliced, validity: v, stats: NewStats()}, nil
}
