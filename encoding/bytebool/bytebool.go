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

// Package bytebool implements the ByteBool encoding of spec §4.3.16:
// booleans stored one byte per row (0x00/0x01) rather than bit-packed, for
// callers that need byte-addressable access. It canonicalizes to the
// bit-packed Bool array.
package bytebool

import (
	"github.com/latticedb/lattice/array"
)

const EncodingID = "lattice.bytebool"

// Array is one byte per row: 0 = false, 1 = true. Validity is tracked
// separately since a byte value alone cannot distinguish null from false.
type Array struct {
	bytes    []byte
	validity array.Validity
	stats    *array.Stats
}

// New wraps a byte slice (one entry per row) as a ByteBool array.
func New(bytes []byte, validity array.Validity) *Array {
	return &Array{bytes: bytes, validity: validity, stats: array.NewStats()}
}

func (a *Array) Len() int { return len(a.bytes) }
func (a *Array) DType() array.DType {
	return array.Bool(a.validity.Kind != array.NonNullable)
}
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return nil }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.validity }

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= len(a.bytes) {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, len(a.bytes)).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return array.NullScalar(a.DType()), nil
	}
	return array.BoolScalar(a.bytes[i] != 0, a.DType().Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > len(a.bytes) {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, len(a.bytes))
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.bytes[start:stop], v), nil
}

// ToCanonical decodes to the bit-packed BoolArray (spec §4.3.16).
func (a *Array) ToCanonical() (array.Array, error) {
	bools := make([]bool, len(a.bytes))
	for i, b := range a.bytes {
		bools[i] = b != 0
	}
	return array.NewBoolArrayFromBools(bools, a.validity), nil
}
