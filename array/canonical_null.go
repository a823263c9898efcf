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

// NullArray is the canonical form of the Null dtype: every row is null and
// no buffers are carried.
type NullArray struct {
	canonicalTag
	n     int
	stats *Stats
}

// NewNullArray returns a NullArray of length n.
func NewNullArray(n int) *NullArray {
	return &NullArray{n: n, stats: NewStats()}
}

func (a *NullArray) Len() int               { return a.n }
func (a *NullArray) DType() DType           { return Null() }
func (a *NullArray) EncodingID() string     { return "lattice.null" }
func (a *NullArray) Validity() Validity     { return AllInvalidValidity() }
func (a *NullArray) Children() []Array      { return nil }
func (a *NullArray) Buffers() []*Buffer     { return nil }
func (a *NullArray) Metadata() []byte       { return nil }
func (a *NullArray) Statistics() *Stats     { return a.stats }
func (a *NullArray) ToCanonical() (Array, error) { return a, nil }

func (a *NullArray) ScalarAt(i int) (Scalar, error) {
	if i < 0 || i >= a.n {
		return Scalar{}, NewError(OutOfBounds, "index %d out of range [0,%d)", i, a.n).WithIndex(i)
	}
	return NullScalar(Null()), nil
}

func (a *NullArray) Slice(start, stop int) (Array, error) {
	if start < 0 || stop < start || stop > a.n {
		return nil, NewError(OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, a.n)
	}
	return NewNullArray(stop - start), nil
}
