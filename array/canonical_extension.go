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

// ExtensionArray is the canonical form of the Extension dtype: the storage
// array, canonicalized, tagged with the extension's logical dtype.
type ExtensionArray struct {
	canonicalTag
	dtype   DType
	storage Array // already canonical
}

// NewExtensionArray wraps a canonical storage array as an Extension array.
// storage's dtype must equal dtype.StorageDType().
func NewExtensionArray(dtype DType, storage Array) *ExtensionArray {
	return &ExtensionArray{dtype: dtype, storage: storage}
}

func (a *ExtensionArray) Len() int           { return a.storage.Len() }
func (a *ExtensionArray) DType() DType       { return a.dtype }
func (a *ExtensionArray) EncodingID() string { return "lattice.extension" }
func (a *ExtensionArray) Validity() Validity { return a.storage.Validity() }
func (a *ExtensionArray) Children() []Array  { return []Array{a.storage} }
func (a *ExtensionArray) Buffers() []*Buffer { return nil }
func (a *ExtensionArray) Metadata() []byte   { return []byte(a.dtype.ExtensionID()) }
func (a *ExtensionArray) Statistics() *Stats { return a.storage.Statistics() }
func (a *ExtensionArray) ToCanonical() (Array, error) { return a, nil }

// Storage returns the underlying canonical storage array.
func (a *ExtensionArray) Storage() Array { return a.storage }

func (a *ExtensionArray) ScalarAt(i int) (Scalar, error) {
	return a.storage.ScalarAt(i)
}

func (a *ExtensionArray) Slice(start, stop int) (Array, error) {
	sub, err := a.storage.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return &ExtensionArray{dtype: a.dtype, storage: sub}, nil
}
