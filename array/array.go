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

// Array is the polymorphic typed sequence every encoding implements (spec
// §3.3, §4.1). It plays the role the source implementation splits across
// several vtables (ArrayVTable, ValidityVTable, VisitorVTable): Go's
// interface satisfaction makes a single method set sufficient, and optional
// capabilities (fast compute kernels, serialization) are expressed as
// additional interfaces that a concrete encoding may or may not implement,
// analogous to the source's optional ComputeVTable/SerdeVTable (see
// compute.Filterer, compute.Taker, etc. in the compute package, and
// layout.Serializable in the layout package).
//
// Implementations must be immutable and cheap to copy/share: Slice,
// Children, and Buffers should avoid deep copies wherever the encoding
// permits.
type Array interface {
	// Len returns the number of logical rows.
	Len() int
	// DType returns the logical type.
	DType() DType
	// EncodingID returns the stable id of the physical encoding (e.g.
	// "lattice.primitive", "lattice.dict").
	EncodingID() string
	// Validity returns the per-row null indicator.
	Validity() Validity
	// ScalarAt returns the logical value at row i.
	ScalarAt(i int) (Scalar, error)
	// Slice returns a (possibly zero-copy) view of rows [start, stop).
	Slice(start, stop int) (Array, error)
	// Children returns the encoding's child arrays, opaque to callers that
	// do not understand this particular encoding's contract.
	Children() []Array
	// Buffers returns the encoding's raw buffers, similarly opaque.
	Buffers() []*Buffer
	// Metadata returns encoding-specific serialized metadata.
	Metadata() []byte
	// ToCanonical decodes the array into its canonical physical form (spec
	// §3.4). It must be lossless and idempotent when called on an
	// already-canonical array.
	ToCanonical() (Array, error)
	// Statistics returns the array's lazily-populated statistics cache.
	Statistics() *Stats
}

// IsValid is a convenience wrapper around a.Validity().IsValid(i).
func IsValid(a Array, i int) bool {
	return a.Validity().IsValid(i)
}

// canonicalTag is embedded by every canonical encoding's struct so that
// Canonical type assertions (`_, ok := a.(Canonical)`) only succeed for the
// fixed set of "decompressed" physical encodings named in spec §3.4.
type canonicalTag struct{}

func (canonicalTag) isCanonical() {}

// Canonical is implemented only by the canonical physical encodings (Null,
// Bool, Primitive, Decimal, VarBinView, List, Struct, Extension-over-
// canonical-storage). Compute kernels that lack a fast path for some
// encoding canonicalize-and-retry against a Canonical array (spec §4.1).
type Canonical interface {
	Array
	isCanonical()
}
