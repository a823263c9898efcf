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

// Package fsst implements the Fast Static Symbol Table encoding of spec
// §4.3.12: a per-array table of up to 255 byte-string symbols trained from
// a sample, with each row encoded as a sequence of one-byte codes chosen
// by greedy longest-match. Code 255 is reserved as an escape meaning "the
// next raw byte is literal", matching the source's escape-byte convention.
package fsst

import (
	"sort"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.fsst"

const escapeCode = 255

// Table is a trained symbol table: up to 255 byte-string symbols, longest
// first so greedy matching prefers the longest applicable symbol.
type Table struct {
	Symbols [][]byte
}

// Train builds a Table from sample strings by greedily picking the
// highest-value repeated substrings of length 2..8, scored as
// (occurrences * (length-1)) to approximate the bytes saved per
// occurrence (spec §4.6's sample-scored candidate selection, applied here
// to symbol choice rather than encoding choice).
func Train(samples [][]byte) *Table {
	counts := make(map[string]int)
	for _, s := range samples {
		for l := 2; l <= 8; l++ {
			for i := 0; i+l <= len(s); i++ {
				counts[string(s[i:i+l])]++
			}
		}
	}
	type cand struct {
		sym   string
		score int
	}
	cands := make([]cand, 0, len(counts))
	for sym, n := range counts {
		if n < 2 {
			continue
		}
		cands = append(cands, cand{sym, n * (len(sym) - 1)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	max := 255 // code 255 reserved as escape when table isn't full
	t := &Table{}
	seen := make(map[string]bool)
	for _, c := range cands {
		if len(t.Symbols) >= max {
			break
		}
		if seen[c.sym] {
			continue
		}
		seen[c.sym] = true
		t.Symbols = append(t.Symbols, []byte(c.sym))
	}
	sort.Slice(t.Symbols, func(i, j int) bool { return len(t.Symbols[i]) > len(t.Symbols[j]) })
	return t
}

// EncodeOne greedily matches the longest symbol at each position, emitting
// an escapeCode + literal byte pair when nothing matches.
func (t *Table) EncodeOne(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		matched := -1
		for si, sym := range t.Symbols {
			if len(sym) <= len(s)-i && string(s[i:i+len(sym)]) == string(sym) {
				matched = si
				break
			}
		}
		if matched >= 0 {
			out = append(out, byte(matched))
			i += len(t.Symbols[matched])
			continue
		}
		out = append(out, escapeCode, s[i])
		i++
	}
	return out
}

// DecodeOne reverses EncodeOne.
func (t *Table) DecodeOne(codes []byte) []byte {
	out := make([]byte, 0, len(codes))
	for i := 0; i < len(codes); i++ {
		c := codes[i]
		if c == escapeCode && i+1 < len(codes) {
			out = append(out, codes[i+1])
			i++
			continue
		}
		if int(c) < len(t.Symbols) {
			out = append(out, t.Symbols[c]...)
		}
	}
	return out
}

// Array is one code-sequence per row (a [][]byte of per-row encoded
// bytes) plus the shared Table and each row's uncompressed byte length.
type Array struct {
	dtype          array.DType // utf8 or binary
	table          *Table
	codes          [][]byte // one encoded byte-sequence per row
	uncompressedLn []int
	validity       array.Validity
	stats          *array.Stats
}

// New builds an FSST array over codes already produced by Table.EncodeOne.
func New(dtype array.DType, table *Table, codes [][]byte, uncompressedLn []int, validity array.Validity) *Array {
	return &Array{dtype: dtype, table: table, codes: codes, uncompressedLn: uncompressedLn, validity: validity, stats: array.NewStats()}
}

// Encode builds an FSST array directly from uncompressed string/binary
// rows.
func Encode(dtype array.DType, table *Table, rows [][]byte, validity array.Validity) *Array {
	codes := make([][]byte, len(rows))
	lens := make([]int, len(rows))
	for i, r := range rows {
		codes[i] = table.EncodeOne(r)
		lens[i] = len(r)
	}
	return New(dtype, table, codes, lens, validity)
}

func (a *Array) Len() int                 { return len(a.codes) }
func (a *Array) DType() array.DType       { return a.dtype }
func (a *Array) EncodingID() string       { return EncodingID }
func (a *Array) Children() []array.Array  { return nil }
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.validity }

func (a *Array) decodedBytes(i int) []byte {
	return a.table.DecodeOne(a.codes[i])
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= len(a.codes) {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, len(a.codes)).WithIndex(i)
	}
	if !a.validity.IsValid(i) {
		return array.NullScalar(a.dtype), nil
	}
	raw := a.decodedBytes(i)
	if a.dtype.Kind() == array.KindUtf8 {
		return array.StringScalar(string(raw), a.dtype.Nullable()), nil
	}
	return array.BinaryScalar(raw, a.dtype.Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > len(a.codes) {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, len(a.codes))
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.dtype, a.table, a.codes[start:stop], a.uncompressedLn[start:stop], v), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := len(a.codes)
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// TakeKernel implements compute.Taker: gathering rows needs only copy the
// already-encoded per-row byte codes, never touching the shared table or
// decoding, matching spec §8's "FSST round-trip with take" scenario.
func (a *Array) TakeKernel(indices array.Array) (array.Array, error) {
	n := indices.Len()
	codes := make([][]byte, n)
	lens := make([]int, n)
	bools := make([]bool, n)
	for i := 0; i < n; i++ {
		isc, err := indices.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if isc.IsNull() {
			continue
		}
		idx, ok := isc.Int()
		if !ok {
			u, _ := isc.Uint()
			idx = int64(u)
		}
		if idx < 0 || idx >= int64(len(a.codes)) {
			return nil, array.NewError(array.OutOfBounds, "take index %d out of range [0,%d)", idx, len(a.codes)).WithIndex(i)
		}
		codes[i] = a.codes[idx]
		lens[i] = a.uncompressedLn[idx]
		bools[i] = a.validity.IsValid(int(idx))
	}
	validity := array.AllValidValidity()
	for _, v := range bools {
		if !v {
			validity = array.ArrayValidity(array.NewBoolArrayFromBools(bools, array.NonNullableValidity()))
			break
		}
	}
	return New(a.dtype.WithNullable(a.dtype.Nullable() || indices.Validity().Kind != array.NonNullable), a.table, codes, lens, validity), nil
}
