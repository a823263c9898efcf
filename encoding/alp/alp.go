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

// Package alp implements the Adaptive Lossless floating-Point encoding of
// spec §4.3.11: a float array represented as integer-encoded mantissas
// plus a shared (e, f) exponent pair, decoded as
// (encoded * 10^-e) * 10^-f. Values that cannot round-trip exactly through
// the chosen (e, f) are carried in an explicit Patches sparse array.
package alp

import (
	"math"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/encoding/sparse"
)

const EncodingID = "lattice.alp"

// maxExp bounds the training search space for e and f (spec §4.6 step 3:
// "compress the sample and score it" over a small candidate set).
const maxExp = 18

// Array stores one encoded int64 mantissa per row plus the shared (E, F)
// exponent pair. Patches overrides rows whose original value did not
// round-trip exactly through the encoding.
type Array struct {
	dtype   array.DType // float primitive
	encoded []int64
	e, f    int
	patches *sparse.Array // optional
	stats   *array.Stats
}

// New builds an ALP array.
func New(dtype array.DType, encoded []int64, e, f int, patches *sparse.Array) *Array {
	return &Array{dtype: dtype, encoded: encoded, e: e, f: f, patches: patches, stats: array.NewStats()}
}

func (a *Array) Len() int           { return len(a.encoded) }
func (a *Array) DType() array.DType { return a.dtype }
func (a *Array) EncodingID() string { return EncodingID }
func (a *Array) Children() []array.Array {
	if a.patches == nil {
		return nil
	}
	return []array.Array{a.patches}
}
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return array.NonNullableValidity() }

// decode applies the spec §4.3.11 formula: (encoded * 10^-e) * 10^-f.
func decode(encoded int64, e, f int) float64 {
	return (float64(encoded) * math.Pow(10, float64(-e))) * math.Pow(10, float64(-f))
}

// encode inverts decode, rounding to the nearest integer mantissa.
func encode(v float64, e, f int) int64 {
	scaled := (v * math.Pow(10, float64(f))) * math.Pow(10, float64(e))
	return int64(math.Round(scaled))
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if i < 0 || i >= len(a.encoded) {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, len(a.encoded)).WithIndex(i)
	}
	if a.patches != nil {
		if sc, err := a.patches.ScalarAt(i); err != nil {
			return array.Scalar{}, err
		} else if !sc.IsNull() {
			return sc, nil
		}
	}
	return array.FloatScalar(a.dtype.PType(), decode(a.encoded[i], a.e, a.f), a.dtype.Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	if start < 0 || stop < start || stop > len(a.encoded) {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, len(a.encoded))
	}
	var patches *sparse.Array
	if a.patches != nil {
		sub, err := a.patches.Slice(start, stop)
		if err != nil {
			return nil, err
		}
		patches = sub.(*sparse.Array)
	}
	cp := make([]int64, stop-start)
	copy(cp, a.encoded[start:stop])
	return New(a.dtype, cp, a.e, a.f, patches), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := len(a.encoded)
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

// Train picks the (e, f) pair that exactly round-trips the most values in
// samples, the way spec §4.6's training step estimates best (e, f) from a
// drawn sample; rows that do not round-trip under the winning pair are
// reported so the caller can route them to Patches.
func Train(samples []float64) (e, f int, misses []int) {
	bestScore := -1
	bestE, bestF := 0, 0
	for ce := 0; ce <= maxExp; ce++ {
		for cf := 0; cf <= maxExp; cf++ {
			score := 0
			for _, v := range samples {
				enc := encode(v, ce, cf)
				if decode(enc, ce, cf) == v {
					score++
				}
			}
			if score > bestScore {
				bestScore, bestE, bestF = score, ce, cf
			}
		}
	}
	for i, v := range samples {
		enc := encode(v, bestE, bestF)
		if decode(enc, bestE, bestF) != v {
			misses = append(misses, i)
		}
	}
	return bestE, bestF, misses
}

// Encode builds an ALP array from dense float values using the (e, f)
// pair chosen by Train, routing non-round-tripping values to Patches.
func Encode(dtype array.DType, values []float64, e, f int) *Array {
	n := len(values)
	encoded := make([]int64, n)
	var patchIdx []uint64
	var patchVals []array.Scalar
	for i, v := range values {
		enc := encode(v, e, f)
		encoded[i] = enc
		if decode(enc, e, f) != v {
			patchIdx = append(patchIdx, uint64(i))
			patchVals = append(patchVals, array.FloatScalar(dtype.PType(), v, dtype.Nullable()))
		}
	}
	var patches *sparse.Array
	if len(patchIdx) > 0 {
		pvArr, err := compute.BuildFromScalars(dtype, patchVals)
		if err == nil {
			patches = sparse.New(patchIdx, pvArr, n, array.NullScalar(dtype))
		}
	}
	return New(dtype, encoded, e, f, patches)
}
