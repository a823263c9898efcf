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

package sampling

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

// Compressor picks, for a canonical array, the cheapest encoding tree out
// of Candidates down to Options.MaxDepth, by the cost function of spec
// §4.6: (encoded_bytes + k*tree_depth) / uncompressed_bytes, estimated
// from a handful of sampled windows rather than the whole array.
type Compressor struct {
	candidates []Candidate
	opts       Options
	nodes      uint64 // monotonic counter, salts each node's sample draw
}

// NewCompressor builds a Compressor over candidates (DefaultCandidates if
// nil) with opts; a zero SampleCount or SampleSize is filled in from
// DefaultOptions. MaxDepth is used as given, so MaxDepth 0 leaves the input
// unencoded.
func NewCompressor(candidates []Candidate, opts Options) *Compressor {
	if candidates == nil {
		candidates = DefaultCandidates()
	}
	if opts.SampleCount == 0 || opts.SampleSize == 0 {
		d := DefaultOptions()
		if opts.SampleCount == 0 {
			opts.SampleCount = d.SampleCount
		}
		if opts.SampleSize == 0 {
			opts.SampleSize = d.SampleSize
		}
	}
	return &Compressor{candidates: candidates, opts: opts}
}

// Compress returns the cheapest encoding tree rooted at a. a must already
// be a canonical array (spec §3.4); the result may be a itself, unchanged,
// if nothing scored below cost 1.0.
func (c *Compressor) Compress(a array.Array) (array.Array, error) {
	a = downscaleIntegers(a)
	return c.compressNode(a, 0, nil)
}

func (c *Compressor) compressNode(a array.Array, depth int, excluded []string) (array.Array, error) {
	if depth >= c.opts.MaxDepth || a.Len() == 0 {
		return a, nil
	}
	c.nodes++
	salt := c.nodes

	uncompressed := estimateSize(a)
	if uncompressed == 0 {
		return a, nil
	}
	samples := drawSamples(a, c.opts, salt)

	var best Candidate
	bestCost := 1.0
	for _, cand := range c.candidates {
		if stringsContain(excluded, cand.Name()) {
			continue
		}
		if !cand.CanCompress(a) {
			continue
		}
		cost, ok := c.scoreCandidate(cand, samples, depth)
		if !ok {
			continue
		}
		if cost < bestCost {
			bestCost, best = cost, cand
		}
	}
	if best == nil {
		logf("sampling: node depth=%d len=%d stays uncompressed (no candidate beat cost 1.0)", depth, a.Len())
		return a, nil
	}
	logf("sampling: node depth=%d len=%d chose %s at cost %.3f", depth, a.Len(), best.Name(), bestCost)

	recurse := func(child array.Array, moreExcluded []string) (array.Array, error) {
		childExcluded := append(append([]string{}, excluded...), moreExcluded...)
		return c.compressNode(child, depth+1, childExcluded)
	}
	return best.Compress(a, recurse)
}

// scoreCandidate compresses every sample window with cand and
// extrapolates the cost the full node would incur, without ever running
// cand.Compress on the full array just to measure it.
func (c *Compressor) scoreCandidate(cand Candidate, samples []array.Array, depth int) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var encodedTotal, rawTotal int64
	counted := 0
	noop := func(child array.Array, excluded []string) (array.Array, error) { return child, nil }
	for _, s := range samples {
		if !cand.CanCompress(s) {
			continue
		}
		encoded, err := cand.Compress(s, noop)
		if err != nil {
			continue
		}
		encodedTotal += estimateSize(encoded)
		rawTotal += estimateSize(s)
		counted++
	}
	if counted == 0 || rawTotal == 0 {
		return 0, false
	}
	ratio := float64(encodedTotal) / float64(rawTotal)
	overheadRatio := c.opts.NodeOverhead * float64(depth+1) / float64(rawTotal/int64(counted)+1)
	return ratio + overheadRatio, true
}

func stringsContain(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// downscaleIntegers narrows a primitive integer array to the tightest
// signed or unsigned ptype that still holds every value (spec §4.6's
// preprocessing step), so downstream candidates like Bit-Packed and
// Frame-of-Reference see the smallest possible starting width. Arrays
// that are not plain integers, or that are empty, pass through unchanged.
func downscaleIntegers(a array.Array) array.Array {
	dt := a.DType()
	if dt.Kind() != array.KindPrimitive || a.Len() == 0 {
		return a
	}
	pt := dt.PType()
	if !pt.IsSignedInt() && !pt.IsUnsigned() {
		return a
	}
	signed := pt.IsSignedInt()
	var minI, maxI int64
	var maxU uint64
	have := false
	for i := 0; i < a.Len(); i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return a
		}
		if sc.IsNull() {
			continue
		}
		if signed {
			v, _ := sc.Int()
			if !have || v < minI {
				minI = v
			}
			if !have || v > maxI {
				maxI = v
			}
		} else {
			v, _ := sc.Uint()
			if v > maxU {
				maxU = v
			}
		}
		have = true
	}
	if !have {
		return a
	}
	var narrow array.PType
	if signed {
		narrow = tightestSigned(minI, maxI)
	} else {
		narrow = tightestUnsigned(maxU)
	}
	if narrow == pt || narrow.ByteWidth() >= pt.ByteWidth() {
		return a
	}
	n := a.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return a
		}
		if sc.IsNull() {
			vals[i] = array.NullScalar(array.Primitive(narrow, true))
			continue
		}
		if signed {
			v, _ := sc.Int()
			vals[i] = array.IntScalar(narrow, v, dt.Nullable())
		} else {
			v, _ := sc.Uint()
			vals[i] = array.UintScalar(narrow, v, dt.Nullable())
		}
	}
	out, err := compute.BuildFromScalars(array.Primitive(narrow, dt.Nullable()), vals)
	if err != nil {
		return a
	}
	return out
}

func tightestSigned(min, max int64) array.PType {
	switch {
	case min >= -(1<<7) && max < (1<<7):
		return array.I8
	case min >= -(1<<15) && max < (1<<15):
		return array.I16
	case min >= -(1<<31) && max < (1<<31):
		return array.I32
	default:
		return array.I64
	}
}

func tightestUnsigned(max uint64) array.PType {
	switch {
	case max < (1 << 8):
		return array.U8
	case max < (1 << 16):
		return array.U16
	case max < (1 << 32):
		return array.U32
	default:
		return array.U64
	}
}
