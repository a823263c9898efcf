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
	"encoding/binary"

	"github.com/dchest/siphash"

	"github.com/latticedb/lattice/array"
)

// goldenRatio64 salts the second siphash key so a zero salt does not
// collapse k0 and k1 to the same value.
const goldenRatio64 = 0x9e3779b97f4a7c15

// rng is a deterministic, seekable counter-mode stream built on
// siphash.Hash128, the same keyed hash the source uses for its
// string-dedup "seen values" tracking (see vm/siphash_generic.go). Given
// the same (k0, k1) it always produces the same sequence, which is what
// gives the compressor its reproducible-tree guarantee (spec §4.6).
type rng struct {
	k0, k1  uint64
	counter uint64
}

func newRNG(seed, salt uint64) *rng {
	return &rng{k0: seed, k1: salt ^ goldenRatio64}
}

func (r *rng) next() uint64 {
	r.counter++
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], r.counter)
	hi, _ := siphash.Hash128(r.k0, r.k1, buf[:])
	return hi
}

// drawSamples slices opts.SampleCount disjoint-or-overlapping windows of
// up to opts.SampleSize rows each out of a, at positions chosen
// deterministically from (opts.Seed, salt). salt should differ between
// sibling calls in the same tree (the Compressor derives it from a
// monotonic per-node counter) so that, e.g., a Chunked array's children
// are not all sampled identically.
func drawSamples(a array.Array, opts Options, salt uint64) []array.Array {
	n := a.Len()
	if n == 0 {
		return nil
	}
	size := opts.SampleSize
	if size > n {
		size = n
	}
	maxStart := n - size
	r := newRNG(opts.Seed, salt)
	samples := make([]array.Array, 0, opts.SampleCount)
	for i := 0; i < opts.SampleCount; i++ {
		start := 0
		if maxStart > 0 {
			start = int(r.next() % uint64(maxStart+1))
		}
		s, err := a.Slice(start, start+size)
		if err != nil {
			continue
		}
		samples = append(samples, s)
	}
	return samples
}

// estimateSize sums the byte length of every buffer reachable from a,
// recursing into its children. It is a conservative proxy for on-disk
// size: real segment bodies add compr-level compression on top, which
// the cost function in compressor.go treats as a constant factor that
// cancels out of the ratio.
func estimateSize(a array.Array) int64 {
	var total int64
	for _, b := range a.Buffers() {
		if b != nil {
			total += int64(b.Len())
		}
	}
	for _, c := range a.Children() {
		total += estimateSize(c)
	}
	return total
}
