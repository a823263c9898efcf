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

import "github.com/latticedb/lattice/internal/ints"

// densityThreshold is the fraction of set bits above which Mask iteration
// prefers slice (run) representations over index lists (spec §3.7).
const densityThreshold = 0.8

type maskKind uint8

const (
	maskAllTrue maskKind = iota
	maskAllFalse
	maskValues
)

// Mask is a row selection over a fixed length (spec §3.7): AllTrue, AllFalse,
// or an explicit bit-packed boolean buffer. TrueCount is cached so repeated
// callers (filter sizing, cost estimation) don't re-scan the bitmap.
type Mask struct {
	kind      maskKind
	n         int
	bits      []byte // maskValues only; packed LSB-first, ceil(n/8) bytes
	trueCount int
}

// AllTrueMask returns a mask selecting every one of n rows.
func AllTrueMask(n int) Mask { return Mask{kind: maskAllTrue, n: n, trueCount: n} }

// AllFalseMask returns a mask selecting none of n rows.
func AllFalseMask(n int) Mask { return Mask{kind: maskAllFalse, n: n} }

// NewMaskFromBits wraps a packed bit buffer (LSB-first, one bit per row) as
// a Mask of length n.
func NewMaskFromBits(bits []byte, n int) Mask {
	tc := 0
	for i := 0; i < n; i++ {
		if ints.TestBit(bits, i) {
			tc++
		}
	}
	return Mask{kind: maskValues, n: n, bits: bits, trueCount: tc}
}

// NewMaskFromBools builds a Mask from a []bool, choosing AllTrue/AllFalse
// when the input is uniform.
func NewMaskFromBools(vals []bool) Mask {
	n := len(vals)
	bits := make([]byte, ints.BytesForBits(n))
	tc := 0
	for i, v := range vals {
		if v {
			ints.SetBit(bits, i)
			tc++
		}
	}
	if tc == n {
		return AllTrueMask(n)
	}
	if tc == 0 {
		return AllFalseMask(n)
	}
	return Mask{kind: maskValues, n: n, bits: bits, trueCount: tc}
}

// Len returns the number of rows the mask covers.
func (m Mask) Len() int { return m.n }

// TrueCount returns the number of selected rows.
func (m Mask) TrueCount() int { return m.trueCount }

// IsTrue reports whether row i is selected.
func (m Mask) IsTrue(i int) bool {
	switch m.kind {
	case maskAllTrue:
		return true
	case maskAllFalse:
		return false
	default:
		return ints.TestBit(m.bits, i)
	}
}

// Density returns the fraction of rows selected.
func (m Mask) Density() float64 {
	if m.n == 0 {
		return 0
	}
	return float64(m.trueCount) / float64(m.n)
}

// PreferSlices reports whether Density() is high enough that iterating by
// contiguous runs of set bits is likely cheaper than iterating by index
// list, per the ≈0.8 threshold in spec §4.6/§3.7.
func (m Mask) PreferSlices() bool {
	return m.Density() >= densityThreshold
}

// ToIndices materializes the mask as a list of selected row indices.
func (m Mask) ToIndices() []uint32 {
	out := make([]uint32, 0, m.trueCount)
	switch m.kind {
	case maskAllTrue:
		for i := 0; i < m.n; i++ {
			out = append(out, uint32(i))
		}
	case maskAllFalse:
	default:
		for i := 0; i < m.n; i++ {
			if ints.TestBit(m.bits, i) {
				out = append(out, uint32(i))
			}
		}
	}
	return out
}

// ToBools materializes the mask as a []bool.
func (m Mask) ToBools() []bool {
	out := make([]bool, m.n)
	switch m.kind {
	case maskAllTrue:
		for i := range out {
			out[i] = true
		}
	case maskAllFalse:
	default:
		for i := range out {
			out[i] = ints.TestBit(m.bits, i)
		}
	}
	return out
}

// Runs calls visit(start, stop) for each maximal contiguous run of selected
// rows. This is the "iterate by slices" strategy used when density is high.
func (m Mask) Runs(visit func(start, stop int)) {
	switch m.kind {
	case maskAllTrue:
		if m.n > 0 {
			visit(0, m.n)
		}
	case maskAllFalse:
	default:
		i := 0
		for i < m.n {
			if !ints.TestBit(m.bits, i) {
				i++
				continue
			}
			j := i
			for j < m.n && ints.TestBit(m.bits, j) {
				j++
			}
			visit(i, j)
			i = j
		}
	}
}

// Slice returns the sub-mask covering rows [start, stop).
func (m Mask) Slice(start, stop int) Mask {
	if start < 0 || stop < start || stop > m.n {
		panic("Mask.Slice out of range")
	}
	switch m.kind {
	case maskAllTrue:
		return AllTrueMask(stop - start)
	case maskAllFalse:
		return AllFalseMask(stop - start)
	default:
		bools := make([]bool, stop-start)
		for i := range bools {
			bools[i] = ints.TestBit(m.bits, start+i)
		}
		return NewMaskFromBools(bools)
	}
}

// And computes the (non-Kleene) logical AND of two equal-length masks.
func (m Mask) And(o Mask) Mask {
	if m.kind == maskAllFalse || o.kind == maskAllFalse {
		return AllFalseMask(m.n)
	}
	if m.kind == maskAllTrue {
		return o
	}
	if o.kind == maskAllTrue {
		return m
	}
	bools := m.ToBools()
	obools := o.ToBools()
	for i := range bools {
		bools[i] = bools[i] && obools[i]
	}
	return NewMaskFromBools(bools)
}

// Or computes the logical OR of two equal-length masks.
func (m Mask) Or(o Mask) Mask {
	if m.kind == maskAllTrue || o.kind == maskAllTrue {
		return AllTrueMask(m.n)
	}
	if m.kind == maskAllFalse {
		return o
	}
	if o.kind == maskAllFalse {
		return m
	}
	bools := m.ToBools()
	obools := o.ToBools()
	for i := range bools {
		bools[i] = bools[i] || obools[i]
	}
	return NewMaskFromBools(bools)
}

// Not inverts a mask.
func (m Mask) Not() Mask {
	switch m.kind {
	case maskAllTrue:
		return AllFalseMask(m.n)
	case maskAllFalse:
		return AllTrueMask(m.n)
	default:
		bools := m.ToBools()
		for i := range bools {
			bools[i] = !bools[i]
		}
		return NewMaskFromBools(bools)
	}
}
