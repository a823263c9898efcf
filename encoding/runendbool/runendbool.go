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

// Package runendbool implements the Run-End-Boolean encoding, spec
// §4.3.17's boolean specialization of Run-End (encoding/runend): since a
// boolean run sequence alternates strictly between true and false, the
// per-run Values child is redundant with run parity and StartsTrue, so
// only the Ends array and one bit survive. There is no null support: a
// nullable bool column goes through encoding/runend instead, whose Values
// child can carry nulls per run.
package runendbool

import (
	"sort"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.runendbool"

// Array is a strictly increasing Ends array over non-nullable bool rows;
// run j's value is StartsTrue if j is even, !StartsTrue if j is odd.
type Array struct {
	ends       []uint64
	startsTrue bool
	stats      *array.Stats
}

// New builds a Run-End-Boolean array. ends must be strictly increasing.
func New(ends []uint64, startsTrue bool) *Array {
	return &Array{ends: ends, startsTrue: startsTrue, stats: array.NewStats()}
}

func (a *Array) Len() int {
	if len(a.ends) == 0 {
		return 0
	}
	return int(a.ends[len(a.ends)-1])
}
func (a *Array) DType() array.DType        { return array.Bool(false) }
func (a *Array) EncodingID() string        { return EncodingID }
func (a *Array) Children() []array.Array   { return nil }
func (a *Array) Buffers() []*array.Buffer  { return nil }
func (a *Array) Metadata() []byte          { return nil }
func (a *Array) Statistics() *array.Stats  { return a.stats }
func (a *Array) Validity() array.Validity  { return array.NonNullableValidity() }

// valueOfRun returns the value of run j given the alternating parity rule.
func (a *Array) valueOfRun(j int) bool {
	if j%2 == 0 {
		return a.startsTrue
	}
	return !a.startsTrue
}

// findRun returns the run index owning row i via lower_bound on ends.
func (a *Array) findRun(i int) int {
	return sort.Search(len(a.ends), func(j int) bool { return a.ends[j] > uint64(i) })
}

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return array.Scalar{}, array.NewError(array.OutOfBounds, "index %d out of range [0,%d)", i, n).WithIndex(i)
	}
	return array.BoolScalar(a.valueOfRun(a.findRun(i)), false), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	n := a.Len()
	if start < 0 || stop < start || stop > n {
		return nil, array.NewError(array.OutOfBounds, "slice [%d:%d) out of range for length %d", start, stop, n)
	}
	if start == stop {
		return New(nil, true), nil
	}
	firstRun := a.findRun(start)
	lastRun := a.findRun(stop - 1)
	newEnds := make([]uint64, lastRun-firstRun+1)
	for j := firstRun; j <= lastRun; j++ {
		end := a.ends[j]
		if int(end) > stop {
			end = uint64(stop)
		}
		newEnds[j-firstRun] = end - uint64(start)
	}
	return New(newEnds, a.valueOfRun(firstRun)), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.Len()
	bools := make([]bool, n)
	start := 0
	for j, end := range a.ends {
		v := a.valueOfRun(j)
		for i := start; i < int(end); i++ {
			bools[i] = v
		}
		start = int(end)
	}
	return array.NewBoolArrayFromBools(bools, array.NonNullableValidity()), nil
}

// FilterKernel implements compute.Filterer by walking runs, appending each
// surviving row's value to a new run sequence and merging it into the
// current output run when the value repeats.
func (a *Array) FilterKernel(m array.Mask) (array.Array, error) {
	var ends []uint64
	var cur bool
	haveCur := false
	count := uint64(0)
	startsTrue := true
	start := 0
	for j, end := range a.ends {
		v := a.valueOfRun(j)
		for i := start; i < int(end); i++ {
			if !m.IsTrue(i) {
				continue
			}
			if !haveCur {
				startsTrue = v
				cur = v
				haveCur = true
			} else if cur != v {
				ends = append(ends, count)
				cur = v
			}
			count++
		}
		start = int(end)
	}
	if !haveCur {
		return New(nil, true), nil
	}
	ends = append(ends, count)
	return New(ends, startsTrue), nil
}

// IsSortedKernel implements compute.SortedChecker: a boolean run sequence
// is sorted ascending iff it has at most one run, or exactly two runs
// ordered false-then-true. It is strictly sorted only when it has fewer
// than two rows, or exactly the two rows false, true.
func (a *Array) IsSortedKernel(strict bool) (array.Precision, bool) {
	runs := len(a.ends)
	if strict {
		n := a.Len()
		return array.Exact(n < 2 || (n == 2 && runs == 2 && !a.startsTrue)), true
	}
	if runs <= 1 {
		return array.Exact(true), true
	}
	if runs > 2 {
		return array.Exact(false), true
	}
	return array.Exact(!a.startsTrue), true
}

var _ compute.Filterer = (*Array)(nil)
var _ compute.SortedChecker = (*Array)(nil)
