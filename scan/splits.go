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

// Package scan implements the scan engine of spec §4.9: the row-split set,
// stats-based pruning, and the FilterEval/Project/Ready range state machine
// that drives a file's scan API.
package scan

import (
	"sort"

	"github.com/latticedb/lattice/layout"
)

// Range is a half-open row interval [Lo, Hi) of the scanned layout.
type Range struct {
	Lo, Hi int
}

func (r Range) Len() int { return r.Hi - r.Lo }

// RowSplits computes the sorted union of natural row boundaries from every
// layout node: chunk boundaries and stats-block boundaries (spec §4.9 step
// 1). Each returned Range is scanned (and pruned) independently.
func RowSplits(l layout.Layout) []Range {
	total := l.RowCount()
	bounds := map[int]struct{}{0: {}, total: {}}
	collectBounds(l, 0, bounds)

	sorted := make([]int, 0, len(bounds))
	for b := range bounds {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)

	ranges := make([]Range, 0, len(sorted)-1)
	for i := 0; i+1 < len(sorted); i++ {
		ranges = append(ranges, Range{Lo: sorted[i], Hi: sorted[i+1]})
	}
	return ranges
}

func collectBounds(l layout.Layout, offset int, bounds map[int]struct{}) {
	switch n := l.(type) {
	case *layout.Chunked:
		off := offset
		for _, c := range n.Children {
			bounds[off] = struct{}{}
			collectBounds(c, off, bounds)
			off += c.RowCount()
		}
		bounds[off] = struct{}{}
	case *layout.Struct:
		for _, f := range n.Fields {
			collectBounds(f, offset, bounds)
		}
	case *layout.Stats:
		rows := n.Child.RowCount()
		for b := 0; b < rows; b += n.BlockSize {
			bounds[offset+b] = struct{}{}
		}
		collectBounds(n.Child, offset, bounds)
	case *layout.Dict:
		collectBounds(n.Codes, offset, bounds)
	}
}

// ClipRanges restricts ranges to rng, dropping ranges outside it and
// truncating the ones that straddle its edges.
func ClipRanges(ranges []Range, rng Range) []Range {
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		lo, hi := r.Lo, r.Hi
		if lo < rng.Lo {
			lo = rng.Lo
		}
		if hi > rng.Hi {
			hi = rng.Hi
		}
		if lo < hi {
			out = append(out, Range{Lo: lo, Hi: hi})
		}
	}
	return out
}

// findEnclosing returns the smallest layout node (and its absolute row
// offset) whose own row span fully contains rng. For a Struct node whose
// fields may chunk independently, the Struct itself is returned, since a
// row range spans every field together; RangeScan slices the materialized
// Struct array at the end if the node's span is wider than rng.
func findEnclosing(l layout.Layout, offset int, rng Range) (layout.Layout, int) {
	switch n := l.(type) {
	case *layout.Chunked:
		off := offset
		for _, c := range n.Children {
			clen := c.RowCount()
			if rng.Lo >= off && rng.Hi <= off+clen {
				return findEnclosing(c, off, rng)
			}
			off += clen
		}
		return l, offset
	case *layout.Stats:
		return findEnclosing(n.Child, offset, rng)
	default:
		return l, offset
	}
}
