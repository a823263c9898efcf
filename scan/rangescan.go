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

package scan

import (
	"context"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/expr"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/segment"
)

// state names the three steps of a single range's evaluation (spec §4.9
// step 2). Compute kernels never suspend (spec §5), so unlike the I/O
// driver this state machine runs start to finish inside one Poll call —
// the states exist to document which step produced a given intermediate
// result, not to model a real suspend/resume boundary.
type state int

const (
	stateFilterEval state = iota
	stateProject
	stateReady
)

// RangeScan evaluates one Range of a layout: read, FilterEval, Project,
// Ready (spec §4.9 step 2).
type RangeScan struct {
	Layout     layout.Layout
	Range      Range
	Filter     expr.Node
	Projection expr.Node
	RowMask    *array.Mask

	state  state
	result array.Array
}

// NewRangeScan builds a RangeScan for rng over l (the full layout root).
func NewRangeScan(l layout.Layout, rng Range, filter, projection expr.Node, rowMask *array.Mask) *RangeScan {
	return &RangeScan{Layout: l, Range: rng, Filter: filter, Projection: projection, RowMask: rowMask}
}

// Run drives the state machine to completion, reading through r.
func (rs *RangeScan) Run(ctx context.Context, r *segment.Reader) (array.Array, error) {
	data, err := sliceLayoutRange(ctx, rs.Layout, r, rs.Range)
	if err != nil {
		return nil, err
	}

	rs.state = stateFilterEval
	mask := array.AllTrueMask(data.Len())
	if rs.RowMask != nil {
		mask = mask.And(rs.RowMask.Slice(rs.Range.Lo, rs.Range.Hi))
	}
	if rs.Filter != nil {
		fres, err := rs.Filter.Evaluate(data)
		if err != nil {
			return nil, err
		}
		fmask, err := boolArrayToMask(fres)
		if err != nil {
			return nil, err
		}
		mask = mask.And(fmask)
	}
	filtered, err := compute.Filter(data, mask)
	if err != nil {
		return nil, err
	}

	rs.state = stateProject
	out := filtered
	if rs.Projection != nil {
		out, err = rs.Projection.Evaluate(filtered)
		if err != nil {
			return nil, err
		}
	}

	rs.state = stateReady
	rs.result = out
	return out, nil
}

// boolArrayToMask reads a as a mask, treating null entries as false — a
// null filter predicate excludes the row, matching the usual SQL WHERE
// semantics rather than spec.md's Kleene-logic silence on the point.
func boolArrayToMask(a array.Array) (array.Mask, error) {
	n := a.Len()
	vals := make([]bool, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return array.Mask{}, err
		}
		if sc.IsNull() {
			continue
		}
		b, _ := sc.Bool()
		vals[i] = b
	}
	return array.NewMaskFromBools(vals), nil
}

// sliceLayoutRange materializes the smallest enclosing layout node for rng
// and slices it down to exactly rng if the node's own span is wider.
func sliceLayoutRange(ctx context.Context, l layout.Layout, r *segment.Reader, rng Range) (array.Array, error) {
	node, offset := findEnclosing(l, 0, rng)
	data, err := layout.Materialize(ctx, node, r)
	if err != nil {
		return nil, err
	}
	lo, hi := rng.Lo-offset, rng.Hi-offset
	if lo == 0 && hi == data.Len() {
		return data, nil
	}
	return compute.Slice(data, lo, hi)
}
