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
	"github.com/latticedb/lattice/expr"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/segment"
)

// CanPrune reports whether rng can be skipped entirely using the stats
// carried by whatever *layout.Stats node covers it, without reading any
// segment data (spec §4.9 step 2: "pruned ranges yield an all-false mask
// without reading data"). A false result only means pruning could not be
// proven — it never means the range necessarily has matching rows.
func CanPrune(ctx context.Context, l layout.Layout, rng Range, filter expr.Node, r *segment.Reader) (bool, error) {
	return canPrune(ctx, l, 0, rng, filter, r)
}

func canPrune(ctx context.Context, l layout.Layout, offset int, rng Range, filter expr.Node, r *segment.Reader) (bool, error) {
	switch n := l.(type) {
	case *layout.Stats:
		if rng.Lo >= offset && rng.Hi <= offset+n.Child.RowCount() &&
			(rng.Lo-offset)%n.BlockSize == 0 && rng.Len() <= n.BlockSize {
			blockIdx := (rng.Lo - offset) / n.BlockSize
			pruned, err := canPruneBlock(ctx, n, blockIdx, filter, r)
			if err != nil {
				return false, err
			}
			if pruned {
				return true, nil
			}
		}
		return canPrune(ctx, n.Child, offset, rng, filter, r)
	case *layout.Chunked:
		off := offset
		for _, c := range n.Children {
			clen := c.RowCount()
			if rng.Lo >= off && rng.Hi <= off+clen {
				return canPrune(ctx, c, off, rng, filter, r)
			}
			off += clen
		}
		return false, nil
	default:
		return false, nil
	}
}

func canPruneBlock(ctx context.Context, s *layout.Stats, blockIdx int, filter expr.Node, r *segment.Reader) (bool, error) {
	table, err := layout.MaterializeStats(ctx, s, r)
	if err != nil {
		return false, err
	}
	minCol, okMin, err := layout.StatColumn(table, array.StatMin)
	if err != nil {
		return false, err
	}
	maxCol, okMax, err := layout.StatColumn(table, array.StatMax)
	if err != nil {
		return false, err
	}
	if !okMin || !okMax {
		return false, nil
	}
	min, err := minCol.ScalarAt(blockIdx)
	if err != nil {
		return false, err
	}
	max, err := maxCol.ScalarAt(blockIdx)
	if err != nil {
		return false, err
	}
	if min.IsNull() || max.IsNull() {
		return false, nil
	}
	return canPruneByStats(filter, min, max), nil
}

// canPruneByStats pattern-matches the common pushdown shape — comparisons
// against a literal, combined with And/Or — against a block's [min, max]
// bound. Filters outside this shape (arbitrary expressions, Like, ...)
// never prune; this is a conservative scope limitation, not a correctness
// requirement (see DESIGN.md).
func canPruneByStats(n expr.Node, min, max array.Scalar) bool {
	bin, ok := n.(*expr.BinaryExpr)
	if !ok {
		return false
	}
	switch bin.Op {
	case expr.And:
		return canPruneByStats(bin.Lhs, min, max) || canPruneByStats(bin.Rhs, min, max)
	case expr.Or:
		return canPruneByStats(bin.Lhs, min, max) && canPruneByStats(bin.Rhs, min, max)
	}
	op := bin.Op
	lit, ok := bin.Rhs.(*expr.Literal)
	if !ok {
		lit, ok = bin.Lhs.(*expr.Literal)
		if !ok {
			return false
		}
		op = reverseOp(op)
	}
	return excludesRange(op, min, max, lit.Value)
}

// reverseOp restates "lit OP x" as "x reverseOp(OP) lit".
func reverseOp(op expr.BinOp) expr.BinOp {
	switch op {
	case expr.Lt:
		return expr.Gt
	case expr.Lte:
		return expr.Gte
	case expr.Gt:
		return expr.Lt
	case expr.Gte:
		return expr.Lte
	default:
		return op
	}
}

func excludesRange(op expr.BinOp, min, max, lit array.Scalar) bool {
	cmpMin, okMin := min.Compare(lit)
	cmpMax, okMax := max.Compare(lit)
	if !okMin || !okMax {
		return false
	}
	switch op {
	case expr.Eq:
		return cmpMin > 0 || cmpMax < 0
	case expr.NotEq:
		return cmpMin == 0 && cmpMax == 0
	case expr.Lt:
		return cmpMin >= 0
	case expr.Lte:
		return cmpMin > 0
	case expr.Gt:
		return cmpMax <= 0
	case expr.Gte:
		return cmpMax < 0
	default:
		return false
	}
}
