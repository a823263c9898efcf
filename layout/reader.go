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

package layout

import (
	"context"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/encoding/chunked"
	"github.com/latticedb/lattice/encoding/dict"
	"github.com/latticedb/lattice/segment"
)

// Materialize reconstructs the full logical array a layout node describes,
// reading whatever segments it needs through r. It is the non-pruning,
// non-ranged counterpart to the scan engine's RangeScan state machine
// (package scan): scan reads only the ranges and columns a query needs,
// while Materialize is the simple "give me everything" path used by tests
// and by scan's own leaf-reading step.
func Materialize(ctx context.Context, l Layout, r *segment.Reader) (array.Array, error) {
	switch n := l.(type) {
	case *Flat:
		data, err := r.Read(ctx, n.Segment)
		if err != nil {
			return nil, err
		}
		return DeserializeArray(n.Dtype, n.Rows, data)
	case *Chunked:
		chunks := make([]array.Array, len(n.Children))
		for i, c := range n.Children {
			a, err := Materialize(ctx, c, r)
			if err != nil {
				return nil, err
			}
			chunks[i] = a
		}
		return chunked.New(chunks), nil
	case *Struct:
		fields := make([]array.Array, len(n.Fields))
		for i, f := range n.Fields {
			a, err := Materialize(ctx, f, r)
			if err != nil {
				return nil, err
			}
			fields[i] = a
		}
		return array.NewStructArray(n.Dtype, n.Rows, fields, array.NonNullableValidity()), nil
	case *Stats:
		return Materialize(ctx, n.Child, r)
	case *Dict:
		values, err := Materialize(ctx, n.Values, r)
		if err != nil {
			return nil, err
		}
		codes, err := Materialize(ctx, n.Codes, r)
		if err != nil {
			return nil, err
		}
		return dict.New(codes, values), nil
	default:
		return nil, array.NewError(array.NotImplemented, "materialize: unsupported layout node %T", l)
	}
}

// MaterializeStats reads a Stats node's per-block stats table as a plain
// array (one row per block), for the scan engine's pruning step.
func MaterializeStats(ctx context.Context, s *Stats, r *segment.Reader) (array.Array, error) {
	return Materialize(ctx, s.StatsTable, r)
}

// StatColumn extracts one named statistic column from a materialized stats
// table, or ok=false if that column was not present (spec §4.7's
// "present-stats bitset").
func StatColumn(statsTable array.Array, st array.Stat) (array.Array, bool, error) {
	fa, ok := statsTable.(interface {
		Field(name string) (array.Array, bool)
	})
	if !ok {
		canon, err := statsTable.ToCanonical()
		if err != nil {
			return nil, false, err
		}
		fa, ok = canon.(interface {
			Field(name string) (array.Array, bool)
		})
		if !ok {
			return nil, false, nil
		}
	}
	col, ok := fa.Field(st.String())
	return col, ok, nil
}

// SegmentIDs collects every segment id a layout node (and its children)
// references, for catalogue-level validation or footer bookkeeping.
func SegmentIDs(l Layout) []segment.ID {
	var out []segment.ID
	collectSegmentIDs(l, &out)
	return out
}

func collectSegmentIDs(l Layout, out *[]segment.ID) {
	switch n := l.(type) {
	case *Flat:
		*out = append(*out, n.Segment)
	case *Chunked:
		for _, c := range n.Children {
			collectSegmentIDs(c, out)
		}
		if n.Stats != nil {
			collectSegmentIDs(n.Stats, out)
		}
	case *Struct:
		for _, f := range n.Fields {
			collectSegmentIDs(f, out)
		}
	case *Stats:
		collectSegmentIDs(n.Child, out)
		collectSegmentIDs(n.StatsTable, out)
	case *Dict:
		collectSegmentIDs(n.Values, out)
		collectSegmentIDs(n.Codes, out)
	}
}
