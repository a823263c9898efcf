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

// Package layout implements the file-level layout tree of spec §3.8, §4.7:
// the node types a file's footer stores to describe how its logical rows
// map onto segments, plus the composable writers that build that tree from
// a stream of arrays (§4.8) and the reader that turns it back into arrays.
package layout

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/segment"
)

// Layout is one node of the file-level layout tree (spec §3.8, §4.7).
// Every node reports the logical dtype and row count of the data it
// describes; Validate checks the node's own invariants (row-count
// arithmetic, segment ids present in the catalogue) without touching
// segment bytes.
type Layout interface {
	RowCount() int
	DType() array.DType
	// Validate checks this node's invariants against cat, recursing into
	// children. It does not read segment bytes.
	Validate(cat *segment.Catalogue) error
}

// Flat is a leaf layout: one segment id holding a serialized array (spec
// §4.7 "one segment id holding a serialized canonical/encoded array").
type Flat struct {
	Segment segment.ID
	Rows    int
	Dtype   array.DType
}

func (f *Flat) RowCount() int        { return f.Rows }
func (f *Flat) DType() array.DType   { return f.Dtype }
func (f *Flat) Validate(cat *segment.Catalogue) error {
	if _, ok := cat.Get(f.Segment); !ok {
		return array.NewError(array.CorruptFile, "flat layout references segment %d not present in catalogue", f.Segment).WithSegment(uint32(f.Segment))
	}
	return nil
}

// Chunked is N row-range-disjoint child layouts, all sharing one dtype,
// plus an optional sibling stats table with one row per chunk used for
// pruning (spec §4.7).
type Chunked struct {
	Children []Layout
	// Stats is optional (nil if absent); when present it is a layout of
	// struct dtype (ChunkedWriter writes it as a Flat leaf) with one row
	// per entry of Children, used by the scan engine
	// to prune whole chunks without reading their data.
	Stats Layout
}

func (c *Chunked) RowCount() int {
	n := 0
	for _, ch := range c.Children {
		n += ch.RowCount()
	}
	return n
}

func (c *Chunked) DType() array.DType {
	if len(c.Children) == 0 {
		return array.DType{}
	}
	return c.Children[0].DType()
}

func (c *Chunked) Validate(cat *segment.Catalogue) error {
	for i, ch := range c.Children {
		if i > 0 && !ch.DType().Equal(c.Children[0].DType()) {
			return array.NewError(array.CorruptFile, "chunked layout child %d dtype %s does not match child 0 dtype %s", i, ch.DType(), c.Children[0].DType())
		}
		if err := ch.Validate(cat); err != nil {
			return err
		}
	}
	if c.Stats != nil {
		if c.Stats.RowCount() != len(c.Children) {
			return array.NewError(array.CorruptFile, "chunked layout stats table has %d rows, want one per chunk (%d)", c.Stats.RowCount(), len(c.Children))
		}
		if err := c.Stats.Validate(cat); err != nil {
			return err
		}
	}
	return nil
}

// Struct is one child layout per struct field, all reporting the same row
// count (spec §4.7).
type Struct struct {
	Dtype  array.DType // Kind() == KindStruct
	Fields []Layout    // same order as Dtype.Fields()
	Rows   int
}

func (s *Struct) RowCount() int      { return s.Rows }
func (s *Struct) DType() array.DType { return s.Dtype }

func (s *Struct) Validate(cat *segment.Catalogue) error {
	fields := s.Dtype.Fields()
	if len(fields) != len(s.Fields) {
		return array.NewError(array.CorruptFile, "struct layout has %d fields, dtype has %d", len(s.Fields), len(fields))
	}
	for i, f := range s.Fields {
		if f.RowCount() != s.Rows {
			return array.NewError(array.CorruptFile, "struct layout field %q has %d rows, want %d", fields[i].Name, f.RowCount(), s.Rows)
		}
		if !f.DType().Equal(fields[i].Type) {
			return array.NewError(array.CorruptFile, "struct layout field %q dtype %s does not match declared dtype %s", fields[i].Name, f.DType(), fields[i].Type)
		}
		if err := f.Validate(cat); err != nil {
			return err
		}
	}
	return nil
}

// Stats wraps a single child with a sibling stats array covering
// BlockSize-row blocks; Present records which array.Stat kinds the stats
// child's struct actually carries columns for (spec §4.7).
type Stats struct {
	Child      Layout
	BlockSize  int
	StatsTable Layout
	Present    []array.Stat
}

func (s *Stats) RowCount() int      { return s.Child.RowCount() }
func (s *Stats) DType() array.DType { return s.Child.DType() }

func (s *Stats) Validate(cat *segment.Catalogue) error {
	if s.BlockSize <= 0 {
		return array.NewError(array.CorruptFile, "stats layout block size %d must be positive", s.BlockSize)
	}
	if err := s.Child.Validate(cat); err != nil {
		return err
	}
	wantBlocks := (s.Child.RowCount() + s.BlockSize - 1) / s.BlockSize
	if s.StatsTable.RowCount() != wantBlocks {
		return array.NewError(array.CorruptFile, "stats layout table has %d rows, want %d (%d rows / block size %d)", s.StatsTable.RowCount(), wantBlocks, s.Child.RowCount(), s.BlockSize)
	}
	return s.StatsTable.Validate(cat)
}

// Dict carries a values child and a codes child; the layout's logical
// dtype equals values.DType() widened with codes' nullability (spec
// §4.7).
type Dict struct {
	Values Layout
	Codes  Layout
}

func (d *Dict) RowCount() int { return d.Codes.RowCount() }
func (d *Dict) DType() array.DType {
	return d.Values.DType().WithNullable(d.Codes.DType().Nullable())
}

func (d *Dict) Validate(cat *segment.Catalogue) error {
	if !d.Codes.DType().Comparable() || d.Codes.DType().Kind() != array.KindPrimitive {
		return array.NewError(array.CorruptFile, "dict layout codes dtype %s must be a primitive integer type", d.Codes.DType())
	}
	if err := d.Values.Validate(cat); err != nil {
		return err
	}
	return d.Codes.Validate(cat)
}
