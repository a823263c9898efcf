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

// Package segment implements the segment catalogue and byte-range I/O of
// spec §3.9, §6.2, §6.5: an addressable, contiguous byte range in a file,
// identified by a dense integer id, plus the reader/writer abstractions
// that turn those ids into actual bytes.
package segment

import "github.com/latticedb/lattice/array"

// ID is a dense integer identifying one segment within a file's catalogue.
type ID uint32

// Entry is one segment catalogue row: where the segment lives and how it
// must be aligned for zero-copy typed views (spec §6.2).
type Entry struct {
	Offset    uint64
	Length    uint64
	Alignment uint16 // power of 2, <= 65535
}

// Catalogue is the file-wide id -> Entry table (spec §3.9, §6.1 item 3).
type Catalogue struct {
	entries []Entry
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

// Add appends e and returns the ID it was assigned.
func (c *Catalogue) Add(e Entry) (ID, error) {
	if e.Alignment == 0 || e.Alignment&(e.Alignment-1) != 0 {
		return 0, array.NewError(array.InvalidArgument, "segment alignment %d is not a power of 2", e.Alignment)
	}
	id := ID(len(c.entries))
	c.entries = append(c.entries, e)
	return id, nil
}

// Get returns the entry for id, if present.
func (c *Catalogue) Get(id ID) (Entry, bool) {
	if int(id) < 0 || int(id) >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[id], true
}

// Len returns the number of segments in the catalogue.
func (c *Catalogue) Len() int { return len(c.entries) }

// Entries returns the catalogue in id order, for footer serialization.
func (c *Catalogue) Entries() []Entry {
	return c.entries
}

// FromEntries rebuilds a Catalogue from a footer-deserialized entry list,
// preserving the ids implied by slice position.
func FromEntries(entries []Entry) *Catalogue {
	return &Catalogue{entries: append([]Entry(nil), entries...)}
}
