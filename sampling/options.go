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

// Options controls the sampling compressor (spec §4.6). The zero value is
// not valid; use DefaultOptions and override individual fields.
type Options struct {
	// SampleCount is the number of windows drawn per node (S); each
	// window's start is drawn independently, so windows may overlap.
	SampleCount int
	// SampleSize is the number of rows per window (N).
	SampleSize int
	// Seed drives the deterministic sample-window RNG: the same array
	// bytes plus the same Seed always produce the same tree (spec §4.6's
	// determinism guarantee).
	Seed uint64
	// NodeOverhead is the fixed per-node cost (in bytes) charged against
	// every candidate at every tree depth, modeling the footer/layout
	// bookkeeping a nested encoding adds (the "k" in the cost formula).
	NodeOverhead float64
	// MaxDepth bounds how many encoding layers may nest before a node is
	// forced to stop recursing and keep whatever its last chosen encoding
	// produced.
	MaxDepth int
}

// DefaultOptions returns the spec's suggested S=16/N=64 sampling
// parameters with a max tree depth of 3.
func DefaultOptions() Options {
	return Options{
		SampleCount:  16,
		SampleSize:   64,
		Seed:         0x5ca1ab1e,
		NodeOverhead: 64,
		MaxDepth:     3,
	}
}
