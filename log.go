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

// Package lattice is the top-level columnar array engine: it opens files
// written by the layout/segment/scan packages and exposes the file-level
// scan API of spec §6.3. Most of the implementation lives in the
// subpackages (array, encoding, compute, sampling, layout, segment, expr,
// scan); this package wires them together.
package lattice

import (
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/sampling"
)

// Logf is this package's diagnostic hook, settable during init. It is nil
// by default, meaning silent. The compute-kernel fallback path and the
// sampling compressor report through their own packages' Logf hooks, which
// SetLogger sets together with this one; assigning Logf directly does not
// reach them.
var Logf func(format string, args ...any)

func logf(format string, args ...any) {
	if Logf != nil {
		Logf(format, args...)
	}
}

// SetLogger installs f as the package-wide diagnostic sink, and propagates
// it to the compute and sampling packages so a fallback or compressor
// decision logged anywhere in the module reaches the same caller-supplied
// sink. Passing nil restores silence everywhere.
func SetLogger(f func(format string, args ...any)) {
	Logf = f
	compute.SetLogger(f)
	sampling.SetLogger(f)
}
