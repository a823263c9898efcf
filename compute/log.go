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

package compute

// Logf is a diagnostic hook used to report kernel dispatch falling back to
// canonicalize-and-retry (spec §4.1). Nil by default (silent); the root
// lattice package's SetLogger wires this up alongside its own.
var Logf func(format string, args ...any)

// SetLogger installs f as this package's diagnostic sink.
func SetLogger(f func(format string, args ...any)) { Logf = f }

func logf(format string, args ...any) {
	if Logf != nil {
		Logf(format, args...)
	}
}
