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

// Package sampling implements the cost-driven encoding compressor of spec
// §4.6: given a canonical array, it samples a handful of small windows,
// scores every candidate encoding's compressed size against each window,
// and recursively picks the cheapest encoding tree down to a depth budget.
package sampling

// Logf is a diagnostic hook reporting which candidate a node chose and why
// (spec §4.6's "why" is mostly "lowest estimated cost"). Nil by default.
var Logf func(format string, args ...any)

// SetLogger installs f as this package's diagnostic sink.
func SetLogger(f func(format string, args ...any)) { Logf = f }

func logf(format string, args ...any) {
	if Logf != nil {
		Logf(format, args...)
	}
}
