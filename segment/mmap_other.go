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

//go:build !linux

package segment

import (
	"os"

	"github.com/latticedb/lattice/array"
)

// MmapSource falls back to a plain file handle wrapped in ReaderAtSource
// on platforms without the Linux mmap path (spec §11: "Darwin/Windows
// fall back to io.ReaderAt").
type MmapSource struct {
	*ReaderAtSource
	f *os.File
}

// OpenMmap opens path for reading; despite the name, on this platform it
// does not actually map the file, it just exposes the same ByteRangeReader
// surface via ReadAt.
func OpenMmap(path string) (*MmapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, array.NewError(array.IOError, "open %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, array.NewError(array.IOError, "stat %s: %v", path, err)
	}
	return &MmapSource{ReaderAtSource: &ReaderAtSource{R: f, Size_: uint64(info.Size())}, f: f}, nil
}

// Close releases the underlying file handle.
func (m *MmapSource) Close() error {
	return m.f.Close()
}

var _ ByteRangeReader = (*MmapSource)(nil)
