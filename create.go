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

package lattice

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/segment"
)

// WriteMagicPrefix writes the file's magic prefix; callers using a
// layout.Writer/segment.Writer pair write this before any segment bytes
// (spec §6.1 item 1). Returns the number of bytes written.
func WriteMagicPrefix(w io.Writer) (int, error) {
	n, err := w.Write(magic)
	if err != nil {
		return n, array.NewError(array.IOError, "write magic prefix: %v", err)
	}
	return n, nil
}

// WriteFooter assembles and writes the footer plus postscript for a file
// whose segment body was already written through segWriter (spec §6.1
// items 3 and 4). dtype and root describe the file's logical content;
// encodingContext is the ordered list of encoding ids actually used. If
// fileID is the zero UUID, a fresh random one is generated.
func WriteFooter(w io.Writer, dtype array.DType, root layout.Layout, segWriter *segment.Writer, encodingContext []string, fileID uuid.UUID) error {
	if fileID == uuid.Nil {
		var err error
		fileID, err = uuid.NewRandom()
		if err != nil {
			return array.NewError(array.IOError, "generate file id: %v", err)
		}
	}
	footer := &Footer{
		DType:           dtype,
		Root:            root,
		Catalogue:       segWriter.Catalogue(),
		EncodingContext: encodingContext,
		FileID:          fileID,
	}
	footerBytes, err := encodeFooter(footer)
	if err != nil {
		return err
	}
	if _, err := w.Write(footerBytes); err != nil {
		return array.NewError(array.IOError, "write footer: %v", err)
	}
	var ps [postscriptSize]byte
	binary.BigEndian.PutUint64(ps[:8], uint64(len(footerBytes)))
	copy(ps[8:], magic)
	if _, err := w.Write(ps[:]); err != nil {
		return array.NewError(array.IOError, "write postscript: %v", err)
	}
	return nil
}
