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

package segment

import (
	"bytes"
	"context"
	"testing"

	"github.com/latticedb/lattice/compr"
)

func TestWriterAndReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)
	id1, err := w.WriteSegment([]byte("hello"), 8)
	if err != nil {
		t.Fatalf("WriteSegment 1: %v", err)
	}
	id2, err := w.WriteSegment([]byte("world!!"), 8)
	if err != nil {
		t.Fatalf("WriteSegment 2: %v", err)
	}

	src := &ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	r := NewReader(w.Catalogue(), src, nil)

	got1, err := r.Read(context.Background(), id1)
	if err != nil {
		t.Fatalf("Read 1: %v", err)
	}
	if string(got1) != "hello" {
		t.Fatalf("segment 1 = %q, want %q", got1, "hello")
	}
	got2, err := r.Read(context.Background(), id2)
	if err != nil {
		t.Fatalf("Read 2: %v", err)
	}
	if string(got2) != "world!!" {
		t.Fatalf("segment 2 = %q, want %q", got2, "world!!")
	}
}

func TestReadManyCoalescesAdjacentSegments(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)
	var ids []ID
	for _, s := range []string{"aa", "bb", "cc", "dd"} {
		id, err := w.WriteSegment([]byte(s), 1)
		if err != nil {
			t.Fatalf("WriteSegment: %v", err)
		}
		ids = append(ids, id)
	}
	src := &ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	r := NewReader(w.Catalogue(), src, nil)
	out, err := r.ReadMany(context.Background(), ids)
	if err != nil {
		t.Fatalf("ReadMany: %v", err)
	}
	want := []string{"aa", "bb", "cc", "dd"}
	for i, id := range ids {
		if string(out[id]) != want[i] {
			t.Errorf("segment %d = %q, want %q", id, out[id], want[i])
		}
	}
}

func TestCatalogueRejectsNonPowerOfTwoAlignment(t *testing.T) {
	c := NewCatalogue()
	if _, err := c.Add(Entry{Offset: 0, Length: 1, Alignment: 3}); err == nil {
		t.Fatalf("expected error for non-power-of-2 alignment")
	}
}

func TestWriterAndReaderRoundTripCompressed(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, compr.Compression("s2"))
	body := bytes.Repeat([]byte("lattice segment body "), 64)
	id, err := w.WriteSegment(body, 8)
	if err != nil {
		t.Fatalf("WriteSegment: %v", err)
	}

	src := &ReaderAtSource{R: bytes.NewReader(buf.Bytes()), Size_: uint64(buf.Len())}
	r := NewReader(w.Catalogue(), src, compr.Decompression("s2"))
	got, err := r.Read(context.Background(), id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("segment round trip mismatch: got %d bytes, want %d", len(got), len(body))
	}
}

func TestWriterAlignsSegments(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)
	if _, err := w.WriteSegment([]byte("x"), 1); err != nil {
		t.Fatalf("WriteSegment 1: %v", err)
	}
	id2, err := w.WriteSegment([]byte("y"), 16)
	if err != nil {
		t.Fatalf("WriteSegment 2: %v", err)
	}
	e, ok := w.Catalogue().Get(id2)
	if !ok {
		t.Fatalf("missing catalogue entry")
	}
	if e.Offset%16 != 0 {
		t.Fatalf("segment 2 offset %d is not 16-aligned", e.Offset)
	}
}
