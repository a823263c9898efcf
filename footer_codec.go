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
	"bytes"
	"encoding/binary"
	"io"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/layout"
	"github.com/latticedb/lattice/segment"
)

// The footer schema of spec §6.1 item 3 is specified there as "the dtype
// flatbuffer schema" / "the layout flatbuffer schema". This module has no
// flatbuffers dependency anywhere in the corpus to ground one on, so the
// footer uses the same self-describing length-prefixed binary encoding as
// layout.SerializeArray — a tag byte per node plus varint-framed fields,
// recursed the same way encodeScalar/decodeScalar walk a DType's Kind()
// switch. This is documented in DESIGN.md as the flatbuffer-schema
// simplification.

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, array.NewError(array.CorruptFile, "truncated footer varint: %v", err)
	}
	return v, nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", array.NewError(array.CorruptFile, "truncated footer string: %v", err)
	}
	return string(raw), nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, array.NewError(array.CorruptFile, "truncated footer bool: %v", err)
	}
	return b != 0, nil
}

func encodeDType(buf *bytes.Buffer, d array.DType) {
	buf.WriteByte(byte(d.Kind()))
	writeBool(buf, d.Nullable())
	switch d.Kind() {
	case array.KindPrimitive:
		buf.WriteByte(byte(d.PType()))
	case array.KindDecimal:
		writeUvarint(buf, uint64(d.Precision()))
		writeUvarint(buf, uint64(d.Scale()))
	case array.KindList:
		elem := d.Element()
		encodeDType(buf, elem)
	case array.KindStruct:
		fields := d.Fields()
		writeUvarint(buf, uint64(len(fields)))
		for _, f := range fields {
			writeString(buf, f.Name)
			encodeDType(buf, f.Type)
		}
	case array.KindExtension:
		writeString(buf, d.ExtensionID())
		meta := d.ExtensionMeta()
		writeUvarint(buf, uint64(len(meta)))
		buf.Write(meta)
		encodeDType(buf, d.StorageDType())
	}
}

func decodeDType(r *bytes.Reader) (array.DType, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return array.DType{}, array.NewError(array.CorruptFile, "truncated footer dtype: %v", err)
	}
	nullable, err := readBool(r)
	if err != nil {
		return array.DType{}, err
	}
	switch array.Kind(kindByte) {
	case array.KindNull:
		return array.Null(), nil
	case array.KindBool:
		return array.Bool(nullable), nil
	case array.KindPrimitive:
		pt, err := r.ReadByte()
		if err != nil {
			return array.DType{}, array.NewError(array.CorruptFile, "truncated footer ptype: %v", err)
		}
		return array.Primitive(array.PType(pt), nullable), nil
	case array.KindDecimal:
		prec, err := readUvarint(r)
		if err != nil {
			return array.DType{}, err
		}
		scale, err := readUvarint(r)
		if err != nil {
			return array.DType{}, err
		}
		return array.Decimal(int(prec), int(scale), nullable), nil
	case array.KindUtf8:
		return array.Utf8(nullable), nil
	case array.KindBinary:
		return array.Binary(nullable), nil
	case array.KindList:
		elem, err := decodeDType(r)
		if err != nil {
			return array.DType{}, err
		}
		return array.List(elem, nullable), nil
	case array.KindStruct:
		n, err := readUvarint(r)
		if err != nil {
			return array.DType{}, err
		}
		fields := make([]array.Field, n)
		for i := range fields {
			name, err := readString(r)
			if err != nil {
				return array.DType{}, err
			}
			ft, err := decodeDType(r)
			if err != nil {
				return array.DType{}, err
			}
			fields[i] = array.Field{Name: name, Type: ft}
		}
		return array.Struct(fields, nullable), nil
	case array.KindExtension:
		id, err := readString(r)
		if err != nil {
			return array.DType{}, err
		}
		metaLen, err := readUvarint(r)
		if err != nil {
			return array.DType{}, err
		}
		meta := make([]byte, metaLen)
		if _, err := io.ReadFull(r, meta); err != nil {
			return array.DType{}, array.NewError(array.CorruptFile, "truncated footer extension meta: %v", err)
		}
		storage, err := decodeDType(r)
		if err != nil {
			return array.DType{}, err
		}
		return array.Extension(id, storage, meta, nullable), nil
	default:
		return array.DType{}, array.NewError(array.CorruptFile, "footer dtype: unknown kind byte %d", kindByte)
	}
}

// Layout node tags for the footer's layout-tree encoding.
const (
	layoutTagFlat byte = iota
	layoutTagChunked
	layoutTagStruct
	layoutTagStats
	layoutTagDict
)

func encodeLayout(buf *bytes.Buffer, l layout.Layout) error {
	switch n := l.(type) {
	case *layout.Flat:
		buf.WriteByte(layoutTagFlat)
		writeUvarint(buf, uint64(n.Segment))
		writeUvarint(buf, uint64(n.Rows))
		encodeDType(buf, n.Dtype)
		return nil
	case *layout.Chunked:
		buf.WriteByte(layoutTagChunked)
		writeUvarint(buf, uint64(len(n.Children)))
		for _, c := range n.Children {
			if err := encodeLayout(buf, c); err != nil {
				return err
			}
		}
		writeBool(buf, n.Stats != nil)
		if n.Stats != nil {
			if err := encodeLayout(buf, n.Stats); err != nil {
				return err
			}
		}
		return nil
	case *layout.Struct:
		buf.WriteByte(layoutTagStruct)
		encodeDType(buf, n.Dtype)
		writeUvarint(buf, uint64(n.Rows))
		writeUvarint(buf, uint64(len(n.Fields)))
		for _, f := range n.Fields {
			if err := encodeLayout(buf, f); err != nil {
				return err
			}
		}
		return nil
	case *layout.Stats:
		buf.WriteByte(layoutTagStats)
		if err := encodeLayout(buf, n.Child); err != nil {
			return err
		}
		writeUvarint(buf, uint64(n.BlockSize))
		if err := encodeLayout(buf, n.StatsTable); err != nil {
			return err
		}
		writeUvarint(buf, uint64(len(n.Present)))
		for _, st := range n.Present {
			buf.WriteByte(byte(st))
		}
		return nil
	case *layout.Dict:
		buf.WriteByte(layoutTagDict)
		if err := encodeLayout(buf, n.Values); err != nil {
			return err
		}
		return encodeLayout(buf, n.Codes)
	default:
		return array.NewError(array.NotImplemented, "footer: unsupported layout node %T", l)
	}
}

func decodeLayout(r *bytes.Reader) (layout.Layout, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, array.NewError(array.CorruptFile, "truncated footer layout: %v", err)
	}
	switch tag {
	case layoutTagFlat:
		seg, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		rows, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		dt, err := decodeDType(r)
		if err != nil {
			return nil, err
		}
		return &layout.Flat{Segment: segment.ID(seg), Rows: int(rows), Dtype: dt}, nil
	case layoutTagChunked:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		children := make([]layout.Layout, n)
		for i := range children {
			children[i], err = decodeLayout(r)
			if err != nil {
				return nil, err
			}
		}
		hasStats, err := readBool(r)
		if err != nil {
			return nil, err
		}
		c := &layout.Chunked{Children: children}
		if hasStats {
			c.Stats, err = decodeLayout(r)
			if err != nil {
				return nil, err
			}
		}
		return c, nil
	case layoutTagStruct:
		dt, err := decodeDType(r)
		if err != nil {
			return nil, err
		}
		rows, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		fields := make([]layout.Layout, n)
		for i := range fields {
			fields[i], err = decodeLayout(r)
			if err != nil {
				return nil, err
			}
		}
		return &layout.Struct{Dtype: dt, Fields: fields, Rows: int(rows)}, nil
	case layoutTagStats:
		child, err := decodeLayout(r)
		if err != nil {
			return nil, err
		}
		bs, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		table, err := decodeLayout(r)
		if err != nil {
			return nil, err
		}
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		present := make([]array.Stat, n)
		for i := range present {
			b, err := r.ReadByte()
			if err != nil {
				return nil, array.NewError(array.CorruptFile, "truncated footer stats present list: %v", err)
			}
			present[i] = array.Stat(b)
		}
		return &layout.Stats{Child: child, BlockSize: int(bs), StatsTable: table, Present: present}, nil
	case layoutTagDict:
		values, err := decodeLayout(r)
		if err != nil {
			return nil, err
		}
		codes, err := decodeLayout(r)
		if err != nil {
			return nil, err
		}
		return &layout.Dict{Values: values, Codes: codes}, nil
	default:
		return nil, array.NewError(array.CorruptFile, "footer: unknown layout tag %d", tag)
	}
}

func encodeCatalogue(buf *bytes.Buffer, cat *segment.Catalogue) {
	entries := cat.Entries()
	writeUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		writeUvarint(buf, e.Offset)
		writeUvarint(buf, e.Length)
		writeUvarint(buf, uint64(e.Alignment))
	}
}

func decodeCatalogue(r *bytes.Reader) (*segment.Catalogue, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	entries := make([]segment.Entry, n)
	for i := range entries {
		off, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		ln, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		align, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		entries[i] = segment.Entry{Offset: off, Length: ln, Alignment: uint16(align)}
	}
	return segment.FromEntries(entries), nil
}
