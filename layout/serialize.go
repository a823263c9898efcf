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

package layout

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

// SerializeArray flattens a into a self-describing byte stream of its
// logical scalar values, one by one, for storage in a Flat layout's
// segment. Reconstruction always goes through compute.BuildFromScalars, so
// a round trip yields the canonical physical form regardless of a's
// original encoding — this is the "serialized canonical/encoded array"
// of spec §4.7, scoped here to the canonical side: per-encoding binary
// layouts (bit-packed words, FSST symbol tables, ...) stay in memory only
// and are not yet given their own on-disk wire format (see DESIGN.md).
func SerializeArray(a array.Array) ([]byte, error) {
	var buf bytes.Buffer
	dt := a.DType()
	n := a.Len()
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if err := encodeScalar(&buf, dt, sc); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DeserializeArray rebuilds a canonical array of dtype d and n rows from
// bytes produced by SerializeArray.
func DeserializeArray(d array.DType, n int, data []byte) (array.Array, error) {
	r := bytes.NewReader(data)
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := decodeScalar(r, d)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(d, vals)
}

func encodeScalar(buf *bytes.Buffer, d array.DType, s array.Scalar) error {
	if s.IsNull() {
		buf.WriteByte(0)
		return nil
	}
	buf.WriteByte(1)
	switch d.Kind() {
	case array.KindNull:
		return nil
	case array.KindBool:
		b, _ := s.Bool()
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case array.KindPrimitive:
		var bits uint64
		pt := d.PType()
		switch {
		case pt.IsFloat():
			f, _ := s.Float()
			bits = math.Float64bits(f)
		case pt.IsSignedInt():
			v, _ := s.Int()
			bits = uint64(v)
		default:
			bits, _ = s.Uint()
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], bits)
		buf.Write(tmp[:])
		return nil
	case array.KindDecimal:
		dv, _ := s.Decimal()
		neg := dv.Sign() < 0
		mag := new(big.Int).Abs(dv).Bytes()
		writeByte01(buf, neg)
		writeUvarint(buf, uint64(len(mag)))
		buf.Write(mag)
		return nil
	case array.KindUtf8:
		str, _ := s.String()
		writeUvarint(buf, uint64(len(str)))
		buf.WriteString(str)
		return nil
	case array.KindBinary:
		b, _ := s.Binary()
		writeUvarint(buf, uint64(len(b)))
		buf.Write(b)
		return nil
	case array.KindList:
		elems, _ := s.List()
		elemDT := d.Element()
		writeUvarint(buf, uint64(len(elems)))
		for _, e := range elems {
			if err := encodeScalar(buf, elemDT, e); err != nil {
				return err
			}
		}
		return nil
	case array.KindStruct:
		fvals, _ := s.Struct()
		for i, f := range d.Fields() {
			if err := encodeScalar(buf, f.Type, fvals[i]); err != nil {
				return err
			}
		}
		return nil
	case array.KindExtension:
		return encodeScalar(buf, d.StorageDType(), s)
	default:
		return array.NewError(array.NotImplemented, "serialize: unsupported dtype kind %s", d.Kind()).WithDType(d)
	}
}

func decodeScalar(r *bytes.Reader, d array.DType) (array.Scalar, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return array.Scalar{}, array.NewError(array.CorruptFile, "truncated serialized array: %v", err)
	}
	if tag == 0 {
		return array.NullScalar(d), nil
	}
	nullable := d.Nullable()
	switch d.Kind() {
	case array.KindNull:
		return array.NullScalar(d), nil
	case array.KindBool:
		b, err := r.ReadByte()
		if err != nil {
			return array.Scalar{}, array.NewError(array.CorruptFile, "truncated bool scalar: %v", err)
		}
		return array.BoolScalar(b != 0, nullable), nil
	case array.KindPrimitive:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return array.Scalar{}, array.NewError(array.CorruptFile, "truncated primitive scalar: %v", err)
		}
		bits := binary.LittleEndian.Uint64(tmp[:])
		pt := d.PType()
		switch {
		case pt.IsFloat():
			return array.FloatScalar(pt, math.Float64frombits(bits), nullable), nil
		case pt.IsSignedInt():
			return array.IntScalar(pt, int64(bits), nullable), nil
		default:
			return array.UintScalar(pt, bits, nullable), nil
		}
	case array.KindDecimal:
		neg, err := readByte01(r)
		if err != nil {
			return array.Scalar{}, err
		}
		ln, err := readUvarint(r)
		if err != nil {
			return array.Scalar{}, err
		}
		mag := make([]byte, ln)
		if _, err := io.ReadFull(r, mag); err != nil {
			return array.Scalar{}, array.NewError(array.CorruptFile, "truncated decimal scalar: %v", err)
		}
		v := new(big.Int).SetBytes(mag)
		if neg {
			v.Neg(v)
		}
		return array.DecimalScalar(d, v, nullable), nil
	case array.KindUtf8:
		ln, err := readUvarint(r)
		if err != nil {
			return array.Scalar{}, err
		}
		raw := make([]byte, ln)
		if _, err := io.ReadFull(r, raw); err != nil {
			return array.Scalar{}, array.NewError(array.CorruptFile, "truncated utf8 scalar: %v", err)
		}
		return array.StringScalar(string(raw), nullable), nil
	case array.KindBinary:
		ln, err := readUvarint(r)
		if err != nil {
			return array.Scalar{}, err
		}
		raw := make([]byte, ln)
		if _, err := io.ReadFull(r, raw); err != nil {
			return array.Scalar{}, array.NewError(array.CorruptFile, "truncated binary scalar: %v", err)
		}
		return array.BinaryScalar(raw, nullable), nil
	case array.KindList:
		ln, err := readUvarint(r)
		if err != nil {
			return array.Scalar{}, err
		}
		elemDT := d.Element()
		elems := make([]array.Scalar, ln)
		for i := range elems {
			elems[i], err = decodeScalar(r, elemDT)
			if err != nil {
				return array.Scalar{}, err
			}
		}
		return array.ListScalar(d, elems, nullable), nil
	case array.KindStruct:
		fields := d.Fields()
		vals := make([]array.Scalar, len(fields))
		var err error
		for i, f := range fields {
			vals[i], err = decodeScalar(r, f.Type)
			if err != nil {
				return array.Scalar{}, err
			}
		}
		return array.StructScalar(d, vals, nullable), nil
	case array.KindExtension:
		return decodeScalar(r, d.StorageDType())
	default:
		return array.Scalar{}, array.NewError(array.NotImplemented, "deserialize: unsupported dtype kind %s", d.Kind()).WithDType(d)
	}
}

func writeByte01(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readByte01(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, array.NewError(array.CorruptFile, "truncated serialized array: %v", err)
	}
	return b != 0, nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, array.NewError(array.CorruptFile, "truncated varint: %v", err)
	}
	return v, nil
}
