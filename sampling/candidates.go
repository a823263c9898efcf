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

import (
	"math/big"

	roaringlib "github.com/RoaringBitmap/roaring"

	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
	"github.com/latticedb/lattice/encoding/alp"
	"github.com/latticedb/lattice/encoding/bitpacked"
	"github.com/latticedb/lattice/encoding/bytebool"
	"github.com/latticedb/lattice/encoding/constant"
	"github.com/latticedb/lattice/encoding/datetimeparts"
	"github.com/latticedb/lattice/encoding/decimalbyteparts"
	"github.com/latticedb/lattice/encoding/delta"
	"github.com/latticedb/lattice/encoding/dict"
	"github.com/latticedb/lattice/encoding/frameref"
	"github.com/latticedb/lattice/encoding/fsst"
	"github.com/latticedb/lattice/encoding/roaring"
	"github.com/latticedb/lattice/encoding/runend"
	"github.com/latticedb/lattice/encoding/runendbool"
	"github.com/latticedb/lattice/encoding/sparse"
	"github.com/latticedb/lattice/encoding/zigzag"
	"github.com/latticedb/lattice/internal/ints"
)

// timestampExtensionID is the ExtensionID a KindExtension dtype must carry
// for DateTimeParts to apply (spec §4.3.13 wraps an I64-nanoseconds
// logical timestamp in an extension dtype, since the format has no
// built-in timestamp Kind).
const timestampExtensionID = "lattice.timestamp"

// RecurseFunc lets a Candidate hand a child array it just produced back to
// the Compressor for its own independent, depth-bounded re-compression.
// excluded names candidates this child may not itself choose (spec §4.6's
// excluded-descendant rule, e.g. a Bit-Packed array's Patches child may
// not itself be Bit-Packed-with-patches).
type RecurseFunc func(child array.Array, excluded []string) (array.Array, error)

// Candidate is one encoding the compressor may choose for a node. Name
// must be stable and match the names used in excluded-descendant lists.
type Candidate interface {
	Name() string
	// CanCompress reports whether this candidate even applies to a's
	// dtype and contents, without doing real work.
	CanCompress(a array.Array) bool
	// Compress builds the candidate's encoding of the entirety of a,
	// recursing into any child arrays it creates via recurse.
	Compress(a array.Array, recurse RecurseFunc) (array.Array, error)
}

// scalars materializes every row of a as a Scalar slice; used by
// candidates that need to see all the data rather than stream it (sample
// windows are small, spec's N=64, so this is cheap).
func scalars(a array.Array) ([]array.Scalar, error) {
	n := a.Len()
	out := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = sc
	}
	return out, nil
}

func scalarEqual(a, b array.Scalar) bool {
	cmp, ok := a.Compare(b)
	return ok && cmp == 0
}

// --- Constant -------------------------------------------------------------

type ConstantCandidate struct{}

func (ConstantCandidate) Name() string { return constant.EncodingID }

func (ConstantCandidate) CanCompress(a array.Array) bool {
	return a.DType().Comparable()
}

func (ConstantCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return constant.New(array.NullScalar(a.DType()), 0), nil
	}
	first := vals[0]
	for _, v := range vals[1:] {
		if !scalarEqual(first, v) {
			return nil, array.NewError(array.InvalidArgument, "ConstantCandidate: not constant")
		}
	}
	return constant.New(first, len(vals)), nil
}

// --- Run-End ---------------------------------------------------------------

type RunEndCandidate struct{}

func (RunEndCandidate) Name() string { return runend.EncodingID }

func (RunEndCandidate) CanCompress(a array.Array) bool { return a.DType().Comparable() }

func (RunEndCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	var ends []uint64
	var runVals []array.Scalar
	for i, v := range vals {
		if len(runVals) == 0 || !scalarEqual(runVals[len(runVals)-1], v) {
			runVals = append(runVals, v)
			ends = append(ends, uint64(i))
		} else {
			ends[len(ends)-1] = uint64(i)
		}
	}
	for i := range ends {
		ends[i]++
	}
	valuesArr, err := compute.BuildFromScalars(a.DType(), runVals)
	if err != nil {
		return nil, err
	}
	valuesArr, err = recurse(valuesArr, []string{runend.EncodingID})
	if err != nil {
		return nil, err
	}
	return runend.New(ends, valuesArr), nil
}

// --- Sparse ------------------------------------------------------------

type SparseCandidate struct{}

func (SparseCandidate) Name() string { return sparse.EncodingID }

func (SparseCandidate) CanCompress(a array.Array) bool { return a.DType().Comparable() }

func (SparseCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	rep := make(map[string]array.Scalar)
	keyOf := func(s array.Scalar) string {
		gs := s.GoString()
		return gs
	}
	for _, v := range vals {
		k := keyOf(v)
		counts[k]++
		rep[k] = v
	}
	var fillKey string
	best := -1
	for k, c := range counts {
		if c > best {
			best, fillKey = c, k
		}
	}
	fill := rep[fillKey]
	var idx []uint64
	var exVals []array.Scalar
	for i, v := range vals {
		if !scalarEqual(v, fill) {
			idx = append(idx, uint64(i))
			exVals = append(exVals, v)
		}
	}
	valuesArr, err := compute.BuildFromScalars(a.DType(), exVals)
	if err != nil {
		return nil, err
	}
	valuesArr, err = recurse(valuesArr, []string{sparse.EncodingID})
	if err != nil {
		return nil, err
	}
	return sparse.New(idx, valuesArr, len(vals), fill), nil
}

// --- Dictionary --------------------------------------------------------

type DictCandidate struct{}

func (DictCandidate) Name() string { return dict.EncodingID }

func (DictCandidate) CanCompress(a array.Array) bool {
	k := a.DType().Kind()
	return k == array.KindUtf8 || k == array.KindBinary || a.DType().Comparable()
}

func (DictCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	var distinct []array.Scalar
	codes := make([]array.Scalar, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			codes[i] = array.NullScalar(array.Primitive(array.I32, true))
			continue
		}
		pos := -1
		for j, d := range distinct {
			if scalarEqual(d, v) {
				pos = j
				break
			}
		}
		if pos < 0 {
			pos = len(distinct)
			distinct = append(distinct, v)
		}
		codes[i] = array.IntScalar(array.I32, int64(pos), true)
	}
	codesArr, err := compute.BuildFromScalars(array.Primitive(array.I32, true), codes)
	if err != nil {
		return nil, err
	}
	valuesArr, err := compute.BuildFromScalars(a.DType().WithNullable(false), distinct)
	if err != nil {
		return nil, err
	}
	codesArr, err = recurse(codesArr, []string{dict.EncodingID})
	if err != nil {
		return nil, err
	}
	return dict.New(codesArr, valuesArr), nil
}

// --- Zig-Zag -------------------------------------------------------------

type ZigZagCandidate struct{}

func (ZigZagCandidate) Name() string { return zigzag.EncodingID }

func (ZigZagCandidate) CanCompress(a array.Array) bool {
	return a.DType().Kind() == array.KindPrimitive && a.DType().PType().IsSignedInt()
}

func (ZigZagCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	pt := a.DType().PType()
	unsignedOf := unsignedCounterpart(pt)
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	enc := make([]array.Scalar, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			enc[i] = array.NullScalar(array.Primitive(unsignedOf, true))
			continue
		}
		iv, _ := v.Int()
		enc[i] = array.UintScalar(unsignedOf, zigzag.EncodeScalar(pt, iv), a.DType().Nullable())
	}
	encArr, err := compute.BuildFromScalars(array.Primitive(unsignedOf, a.DType().Nullable()), enc)
	if err != nil {
		return nil, err
	}
	encArr, err = recurse(encArr, []string{zigzag.EncodingID})
	if err != nil {
		return nil, err
	}
	return zigzag.New(a.DType(), encArr), nil
}

func unsignedCounterpart(pt array.PType) array.PType {
	switch pt {
	case array.I8:
		return array.U8
	case array.I16:
		return array.U16
	case array.I32:
		return array.U32
	default:
		return array.U64
	}
}

// --- Frame-of-Reference --------------------------------------------------

type FrameOfReferenceCandidate struct{}

func (FrameOfReferenceCandidate) Name() string { return frameref.EncodingID }

func (FrameOfReferenceCandidate) CanCompress(a array.Array) bool {
	return a.DType().Kind() == array.KindPrimitive && (a.DType().PType().IsSignedInt() || a.DType().PType().IsUnsigned())
}

func (FrameOfReferenceCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	pt := a.DType().PType()
	signed := pt.IsSignedInt()
	var minI int64
	var minU uint64
	haveRef := false
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		if signed {
			iv, _ := v.Int()
			if !haveRef || iv < minI {
				minI, haveRef = iv, true
			}
		} else {
			uv, _ := v.Uint()
			if !haveRef || uv < minU {
				minU, haveRef = uv, true
			}
		}
	}
	unsignedOf := unsignedCounterpart(pt)
	offsets := make([]array.Scalar, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			offsets[i] = array.NullScalar(array.Primitive(unsignedOf, true))
			continue
		}
		if signed {
			iv, _ := v.Int()
			offsets[i] = array.UintScalar(unsignedOf, uint64(iv-minI), a.DType().Nullable())
		} else {
			uv, _ := v.Uint()
			offsets[i] = array.UintScalar(unsignedOf, uv-minU, a.DType().Nullable())
		}
	}
	var reference array.Scalar
	if signed {
		reference = array.IntScalar(pt, minI, false)
	} else {
		reference = array.UintScalar(pt, minU, false)
	}
	offsetsArr, err := compute.BuildFromScalars(array.Primitive(unsignedOf, a.DType().Nullable()), offsets)
	if err != nil {
		return nil, err
	}
	offsetsArr, err = recurse(offsetsArr, []string{frameref.EncodingID})
	if err != nil {
		return nil, err
	}
	return frameref.New(a.DType(), reference, offsetsArr), nil
}

// --- Bit-Packed ----------------------------------------------------------

type BitPackedCandidate struct{}

func (BitPackedCandidate) Name() string { return bitpacked.EncodingID }

// CanCompress applies only to non-negative integers: the encoding packs
// the raw scalar bits at bitWidth, with no implicit frame-of-reference
// subtraction (spec §4.3.8 leaves that composition to the tree builder
// layering Bit-Packed under Frame-of-Reference, not inside it).
func (BitPackedCandidate) CanCompress(a array.Array) bool {
	if a.DType().Kind() != array.KindPrimitive {
		return false
	}
	pt := a.DType().PType()
	if pt.IsUnsigned() {
		return true
	}
	if !pt.IsSignedInt() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return false
		}
		if sc.IsNull() {
			continue
		}
		iv, _ := sc.Int()
		if iv < 0 {
			return false
		}
	}
	return true
}

func (BitPackedCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	var maxV uint64
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		var uv uint64
		if iv, ok := v.Int(); ok {
			uv = uint64(iv)
		} else if u, ok := v.Uint(); ok {
			uv = u
		}
		if uv > maxV {
			maxV = uv
		}
	}
	bitWidth := bitsNeeded(maxV)
	if bitWidth == 0 {
		bitWidth = 1
	}
	packed := make([]byte, (len(vals)*bitWidth+7)/8)
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		var uv uint64
		if iv, ok := v.Int(); ok {
			uv = uint64(iv)
		} else if u, ok := v.Uint(); ok {
			uv = u
		}
		bitOff := i * bitWidth
		for b := 0; b < bitWidth; b++ {
			if uv&(1<<uint(b)) != 0 {
				ints.SetBit(packed, bitOff+b)
			}
		}
	}
	return bitpacked.New(a.DType(), packed, bitWidth, len(vals), nil), nil
}

func bitsNeeded(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// --- Delta -----------------------------------------------------------------

type DeltaCandidate struct {
	BlockLen int
}

func (DeltaCandidate) Name() string { return delta.EncodingID }

func (DeltaCandidate) CanCompress(a array.Array) bool {
	return a.DType().Kind() == array.KindPrimitive && a.DType().PType().IsSignedInt()
}

func (c DeltaCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	blockLen := c.BlockLen
	if blockLen <= 0 {
		blockLen = 128
	}
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	n := len(vals)
	numBlocks := (n + blockLen - 1) / blockLen
	bases := make([]array.Scalar, numBlocks)
	deltas := make([]array.Scalar, n)
	pt := a.DType().PType()
	for block := 0; block < numBlocks; block++ {
		start := block * blockLen
		stop := start + blockLen
		if stop > n {
			stop = n
		}
		base, _ := vals[start].Int()
		bases[block] = array.IntScalar(pt, base, vals[start].IsNull())
		prev := base
		for i := start; i < stop; i++ {
			if i == start {
				deltas[i] = array.IntScalar(pt, 0, false)
				continue
			}
			if vals[i].IsNull() {
				deltas[i] = array.NullScalar(a.DType())
				continue
			}
			v, _ := vals[i].Int()
			deltas[i] = array.IntScalar(pt, v-prev, false)
			prev = v
		}
	}
	deltasArr, err := compute.BuildFromScalars(a.DType(), deltas)
	if err != nil {
		return nil, err
	}
	deltasArr, err = recurse(deltasArr, []string{delta.EncodingID})
	if err != nil {
		return nil, err
	}
	return delta.New(a.DType(), blockLen, bases, deltasArr, n), nil
}

// --- ALP -------------------------------------------------------------------

type ALPCandidate struct{}

func (ALPCandidate) Name() string { return alp.EncodingID }

func (ALPCandidate) CanCompress(a array.Array) bool {
	return a.DType().Kind() == array.KindPrimitive && a.DType().PType().IsFloat()
}

func (ALPCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	floats := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		f, _ := v.Float()
		floats = append(floats, f)
	}
	e, f, _ := alp.Train(floats)
	all := make([]float64, len(vals))
	for i, v := range vals {
		if !v.IsNull() {
			fv, _ := v.Float()
			all[i] = fv
		}
	}
	return alp.Encode(a.DType(), all, e, f), nil
}

// --- FSST --------------------------------------------------------------

type FSSTCandidate struct{}

func (FSSTCandidate) Name() string { return fsst.EncodingID }

func (FSSTCandidate) CanCompress(a array.Array) bool {
	k := a.DType().Kind()
	return k == array.KindUtf8 || k == array.KindBinary
}

func (FSSTCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	rows := make([][]byte, len(vals))
	var samples [][]byte
	validity := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		validity[i] = true
		var b []byte
		if s, ok := v.String(); ok {
			b = []byte(s)
		} else if bs, ok := v.Binary(); ok {
			b = bs
		}
		rows[i] = b
		samples = append(samples, b)
	}
	table := fsst.Train(samples)
	return fsst.Encode(a.DType(), table, rows, array.ArrayValidity(array.NewBoolArrayFromBools(validity, array.NonNullableValidity()))), nil
}

// --- DateTimeParts -----------------------------------------------------

type DateTimePartsCandidate struct{}

func (DateTimePartsCandidate) Name() string { return datetimeparts.EncodingID }

func (DateTimePartsCandidate) CanCompress(a array.Array) bool {
	dt := a.DType()
	return dt.Kind() == array.KindExtension && dt.ExtensionID() == timestampExtensionID
}

func (DateTimePartsCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	nanos := make([]int64, len(vals))
	validity := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		validity[i] = true
		n, _ := v.Int()
		nanos[i] = n
	}
	return datetimeparts.Encode(a.DType(), nanos, array.ArrayValidity(array.NewBoolArrayFromBools(validity, array.NonNullableValidity())))
}

// --- Decimal-Byte-Parts --------------------------------------------------

type DecimalBytePartsCandidate struct{}

func (DecimalBytePartsCandidate) Name() string { return decimalbyteparts.EncodingID }

func (DecimalBytePartsCandidate) CanCompress(a array.Array) bool {
	return a.DType().Kind() == array.KindDecimal
}

func (DecimalBytePartsCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	vals, err := scalars(a)
	if err != nil {
		return nil, err
	}
	values := make([]*big.Int, len(vals))
	validity := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			values[i] = new(big.Int)
			continue
		}
		validity[i] = true
		d, _ := v.Decimal()
		values[i] = d
	}
	return decimalbyteparts.Encode(a.DType(), values, array.ArrayValidity(array.NewBoolArrayFromBools(validity, array.NonNullableValidity())))
}

// --- Boolean family: Roaring, ByteBool, RunEndBool ------------------------

type RoaringBoolCandidate struct{}

func (RoaringBoolCandidate) Name() string { return roaring.BoolEncodingID }

func (RoaringBoolCandidate) CanCompress(a array.Array) bool { return a.DType().Kind() == array.KindBool }

func (RoaringBoolCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	bm := roaringlib.New()
	for i := 0; i < a.Len(); i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if b, ok := sc.Bool(); ok && b {
			bm.Add(uint32(i))
		}
	}
	return roaring.NewBool(bm, a.Len()), nil
}

type ByteBoolCandidate struct{}

func (ByteBoolCandidate) Name() string { return bytebool.EncodingID }

func (ByteBoolCandidate) CanCompress(a array.Array) bool { return a.DType().Kind() == array.KindBool }

func (ByteBoolCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	bytes := make([]byte, a.Len())
	valid := make([]bool, a.Len())
	anyInvalid := false
	for i := range bytes {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if b, ok := sc.Bool(); ok {
			valid[i] = true
			if b {
				bytes[i] = 1
			}
		} else {
			anyInvalid = true
		}
	}
	validity := array.AllValidValidity()
	if anyInvalid {
		validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
	}
	return bytebool.New(bytes, validity), nil
}

type RunEndBoolCandidate struct{}

func (RunEndBoolCandidate) Name() string { return runendbool.EncodingID }

// CanCompress requires no nulls: spec §4.3.17 routes nullable bools
// through encoding/runend instead, since Run-End-Boolean has no null
// representation of its own.
func (RunEndBoolCandidate) CanCompress(a array.Array) bool {
	if a.DType().Kind() != array.KindBool {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		sc, err := a.ScalarAt(i)
		if err != nil || sc.IsNull() {
			return false
		}
	}
	return true
}

func (RunEndBoolCandidate) Compress(a array.Array, recurse RecurseFunc) (array.Array, error) {
	n := a.Len()
	if n == 0 {
		return runendbool.New(nil, true), nil
	}
	var ends []uint64
	first, err := a.ScalarAt(0)
	if err != nil {
		return nil, err
	}
	cur, _ := first.Bool()
	startsTrue := cur
	for i := 1; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		b, _ := sc.Bool()
		if b != cur {
			ends = append(ends, uint64(i))
			cur = b
		}
	}
	ends = append(ends, uint64(n))
	return runendbool.New(ends, startsTrue), nil
}

// DefaultCandidates returns every Candidate grounded in this module's
// encoding/* packages (spec §4.6's candidate pool).
func DefaultCandidates() []Candidate {
	return []Candidate{
		ConstantCandidate{},
		RunEndCandidate{},
		RunEndBoolCandidate{},
		RoaringBoolCandidate{},
		ByteBoolCandidate{},
		DictCandidate{},
		SparseCandidate{},
		ZigZagCandidate{},
		FrameOfReferenceCandidate{},
		BitPackedCandidate{},
		DeltaCandidate{BlockLen: 128},
		ALPCandidate{},
		FSSTCandidate{},
		DateTimePartsCandidate{},
		DecimalBytePartsCandidate{},
	}
}
