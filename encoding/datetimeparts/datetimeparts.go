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

// Package datetimeparts implements the DateTimeParts encoding of spec
// §4.3.13: timestamps (an I64 extension dtype carrying nanoseconds since
// the epoch) split into Days, Seconds-of-day, and Subsecond-nanoseconds
// child arrays so that each compresses independently downstream (days
// grows slowly and bit-packs tightly; seconds-of-day cycles; subseconds
// are often zero and dictionary/constant-compress well).
package datetimeparts

import (
	"github.com/latticedb/lattice/array"
	"github.com/latticedb/lattice/compute"
)

const EncodingID = "lattice.datetimeparts"

const (
	nanosPerSecond = 1_000_000_000
	secondsPerDay  = 86400
)

// Array splits an I64-nanoseconds timestamp dtype into three children:
// days (I64), seconds of day (I32) and subsecond nanoseconds (I32).
type Array struct {
	dtype      array.DType
	days       array.Array
	secOfDay   array.Array
	subseconds array.Array
	validity   array.Validity
	stats      *array.Stats
}

// New builds a DateTimeParts array. days, secOfDay and subseconds must all
// have the same length.
func New(dtype array.DType, days, secOfDay, subseconds array.Array, validity array.Validity) *Array {
	return &Array{dtype: dtype, days: days, secOfDay: secOfDay, subseconds: subseconds, validity: validity, stats: array.NewStats()}
}

// Split decomposes a nanosecond timestamp into (days, secOfDay,
// subseconds), each always non-negative, matching the source's
// floor-division convention for timestamps before the epoch.
func Split(nanos int64) (days, secOfDay, subseconds int64) {
	totalSeconds := floorDiv(nanos, nanosPerSecond)
	subseconds = nanos - totalSeconds*nanosPerSecond
	days = floorDiv(totalSeconds, secondsPerDay)
	secOfDay = totalSeconds - days*secondsPerDay
	return
}

// Join reassembles a nanosecond timestamp from its three parts.
func Join(days, secOfDay, subseconds int64) int64 {
	return (days*secondsPerDay+secOfDay)*nanosPerSecond + subseconds
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (a *Array) Len() int           { return a.days.Len() }
func (a *Array) DType() array.DType { return a.dtype }
func (a *Array) EncodingID() string { return EncodingID }
func (a *Array) Children() []array.Array {
	return []array.Array{a.days, a.secOfDay, a.subseconds}
}
func (a *Array) Buffers() []*array.Buffer { return nil }
func (a *Array) Metadata() []byte         { return nil }
func (a *Array) Statistics() *array.Stats { return a.stats }
func (a *Array) Validity() array.Validity { return a.validity }

func (a *Array) ScalarAt(i int) (array.Scalar, error) {
	if !a.validity.IsValid(i) {
		return array.NullScalar(a.dtype), nil
	}
	dsc, err := a.days.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	ssc, err := a.secOfDay.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	usc, err := a.subseconds.ScalarAt(i)
	if err != nil {
		return array.Scalar{}, err
	}
	d, _ := dsc.Int()
	s, _ := ssc.Int()
	u, _ := usc.Int()
	return array.IntScalar(array.I64, Join(d, s, u), a.dtype.Nullable()), nil
}

func (a *Array) Slice(start, stop int) (array.Array, error) {
	d, err := a.days.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	s, err := a.secOfDay.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	u, err := a.subseconds.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	v, err := a.validity.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	return New(a.dtype, d, s, u, v), nil
}

func (a *Array) ToCanonical() (array.Array, error) {
	n := a.Len()
	vals := make([]array.Scalar, n)
	for i := 0; i < n; i++ {
		sc, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = sc
	}
	return compute.BuildFromScalars(a.dtype, vals)
}

// Encode builds a DateTimeParts array from dense nanosecond timestamps.
func Encode(dtype array.DType, nanos []int64, validity array.Validity) (*Array, error) {
	n := len(nanos)
	dayVals := make([]array.Scalar, n)
	secVals := make([]array.Scalar, n)
	subVals := make([]array.Scalar, n)
	for i, ns := range nanos {
		d, s, u := Split(ns)
		dayVals[i] = array.IntScalar(array.I64, d, false)
		secVals[i] = array.IntScalar(array.I32, s, false)
		subVals[i] = array.IntScalar(array.I32, u, false)
	}
	days, err := compute.BuildFromScalars(array.Primitive(array.I64, false), dayVals)
	if err != nil {
		return nil, err
	}
	secs, err := compute.BuildFromScalars(array.Primitive(array.I32, false), secVals)
	if err != nil {
		return nil, err
	}
	subs, err := compute.BuildFromScalars(array.Primitive(array.I32, false), subVals)
	if err != nil {
		return nil, err
	}
	return New(dtype, days, secs, subs, validity), nil
}
