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

package array

import "fmt"

// ErrorKind enumerates the error categories from spec §7.
type ErrorKind uint8

const (
	InvalidArgument ErrorKind = iota
	OutOfBounds
	NotImplemented
	ComputeError
	IOError
	CorruptFile
	EncodingMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case OutOfBounds:
		return "out_of_bounds"
	case NotImplemented:
		return "not_implemented"
	case ComputeError:
		return "compute_error"
	case IOError:
		return "io_error"
	case CorruptFile:
		return "corrupt_file"
	case EncodingMismatch:
		return "encoding_mismatch"
	default:
		return "error(?)"
	}
}

// Error is lattice's single error type (spec §7): every user-visible
// failure carries the offending dtype, encoding id, and, where applicable,
// a row index or segment id, so that callers can build actionable
// diagnostics without string-parsing an error message.
type Error struct {
	Kind       ErrorKind
	Message    string
	DType      *DType
	EncodingID string
	Index      *int
	SegmentID  *uint32
	Cause      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("lattice: %s: %s", e.Kind, e.Message)
	if e.EncodingID != "" {
		s += fmt.Sprintf(" (encoding=%s)", e.EncodingID)
	}
	if e.DType != nil {
		s += fmt.Sprintf(" (dtype=%s)", e.DType)
	}
	if e.Index != nil {
		s += fmt.Sprintf(" (index=%d)", *e.Index)
	}
	if e.SegmentID != nil {
		s += fmt.Sprintf(" (segment=%d)", *e.SegmentID)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an *Error with the given kind and formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithEncoding annotates an error with the encoding id that produced it.
func (e *Error) WithEncoding(id string) *Error {
	e.EncodingID = id
	return e
}

// WithDType annotates an error with the dtype involved.
func (e *Error) WithDType(d DType) *Error {
	e.DType = &d
	return e
}

// WithIndex annotates an error with the offending row index.
func (e *Error) WithIndex(i int) *Error {
	e.Index = &i
	return e
}

// WithSegment annotates an error with the offending segment id.
func (e *Error) WithSegment(id uint32) *Error {
	e.SegmentID = &id
	return e
}

// WithCause wraps a lower-level cause (e.g. an *os.PathError for IOError).
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}
