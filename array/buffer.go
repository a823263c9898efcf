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

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/latticedb/lattice/internal/ints"
)

// Buffer is an aligned, reference-counted contiguous byte region (spec
// §3.2). Slicing is zero-copy: the slice shares the parent allocation and
// only adjusts offset/length. Buffers are immutable: NewBuffer wraps caller
// data that must not be mutated afterward.
type Buffer struct {
	root  []byte // the original allocation; shared by all slices
	off   int
	len   int
	align uint
	rc    *int32 // shared refcount across slices of the same root
}

// NewBuffer wraps data as a frozen Buffer with the given alignment. align
// must be a power of two no greater than 65535. The caller must not mutate
// data after this call.
func NewBuffer(data []byte, align uint) (*Buffer, error) {
	if align == 0 {
		align = 1
	}
	if align > 65535 || !ints.IsPowerOfTwo(align) {
		return nil, fmt.Errorf("lattice: buffer alignment %d is not a power of two <= 65535", align)
	}
	rc := new(int32)
	*rc = 1
	return &Buffer{root: data, off: 0, len: len(data), align: align, rc: rc}, nil
}

// Len returns the length of the buffer in bytes.
func (b *Buffer) Len() int { return b.len }

// Align returns the buffer's declared alignment.
func (b *Buffer) Align() uint { return b.align }

// Bytes returns the buffer's contents. The returned slice must not be
// mutated; buffers are immutable once frozen.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.root[b.off : b.off+b.len]
}

// Slice returns a zero-copy view of b[start:stop) (byte offsets). The
// returned buffer shares the parent allocation and keeps it alive via the
// shared refcount. The new buffer's declared alignment is reduced to the
// largest power of two that still divides the new start offset, capped at
// b.Align(), matching how Arrow-style slicing of aligned buffers degrades
// alignment when the offset is not itself aligned.
func (b *Buffer) Slice(start, stop int) (*Buffer, error) {
	if start < 0 || stop < start || stop > b.len {
		return nil, fmt.Errorf("lattice: buffer slice [%d:%d) out of range for length %d", start, stop, b.len)
	}
	atomic.AddInt32(b.rc, 1)
	newAlign := b.align
	if start != 0 {
		// largest power of two dividing start, capped at the parent alignment
		a := uint(1)
		for a < b.align && (uint(start)%(a*2)) == 0 {
			a *= 2
		}
		newAlign = a
	}
	return &Buffer{root: b.root, off: b.off + start, len: stop - start, align: newAlign, rc: b.rc}, nil
}

// Clone increments the shared refcount and returns b; it exists so call
// sites can express "I am keeping an independent reference" without a deep
// copy, mirroring Arc::clone in the source implementation.
func (b *Buffer) Clone() *Buffer {
	atomic.AddInt32(b.rc, 1)
	return b
}

// Release decrements the shared refcount. It is advisory bookkeeping only:
// the Go garbage collector owns the backing array's actual lifetime; Release
// lets tests and diagnostics assert balanced Clone/Release pairs.
func (b *Buffer) Release() {
	atomic.AddInt32(b.rc, -1)
}

// RefCount returns the current shared reference count, for diagnostics.
func (b *Buffer) RefCount() int32 {
	return atomic.LoadInt32(b.rc)
}

// elemAlign returns the required alignment for a typed view of elemSize
// bytes.
func elemAlign(elemSize int) uint {
	return uint(elemSize)
}

// View interprets the buffer's bytes as a slice of T. It returns an error if
// the buffer's declared alignment is insufficient for T, or if the buffer's
// length is not a multiple of sizeof(T).
func View[T any](b *Buffer) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return nil, fmt.Errorf("lattice: cannot view buffer as zero-sized type")
	}
	if b.align < elemAlign(size) {
		return nil, fmt.Errorf("lattice: buffer alignment %d insufficient for %d-byte element", b.align, size)
	}
	if b.len%size != 0 {
		return nil, fmt.Errorf("lattice: buffer length %d is not a multiple of element size %d", b.len, size)
	}
	n := b.len / size
	if n == 0 {
		return nil, nil
	}
	ptr := unsafe.Pointer(&b.root[b.off])
	return unsafe.Slice((*T)(ptr), n), nil
}

// BufferFromSlice builds a frozen Buffer by reinterpreting a typed slice's
// backing storage as bytes, aligned to sizeof(T).
func BufferFromSlice[T any](s []T) (*Buffer, error) {
	if len(s) == 0 {
		return NewBuffer(nil, uint(unsafe.Sizeof(*new(T))))
	}
	size := int(unsafe.Sizeof(s[0]))
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	return NewBuffer(raw, uint(size))
}
