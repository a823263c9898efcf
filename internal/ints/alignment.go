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

// Package ints provides small bit-width and alignment helpers shared by the
// array buffer/bitmap code, the bit-packing and zig-zag encodings, and the
// sampling compressor.
package ints

import "golang.org/x/exp/constraints"

// IsAligned reports whether v is an integer multiple of alignment.
func IsAligned(v, alignment uint) bool {
	return v%alignment == 0
}

// IsPowerOfTwo reports whether v is a power of two (alignments must be).
func IsPowerOfTwo(v uint) bool {
	return v != 0 && v&(v-1) == 0
}

// AlignUp returns v rounded up to the next multiple of alignment.
func AlignUp(v, alignment uint) uint {
	return ((v + alignment - 1) / alignment) * alignment
}

// AlignDown returns v rounded down to a multiple of alignment.
func AlignDown(v, alignment uint) uint {
	return (v / alignment) * alignment
}

// BitWidth returns the number of bits needed to represent v (0 for v==0).
func BitWidth[T constraints.Unsigned](v T) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// BitWidthRange returns the bit width needed to represent every value in
// [min, max] as an unsigned offset from min, i.e. BitWidth(max-min).
func BitWidthRange(min, max uint64) int {
	if max < min {
		return 0
	}
	return BitWidth(max - min)
}

// ChunkCount returns the number of chunkSize-sized chunks needed to hold n
// items.
func ChunkCount[T constraints.Unsigned](n, chunkSize T) T {
	return (n + chunkSize - 1) / chunkSize
}

// BytesForBits returns the number of bytes needed to hold n bits.
func BytesForBits(n int) int {
	return (n + 7) / 8
}
