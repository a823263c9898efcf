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

import "sync"

// Stat names one of the statistics an Array may carry (spec §3.6).
type Stat uint8

const (
	StatMin Stat = iota
	StatMax
	StatSum
	StatNullCount
	StatTrueCount
	StatIsSorted
	StatIsStrictSorted
	StatIsConstant
	StatRunCount
	StatUncompressedSizeInBytes
	StatBitWidthFreq
	StatTrailingZeroFreq
)

func (s Stat) String() string {
	switch s {
	case StatMin:
		return "min"
	case StatMax:
		return "max"
	case StatSum:
		return "sum"
	case StatNullCount:
		return "null_count"
	case StatTrueCount:
		return "true_count"
	case StatIsSorted:
		return "is_sorted"
	case StatIsStrictSorted:
		return "is_strict_sorted"
	case StatIsConstant:
		return "is_constant"
	case StatRunCount:
		return "run_count"
	case StatUncompressedSizeInBytes:
		return "uncompressed_size_in_bytes"
	case StatBitWidthFreq:
		return "bit_width_freq"
	case StatTrailingZeroFreq:
		return "trailing_zero_freq"
	default:
		return "stat(?)"
	}
}

// Precision tags a statistic value as Exact or Inexact (spec §3.6). An
// Inexact value still defines the *direction* of the bound it holds: for
// StatMin it is a lower bound (true min >= value), for StatMax an upper
// bound (true max <= value), and so on for the other monotone stats.
type Precision struct {
	exact bool
	value any
	set   bool
}

// Exact wraps v as an exact statistic value.
func Exact(v any) Precision { return Precision{exact: true, value: v, set: true} }

// Inexact wraps v as a bound-only statistic value.
func Inexact(v any) Precision { return Precision{exact: false, value: v, set: true} }

// IsExact reports whether the value is an exact statistic.
func (p Precision) IsExact() bool { return p.set && p.exact }

// Value returns the underlying value and whether a value is present at all.
func (p Precision) Value() (any, bool) { return p.value, p.set }

// Stats is a per-array, lazily-populated, memoized statistics cache (spec
// §3.6, §4.5, §5 "last-writer-wins"). Stats are deterministic given the
// array they describe, so concurrent computation races are harmless:
// whichever goroutine's Set call lands last wins, and it computes the same
// value as any other.
type Stats struct {
	mu   sync.Mutex
	vals map[Stat]Precision
}

// NewStats returns an empty statistics cache.
func NewStats() *Stats {
	return &Stats{vals: make(map[Stat]Precision, 4)}
}

// Get returns a previously computed or set statistic, if present.
func (s *Stats) Get(k Stat) (Precision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[k]
	return v, ok
}

// Set stores a statistic value, overwriting any previous value.
func (s *Stats) Set(k Stat, v Precision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[k] = v
}

// GetOrCompute returns the cached statistic if present, or calls compute to
// produce, cache, and return one. compute may run more than once under
// concurrent first access; that is fine since stats computation is
// deterministic (see type doc).
func (s *Stats) GetOrCompute(k Stat, compute func() Precision) Precision {
	if v, ok := s.Get(k); ok {
		return v
	}
	v := compute()
	s.Set(k, v)
	return v
}

// Merge folds another array's stat into this one: v is stored when no value
// is cached for k yet, or when the cached value is inexact and v is exact;
// it is used by composite encodings (Chunked) that can derive a parent stat
// directly from a child's without recomputation.
func (s *Stats) Merge(k Stat, v Precision) {
	cur, ok := s.Get(k)
	if !ok || (!cur.exact && v.exact) {
		s.Set(k, v)
	}
}
