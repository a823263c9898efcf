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

package scan

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the scan engine's optional Prometheus instrumentation
// (segments read, bytes read, ranges pruned/scanned). A nil *Metrics, or
// one built with NewMetrics(nil), is valid everywhere this package reports
// to it — every method is a no-op on a nil receiver or a nil field, the
// same nil-checked pattern used for package-level metrics elsewhere in the
// corpus's monitoring middleware.
type Metrics struct {
	SegmentsRead  prometheus.Counter
	BytesRead     prometheus.Counter
	RangesPruned  prometheus.Counter
	RangesScanned prometheus.Counter
}

// NewMetrics builds a Metrics set and registers it with reg. reg may be
// nil, in which case the counters are created but left unregistered — the
// caller can still read them directly, just not scrape them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SegmentsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_scan_segments_read_total",
			Help: "Segments fetched from the byte-range reader during scans.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_scan_bytes_read_total",
			Help: "Bytes fetched from the byte-range reader during scans.",
		}),
		RangesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_scan_ranges_pruned_total",
			Help: "Row-split ranges skipped via stats-based pruning.",
		}),
		RangesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattice_scan_ranges_scanned_total",
			Help: "Row-split ranges fully evaluated (not pruned).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SegmentsRead, m.BytesRead, m.RangesPruned, m.RangesScanned)
	}
	return m
}

func (m *Metrics) addSegments(n int) {
	if m == nil || m.SegmentsRead == nil {
		return
	}
	m.SegmentsRead.Add(float64(n))
}

func (m *Metrics) addBytes(n int) {
	if m == nil || m.BytesRead == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

func (m *Metrics) incPruned() {
	if m == nil || m.RangesPruned == nil {
		return
	}
	m.RangesPruned.Inc()
}

func (m *Metrics) incScanned() {
	if m == nil || m.RangesScanned == nil {
		return
	}
	m.RangesScanned.Inc()
}
