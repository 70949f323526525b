package main

import (
	"sync/atomic"
	"time"
)

// Metrics counts what the server does at runtime, for /metrics and tests.
type Metrics struct {
	TickCount        int64
	TotalTickNs      int64
	InboundMessages  int64
	ProtocolErrors   int64
	InboxDropped     int64
	SnapshotsDropped int64
	TransportErrors  int64
}

func (m *Metrics) IncInbound()          { atomic.AddInt64(&m.InboundMessages, 1) }
func (m *Metrics) IncProtocolErrors()   { atomic.AddInt64(&m.ProtocolErrors, 1) }
func (m *Metrics) IncInboxDropped()     { atomic.AddInt64(&m.InboxDropped, 1) }
func (m *Metrics) IncSnapshotsDropped() { atomic.AddInt64(&m.SnapshotsDropped, 1) }
func (m *Metrics) IncTransportErrors()  { atomic.AddInt64(&m.TransportErrors, 1) }

func (m *Metrics) AddTick(d time.Duration) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, d.Nanoseconds())
}

// Snapshot returns a read-only copy for HTTP output
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"avg_tick_ms":       avgMs,
		"inbound_messages":  atomic.LoadInt64(&m.InboundMessages),
		"protocol_errors":   atomic.LoadInt64(&m.ProtocolErrors),
		"inbox_dropped":     atomic.LoadInt64(&m.InboxDropped),
		"snapshots_dropped": atomic.LoadInt64(&m.SnapshotsDropped),
		"transport_errors":  atomic.LoadInt64(&m.TransportErrors),
	}
}
