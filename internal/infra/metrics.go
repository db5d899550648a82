package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	tradesExecuted    atomic.Uint64
	tradesRejected    atomic.Uint64
	eventsBroadcast   atomic.Uint64
	snapshotSaves     atomic.Uint64
	snapshotFailures  atomic.Uint64
	portfoliosExpired atomic.Uint64

	// Gauges
	activeSubscribers atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTradeExecuted records one committed trade.
func (m *Metrics) RecordTradeExecuted() {
	m.tradesExecuted.Add(1)
}

// RecordTradeRejected records one rejected trade.
func (m *Metrics) RecordTradeRejected() {
	m.tradesRejected.Add(1)
}

// RecordEventBroadcast records one change-event handed to the broadcaster.
func (m *Metrics) RecordEventBroadcast() {
	m.eventsBroadcast.Add(1)
}

// RecordSnapshotSave records one successful snapshot write.
func (m *Metrics) RecordSnapshotSave() {
	m.snapshotSaves.Add(1)
}

// RecordSnapshotFailure records one failed snapshot write.
func (m *Metrics) RecordSnapshotFailure() {
	m.snapshotFailures.Add(1)
}

// RecordPortfolioExpired records one idle portfolio removal.
func (m *Metrics) RecordPortfolioExpired() {
	m.portfoliosExpired.Add(1)
}

// IncrementSubscribers increments active broadcast subscribers by 1.
func (m *Metrics) IncrementSubscribers() {
	m.activeSubscribers.Add(1)
}

// DecrementSubscribers decrements active broadcast subscribers by 1.
func (m *Metrics) DecrementSubscribers() {
	m.activeSubscribers.Add(-1)
}

// MetricsSnapshot is a point-in-time copy for reporting.
type MetricsSnapshot struct {
	TradesExecuted    uint64 `json:"trades_executed"`
	TradesRejected    uint64 `json:"trades_rejected"`
	EventsBroadcast   uint64 `json:"events_broadcast"`
	SnapshotSaves     uint64 `json:"snapshot_saves"`
	SnapshotFailures  uint64 `json:"snapshot_failures"`
	PortfoliosExpired uint64 `json:"portfolios_expired"`
	ActiveSubscribers int32  `json:"active_subscribers"`
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TradesExecuted:    m.tradesExecuted.Load(),
		TradesRejected:    m.tradesRejected.Load(),
		EventsBroadcast:   m.eventsBroadcast.Load(),
		SnapshotSaves:     m.snapshotSaves.Load(),
		SnapshotFailures:  m.snapshotFailures.Load(),
		PortfoliosExpired: m.portfoliosExpired.Load(),
		ActiveSubscribers: m.activeSubscribers.Load(),
	}
}
