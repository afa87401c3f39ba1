package ryderserial

import (
	"sync/atomic"
	"time"

	"github.com/chazkiker2/ryderserial-go/internal/protocol"
)

// LatencyBuckets defines the round-trip latency histogram buckets in
// nanoseconds, covering 100us to 10s with logarithmic spacing -- wide
// enough to span a fast OK ack and a watchdog-bound timeout.
var LatencyBuckets = []uint64{
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	5_000_000_000,  // 5s (watchdog boundary)
	10_000_000_000, // 10s
}

const numLatencyBuckets = 7

// Metrics tracks operational statistics for one Driver instance.
type Metrics struct {
	// Command outcomes
	CommandsOK           atomic.Uint64
	CommandsOutput       atomic.Uint64
	CommandsFailed       atomic.Uint64
	CommandsDisconnected atomic.Uint64
	CommandsWatchdog     atomic.Uint64
	CommandsCleared      atomic.Uint64
	CommandsLocked       atomic.Uint64
	CommandsDeviceError  atomic.Uint64

	// Connection lifecycle
	Opens   atomic.Uint64
	Closes  atomic.Uint64
	Errors  atomic.Uint64
	Faileds atomic.Uint64

	// Protocol-level observer events
	LockedEvents     atomic.Uint64
	WaitUserConfirms atomic.Uint64
	DroppedBytes     atomic.Uint64

	// Round-trip latency
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics constructs a Metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// recordOutcome tallies a completed Send against its failure code (or
// success) and records its round-trip latency.
func (m *Metrics) recordOutcome(r protocol.Result, latency time.Duration) {
	switch r.Fail {
	case "":
		if r.HasByte {
			m.CommandsOK.Add(1)
		} else {
			m.CommandsOutput.Add(1)
		}
	case protocol.FailDisconnected:
		m.CommandsDisconnected.Add(1)
		m.CommandsFailed.Add(1)
	case protocol.FailWatchdog:
		m.CommandsWatchdog.Add(1)
		m.CommandsFailed.Add(1)
	case protocol.FailCleared:
		m.CommandsCleared.Add(1)
		m.CommandsFailed.Add(1)
	case protocol.FailLocked:
		m.CommandsLocked.Add(1)
		m.CommandsFailed.Add(1)
	case protocol.FailDeviceError, protocol.FailUnknownResponse:
		m.CommandsDeviceError.Add(1)
		m.CommandsFailed.Add(1)
	default:
		m.CommandsFailed.Add(1)
	}
	m.recordLatency(uint64(latency.Nanoseconds()))
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// RecordOpen records a successful port open.
func (m *Metrics) RecordOpen() { m.Opens.Add(1) }

// RecordClose records a port close (expected or unexpected).
func (m *Metrics) RecordClose() { m.Closes.Add(1) }

// RecordError records a transport-level error event.
func (m *Metrics) RecordError() { m.Errors.Add(1) }

// RecordFailed records a failed event: an open attempt that failed, or a
// read error that dropped an open port.
func (m *Metrics) RecordFailed() { m.Faileds.Add(1) }

// RecordLocked records a LOCKED byte observed from the device.
func (m *Metrics) RecordLocked() { m.LockedEvents.Add(1) }

// RecordWaitUserConfirm records a WAIT_USER_CONFIRM byte observed.
func (m *Metrics) RecordWaitUserConfirm() { m.WaitUserConfirms.Add(1) }

// RecordDroppedBytes records bytes discarded while no head entry existed.
func (m *Metrics) RecordDroppedBytes(n int) { m.DroppedBytes.Add(uint64(n)) }

// MetricsSnapshot is a point-in-time copy of Metrics plus derived stats.
type MetricsSnapshot struct {
	CommandsOK           uint64
	CommandsOutput       uint64
	CommandsFailed       uint64
	CommandsDisconnected uint64
	CommandsWatchdog     uint64
	CommandsCleared      uint64
	CommandsLocked       uint64
	CommandsDeviceError  uint64

	Opens, Closes, Errors, Faileds uint64

	LockedEvents     uint64
	WaitUserConfirms uint64
	DroppedBytes     uint64

	TotalCommands uint64
	ErrorRate     float64

	AvgLatencyNs  uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64
	UptimeNs         uint64
}

// Snapshot copies the current counters and derives aggregate statistics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CommandsOK:           m.CommandsOK.Load(),
		CommandsOutput:       m.CommandsOutput.Load(),
		CommandsFailed:       m.CommandsFailed.Load(),
		CommandsDisconnected: m.CommandsDisconnected.Load(),
		CommandsWatchdog:     m.CommandsWatchdog.Load(),
		CommandsCleared:      m.CommandsCleared.Load(),
		CommandsLocked:       m.CommandsLocked.Load(),
		CommandsDeviceError:  m.CommandsDeviceError.Load(),
		Opens:                m.Opens.Load(),
		Closes:               m.Closes.Load(),
		Errors:               m.Errors.Load(),
		Faileds:              m.Faileds.Load(),
		LockedEvents:         m.LockedEvents.Load(),
		WaitUserConfirms:     m.WaitUserConfirms.Load(),
		DroppedBytes:         m.DroppedBytes.Load(),
	}

	snap.TotalCommands = snap.CommandsOK + snap.CommandsOutput + snap.CommandsFailed
	if snap.TotalCommands > 0 {
		snap.ErrorRate = float64(snap.CommandsFailed) / float64(snap.TotalCommands) * 100.0
	}

	opCount := m.OpCount.Load()
	totalLatencyNs := m.TotalLatencyNs.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}
	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	snap.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())
	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes every counter and restarts the uptime clock. Useful in
// tests that assert on a clean Metrics instance.
func (m *Metrics) Reset() {
	m.CommandsOK.Store(0)
	m.CommandsOutput.Store(0)
	m.CommandsFailed.Store(0)
	m.CommandsDisconnected.Store(0)
	m.CommandsWatchdog.Store(0)
	m.CommandsCleared.Store(0)
	m.CommandsLocked.Store(0)
	m.CommandsDeviceError.Store(0)
	m.Opens.Store(0)
	m.Closes.Store(0)
	m.Errors.Store(0)
	m.Faileds.Store(0)
	m.LockedEvents.Store(0)
	m.WaitUserConfirms.Store(0)
	m.DroppedBytes.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer lets callers plug in their own metrics/telemetry sink for the
// driver's connection and protocol events.
type Observer interface {
	OnOpen()
	OnClose()
	OnError(err error)
	OnFailed(err error)
	OnLocked()
	OnWaitUserConfirm()
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) OnOpen()             {}
func (NoOpObserver) OnClose()            {}
func (NoOpObserver) OnError(error)       {}
func (NoOpObserver) OnFailed(error)      {}
func (NoOpObserver) OnLocked()           {}
func (NoOpObserver) OnWaitUserConfirm()  {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) OnOpen()               { o.metrics.RecordOpen() }
func (o *MetricsObserver) OnClose()              { o.metrics.RecordClose() }
func (o *MetricsObserver) OnError(error)         { o.metrics.RecordError() }
func (o *MetricsObserver) OnFailed(error)        { o.metrics.RecordFailed() }
func (o *MetricsObserver) OnLocked()              { o.metrics.RecordLocked() }
func (o *MetricsObserver) OnWaitUserConfirm()     { o.metrics.RecordWaitUserConfirm() }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
