package ryderserial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chazkiker2/ryderserial-go/internal/protocol"
)

func TestMetricsInitialState(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	assert.Equal(t, uint64(0), snap.TotalCommands)
	assert.Equal(t, float64(0), snap.ErrorRate)
}

func TestMetricsRecordsOutcomes(t *testing.T) {
	m := NewMetrics()
	m.recordOutcome(protocol.Result{HasByte: true, Byte: 1}, time.Millisecond)
	m.recordOutcome(protocol.Result{Output: []byte{0xAA}}, 2*time.Millisecond)
	m.recordOutcome(protocol.Result{Fail: protocol.FailWatchdog}, 5*time.Second)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.CommandsOK)
	assert.Equal(t, uint64(1), snap.CommandsOutput)
	assert.Equal(t, uint64(1), snap.CommandsWatchdog)
	assert.Equal(t, uint64(1), snap.CommandsFailed)
	assert.Equal(t, uint64(3), snap.TotalCommands)
	assert.InDelta(t, 33.33, snap.ErrorRate, 0.1)
}

func TestMetricsLatencyPercentiles(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 100; i++ {
		m.recordOutcome(protocol.Result{HasByte: true}, time.Millisecond)
	}
	m.recordOutcome(protocol.Result{HasByte: true}, 9*time.Second)

	snap := m.Snapshot()
	assert.Greater(t, snap.LatencyP50Ns, uint64(0))
	assert.GreaterOrEqual(t, snap.LatencyP999Ns, snap.LatencyP50Ns)
}

func TestMetricsConnectionEvents(t *testing.T) {
	m := NewMetrics()
	m.RecordOpen()
	m.RecordClose()
	m.RecordClose()
	m.RecordError()
	m.RecordFailed()
	m.RecordLocked()
	m.RecordWaitUserConfirm()
	m.RecordDroppedBytes(3)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Opens)
	assert.Equal(t, uint64(2), snap.Closes)
	assert.Equal(t, uint64(1), snap.Errors)
	assert.Equal(t, uint64(1), snap.Faileds)
	assert.Equal(t, uint64(1), snap.LockedEvents)
	assert.Equal(t, uint64(1), snap.WaitUserConfirms)
	assert.Equal(t, uint64(3), snap.DroppedBytes)
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.recordOutcome(protocol.Result{HasByte: true}, time.Millisecond)
	m.RecordOpen()
	m.Reset()

	snap := m.Snapshot()
	assert.Equal(t, uint64(0), snap.TotalCommands)
	assert.Equal(t, uint64(0), snap.Opens)
}

func TestMetricsObserverDelegates(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.OnOpen()
	obs.OnLocked()
	obs.OnWaitUserConfirm()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Opens)
	assert.Equal(t, uint64(1), snap.LockedEvents)
	assert.Equal(t, uint64(1), snap.WaitUserConfirms)
}
