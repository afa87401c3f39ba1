package ryderserial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazkiker2/ryderserial-go/internal/supervisor"
)

func newTestDriver(t *testing.T, sim *Simulator, opts ...Option) *Driver {
	t.Helper()
	cfg := newConfig(opts...)
	d := newDriver(cfg, func(path string, baud int, excl bool) (supervisor.Port, error) {
		return sim, nil
	})
	t.Cleanup(func() {
		d.Close()
		d.Shutdown()
	})
	require.NoError(t, d.Open("sim"))
	return d
}

func TestDriverSendOK(t *testing.T) {
	sim := NewSimulator()
	sim.QueueReply([]byte{0x01})
	d := newTestDriver(t, sim)

	resp, err := d.SendByte(context.Background(), INFO.Byte())
	require.NoError(t, err)
	assert.True(t, resp.HasByte)
	assert.Equal(t, byte(0x01), resp.Byte)
}

func TestDriverSendOutput(t *testing.T) {
	sim := NewSimulator()
	sim.QueueReply([]byte{0x04, 0xAA, 0x06, 0x05, 0xBB, 0x05})
	d := newTestDriver(t, sim)

	resp, err := d.SendByte(context.Background(), EXPORT_PUBLIC_IDENTITIES.Byte())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x05, 0xBB}, resp.Output)
}

func TestDriverSendDeviceError(t *testing.T) {
	sim := NewSimulator()
	sim.QueueReply([]byte{255}) // NOT_IMPLEMENTED
	d := newTestDriver(t, sim)

	_, err := d.SendByte(context.Background(), WAKE.Byte())
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNotImplemented))
}

func TestDriverSendWhenNotOpenFailsDisconnected(t *testing.T) {
	d := New()
	t.Cleanup(d.Shutdown)

	_, err := d.SendByte(context.Background(), WAKE.Byte())
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeDisconnected))
}

func TestDriverLockSerializesSequences(t *testing.T) {
	sim := NewSimulator()
	d := newTestDriver(t, sim)

	require.NoError(t, d.Lock(context.Background()))
	assert.True(t, d.Locked())

	granted := make(chan struct{})
	go func() {
		require.NoError(t, d.Lock(context.Background()))
		close(granted)
	}()

	select {
	case <-granted:
		t.Fatal("second Lock granted before first Unlock")
	case <-time.After(20 * time.Millisecond):
	}

	d.Unlock()
	select {
	case <-granted:
	case <-time.After(time.Second):
		t.Fatal("second Lock never granted")
	}
	d.Unlock()
	assert.False(t, d.Locked())
}

func TestDriverSequenceReleasesLockOnError(t *testing.T) {
	sim := NewSimulator()
	d := newTestDriver(t, sim)

	sentinel := NewError("test", CodeNotImplemented, "boom")
	err := d.Sequence(context.Background(), func(ctx context.Context) error {
		return sentinel
	})
	assert.Equal(t, sentinel, err)
	assert.False(t, d.Locked())
}

func TestDriverMetricsRecordsOpenThroughDefaultObserver(t *testing.T) {
	sim := NewSimulator()
	d := newTestDriver(t, sim)

	snap := d.Metrics()
	assert.Equal(t, uint64(1), snap.Opens)
}

func TestDriverMetricsStillRecordsAlongsideCustomObserver(t *testing.T) {
	sim := NewSimulator()
	var calls int
	obs := &countingObserver{onOpen: func() { calls++ }}
	d := newTestDriver(t, sim, WithObserver(obs))

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.Metrics().Opens)
}

type countingObserver struct {
	NoOpObserver
	onOpen func()
}

func (o *countingObserver) OnOpen() { o.onOpen() }

func TestDriverClearFailsPendingWithCleared(t *testing.T) {
	sim := NewSimulator()
	d := newTestDriver(t, sim) // no queued reply: command stays in flight

	resultCh := make(chan error, 1)
	go func() {
		_, err := d.SendByte(context.Background(), WAKE.Byte())
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	d.Clear()

	err := <-resultCh
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeCleared))
}
