// Package ryderserial implements a host-side driver for a Ryder hardware
// wallet (or its simulator) connected over a USB-serial link. It frames and
// decodes the device's escape-sequenced wire protocol, serializes commands
// through a FIFO queue with an advisory lock layer for multi-step
// sequences, and supervises the serial connection across disconnects.
package ryderserial

import (
	"context"
	"fmt"
	"time"

	"github.com/chazkiker2/ryderserial-go/internal/enumerate"
	"github.com/chazkiker2/ryderserial-go/internal/logging"
	"github.com/chazkiker2/ryderserial-go/internal/protocol"
	"github.com/chazkiker2/ryderserial-go/internal/serialport"
	"github.com/chazkiker2/ryderserial-go/internal/supervisor"
)

// Response is what a successful Send resolves to: exactly one of Byte (an
// OK/SEND_INPUT/REJECTED code) or Output (a collected output record) is
// meaningful, distinguished by HasByte.
type Response struct {
	Byte    byte
	HasByte bool
	Output  []byte
}

// Driver is a single connection to one Ryder device. It is safe for
// concurrent use; every public method may be called from multiple
// goroutines, serialized internally by the protocol engine's own actor
// goroutine.
type Driver struct {
	cfg     *Config
	engine  *protocol.Engine
	super   *supervisor.Supervisor
	metrics *Metrics
	logger  *logging.Logger
}

// New constructs a Driver. It does not open a port; call Open for that.
func New(opts ...Option) *Driver {
	return newDriver(newConfig(opts...), openSerialPort)
}

// newDriver is the shared constructor behind New; tests substitute a
// different opener (e.g. one that hands back a *Simulator) without going
// through a real device node.
func newDriver(cfg *Config, opener supervisor.Opener) *Driver {
	metrics := NewMetrics()

	events := &driverEvents{
		metrics:  metrics,
		recorder: NewMetricsObserver(metrics),
		observer: cfg.Observer,
	}
	engine := protocol.NewEngine(protocol.Config{
		RejectOnLocked: cfg.LockPolicy == LockPolicyReject,
		Events:         events,
		Logger:         cfg.Logger,
	})

	super := supervisor.New(engine, supervisor.Config{
		BaudRate:            cfg.BaudRate,
		Exclusive:           cfg.ExclusiveLock,
		ReconnectIntervalMS: cfg.ReconnectIntervalMS,
		Events:              events,
		Logger:              cfg.Logger,
		Opener:              opener,
	})

	return &Driver{cfg: cfg, engine: engine, super: super, metrics: metrics, logger: cfg.Logger}
}

func openSerialPort(path string, baud int, exclusive bool) (supervisor.Port, error) {
	return serialport.Open(path, serialport.Options{BaudRate: baud, Exclusive: exclusive})
}

// Ports lists candidate device nodes matching the driver's USB vendor and
// product identifiers.
func Ports() ([]enumerate.PortInfo, error) {
	return enumerate.Ports(USBVendorID, USBProductID)
}

// Open connects to the serial device at path. It is idempotent while
// already open, even if path differs from the currently open port.
func (d *Driver) Open(path string) error {
	return d.super.Open(path)
}

// OpenSimulator wires the driver directly to sim, bypassing device
// enumeration and the OS serial port entirely. Intended for tests and the
// example programs.
func (d *Driver) OpenSimulator(sim *Simulator) error {
	return d.super.OpenWith(sim)
}

// Close tears down the connection: every pending command fails with
// CLEARED, the port is closed, and the reconnect timer is cancelled.
// Idempotent.
func (d *Driver) Close() {
	d.super.Close()
}

// Clear fails every queued and in-flight command with CLEARED, empties the
// queue, and releases every outstanding lock, without closing the port.
func (d *Driver) Clear() {
	d.engine.Clear()
}

// Metrics returns a point-in-time snapshot of this Driver's operational
// statistics.
func (d *Driver) Metrics() MetricsSnapshot {
	return d.metrics.Snapshot()
}

// Shutdown releases the driver's internal goroutine. Call it once Close
// has run and the driver will not be reused.
func (d *Driver) Shutdown() {
	d.engine.Shutdown()
}

// Send submits bytes as a command. If prepend is true, it is inserted
// ahead of every queued (not yet in-flight) entry, the mechanism used to
// inject CANCEL ahead of other pending work.
func (d *Driver) Send(ctx context.Context, data []byte, prepend bool) (Response, error) {
	start := time.Now()
	resultCh := d.engine.Submit(data, prepend)

	var r protocol.Result
	select {
	case r = <-resultCh:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	d.metrics.recordOutcome(r, time.Since(start))

	if r.Fail != "" {
		return Response{}, d.toError("send", r)
	}
	return Response{Byte: r.Byte, HasByte: r.HasByte, Output: r.Output}, nil
}

// SendByte is a convenience wrapper for a single-byte command.
func (d *Driver) SendByte(ctx context.Context, b byte) (Response, error) {
	return d.Send(ctx, []byte{b}, false)
}

// Cancel prepends a CANCEL command ahead of all non-in-flight queued work.
func (d *Driver) Cancel(ctx context.Context) (Response, error) {
	return d.Send(ctx, []byte{CANCEL.Byte()}, true)
}

// Lock acquires the advisory lock, blocking until it is granted or ctx is
// done. The first outstanding lock is granted immediately.
func (d *Driver) Lock(ctx context.Context) error {
	select {
	case <-d.engine.Lock():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the advisory lock, granting it to the next waiter if any.
func (d *Driver) Unlock() {
	d.engine.Unlock()
}

// Locked reports whether the advisory lock is currently held.
func (d *Driver) Locked() bool {
	return d.engine.Locked()
}

// Sequence acquires the lock, runs fn on the calling goroutine, and
// releases the lock when fn returns, regardless of outcome; fn's error is
// returned unchanged. Only a nil fn is rejected with SEQUENCE_NOT_ASYNC;
// fn itself is not checked in any way.
func (d *Driver) Sequence(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return NewError("sequence", CodeSequenceNotAsync, "nil sequence callback")
	}
	if err := d.Lock(ctx); err != nil {
		return err
	}
	defer d.Unlock()
	return fn(ctx)
}

func (d *Driver) toError(op string, r protocol.Result) error {
	switch r.Fail {
	case protocol.FailDisconnected:
		return NewError(op, CodeDisconnected, "port is not open")
	case protocol.FailWatchdog:
		return NewError(op, CodeWatchdog, "no response within the watchdog interval")
	case protocol.FailCleared:
		return NewError(op, CodeCleared, "command queue was cleared")
	case protocol.FailLocked:
		return NewError(op, CodeLocked, "device reported locked")
	case protocol.FailUnknownResponse:
		return NewError(op, CodeUnknownResponse, fmt.Sprintf("unrecognized response byte %#x", r.ErrorByte))
	case protocol.FailDeviceError:
		code := deviceErrorCode(r.ErrorByte)
		return NewError(op, code, fmt.Sprintf("device reported error byte %#x", r.ErrorByte))
	default:
		return NewError(op, CodeUnknownResponse, "unrecognized failure")
	}
}

// driverEvents adapts the engine's and supervisor's internal event
// interfaces into two Observer sinks: recorder, always a *MetricsObserver
// wired to this Driver's own Metrics, and observer, the caller-supplied
// Observer (default NoOpObserver). DroppedBytes has no Observer method,
// so it goes straight to Metrics.
type driverEvents struct {
	metrics  *Metrics
	recorder Observer
	observer Observer
}

func (e *driverEvents) Locked() {
	e.recorder.OnLocked()
	e.observer.OnLocked()
}

func (e *driverEvents) WaitUserConfirm() {
	e.recorder.OnWaitUserConfirm()
	e.observer.OnWaitUserConfirm()
}

func (e *driverEvents) DroppedBytes(n int) { e.metrics.RecordDroppedBytes(n) }

func (e *driverEvents) Open() {
	e.recorder.OnOpen()
	e.observer.OnOpen()
}

func (e *driverEvents) Close() {
	e.recorder.OnClose()
	e.observer.OnClose()
}

func (e *driverEvents) Error(err error) {
	e.recorder.OnError(err)
	e.observer.OnError(err)
}

func (e *driverEvents) Failed(err error) {
	e.recorder.OnFailed(err)
	e.observer.OnFailed(err)
}
