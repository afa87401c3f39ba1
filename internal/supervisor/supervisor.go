// Package supervisor owns the serial port's lifecycle: opening it,
// streaming inbound bytes into the protocol engine, observing close and
// error conditions, and driving reconnection at a configured interval.
package supervisor

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chazkiker2/ryderserial-go/internal/logging"
	"github.com/chazkiker2/ryderserial-go/internal/protocol"
	"github.com/chazkiker2/ryderserial-go/internal/queue"
)

// Port is the OS-level serial handle the supervisor opens and closes. It is
// satisfied by *serialport.Port; kept as an interface here so tests can
// substitute an in-memory pipe instead of a real device node.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a device path into a Port with the given baud rate and
// exclusivity setting.
type Opener func(path string, baudRate int, exclusive bool) (Port, error)

// Events receives connection lifecycle notifications. Supplied by the
// driver layer, which adapts these into its public Observer API.
type Events interface {
	Open()
	Close()
	Error(err error)
	Failed(err error)
}

// NoopEvents discards every notification.
type NoopEvents struct{}

func (NoopEvents) Open()        {}
func (NoopEvents) Close()       {}
func (NoopEvents) Error(error)  {}
func (NoopEvents) Failed(error) {}

// Config controls supervisor behavior.
type Config struct {
	BaudRate            int
	Exclusive           bool
	ReconnectIntervalMS int
	Events              Events
	Logger              *logging.Logger
	Opener              Opener
}

// Supervisor opens and tears down a serial connection on behalf of an
// Engine, retrying at ReconnectIntervalMS after an unexpected close.
type Supervisor struct {
	engine *protocol.Engine
	cfg    Config

	mu      sync.Mutex
	port    Port
	path    string
	closing bool
	readWG  sync.WaitGroup

	reconnectTimer *time.Timer
}

// New constructs a Supervisor bound to engine. It does not open a port;
// call Open for that.
func New(engine *protocol.Engine, cfg Config) *Supervisor {
	if cfg.Events == nil {
		cfg.Events = NoopEvents{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ReconnectIntervalMS <= 0 {
		cfg.ReconnectIntervalMS = 1000
	}
	return &Supervisor{engine: engine, cfg: cfg}
}

// Open opens path. It is idempotent: calling it while a port is already
// open is a no-op, even with a different path, matching the documented
// limitation that reopening with a different port while connected is not
// supported.
func (s *Supervisor) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}
	if s.cfg.Opener == nil {
		return fmt.Errorf("supervisor: no opener configured")
	}

	port, err := s.cfg.Opener(path, s.cfg.BaudRate, s.cfg.Exclusive)
	if err != nil {
		s.cfg.Events.Error(err)
		s.armReconnectLocked(path)
		s.cfg.Events.Failed(err)
		return err
	}

	s.adoptLocked(path, port)
	return nil
}

// OpenWith installs an already-constructed Port directly, bypassing the
// configured Opener. Used to drive the engine against an in-process
// simulator instead of a real device node.
func (s *Supervisor) OpenWith(port Port) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}
	s.adoptLocked("", port)
	return nil
}

// adoptLocked installs port as the active connection. Caller holds s.mu.
func (s *Supervisor) adoptLocked(path string, port Port) {
	s.closing = false
	s.path = path
	s.port = port
	s.cancelReconnectLocked()
	s.engine.SetWriter(port)

	s.readWG.Add(1)
	go s.readLoop(port)

	s.cfg.Events.Open()
}

// readLoop is the supervisor's single read goroutine for the life of one
// open port; it feeds inbound bytes to the engine and reacts to the first
// read error by tearing the port down and (unless Close is in progress)
// scheduling a reconnect.
func (s *Supervisor) readLoop(port Port) {
	defer s.readWG.Done()
	buf := queue.GetBuffer(4096)
	defer queue.PutBuffer(buf)

	for {
		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.engine.Feed(chunk)
		}
		if err != nil {
			s.onReadError(port, err)
			return
		}
	}
}

func (s *Supervisor) onReadError(port Port, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != port {
		// Already replaced or torn down by Close/reconnect; nothing to do.
		return
	}
	s.port = nil
	s.engine.SetWriter(nil)
	port.Close()

	s.cfg.Events.Error(err)
	s.cfg.Events.Close()

	if !s.closing {
		s.armReconnectLocked(s.path)
		s.cfg.Events.Failed(err)
	}
}

func (s *Supervisor) armReconnectLocked(path string) {
	s.cancelReconnectLocked()
	interval := time.Duration(s.cfg.ReconnectIntervalMS) * time.Millisecond
	s.reconnectTimer = time.AfterFunc(interval, func() {
		s.mu.Lock()
		alreadyOpen := s.port != nil
		closing := s.closing
		s.mu.Unlock()
		if alreadyOpen || closing {
			return
		}
		s.Open(path)
	})
}

func (s *Supervisor) cancelReconnectLocked() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

// Close sets closing, clears the engine's pending work, closes the port,
// and cancels any reconnect timer. Idempotent.
func (s *Supervisor) Close() {
	s.mu.Lock()
	s.closing = true
	s.cancelReconnectLocked()
	port := s.port
	s.port = nil
	s.mu.Unlock()

	s.engine.Clear()
	s.engine.SetWriter(nil)

	if port != nil {
		port.Close()
	}
	s.readWG.Wait()
	if port != nil {
		s.cfg.Events.Close()
	}
}

// IsOpen reports whether a port is currently open.
func (s *Supervisor) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}
