package ryderserial

import (
	"github.com/chazkiker2/ryderserial-go/internal/logging"
)

// LockPolicy selects how the engine reacts when the device answers with the
// LOCKED response byte. It has no effect on the advisory lock layer
// (Lock/Unlock/Sequence), which never gates submissions.
type LockPolicy int

const (
	// LockPolicyQueue reports the LOCKED event and keeps the in-flight
	// command and the queue as they are (permissive, the default).
	LockPolicyQueue LockPolicy = iota

	// LockPolicyReject reports the LOCKED event and fails the in-flight
	// command and every queued one with CodeLocked.
	LockPolicyReject
)

// Config controls the tunable behavior of a Driver. Use DefaultConfig and
// the With* options rather than constructing Config directly, since the
// zero value of some fields (BaudRate in particular) is not a usable
// default.
type Config struct {
	// BaudRate is the serial link speed.
	BaudRate int

	// ExclusiveLock requests the OS-level exclusive port lock on open.
	ExclusiveLock bool

	// ReconnectIntervalMS is the period between reconnect attempts after
	// an unexpected close.
	ReconnectIntervalMS int

	// LockPolicy selects keep-going vs. fail-everything behavior when the
	// device reports LOCKED.
	LockPolicy LockPolicy

	// Debug forces maximum log verbosity (logging.LevelDebug) regardless
	// of LogLevel.
	Debug bool

	// LogLevel sets the minimum level the driver's logger emits at.
	// Left unset (logging.LevelUnset, the default), it implies the same
	// maximum verbosity as Debug=true.
	LogLevel logging.LogLevel

	// Logger receives the driver's structured log output. Defaults to
	// logging.Default() when nil. Its level is overwritten per the
	// Debug/LogLevel resolution above once the Config is finalized.
	Logger *logging.Logger

	// Observer receives metrics events. Defaults to NoOpObserver when nil.
	Observer Observer
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() *Config {
	return &Config{
		BaudRate:            DefaultBaudRate,
		ExclusiveLock:       DefaultExclusiveLock,
		ReconnectIntervalMS: DefaultReconnectIntervalMS,
		LockPolicy:          LockPolicyQueue,
		LogLevel:            logging.LevelUnset,
		Logger:              logging.Default(),
		Observer:            NoOpObserver{},
	}
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithBaudRate overrides the serial link speed.
func WithBaudRate(baud int) Option {
	return func(c *Config) { c.BaudRate = baud }
}

// WithExclusiveLock toggles the OS-level exclusive port lock.
func WithExclusiveLock(exclusive bool) Option {
	return func(c *Config) { c.ExclusiveLock = exclusive }
}

// WithReconnectInterval overrides the delay between reconnect attempts.
func WithReconnectInterval(ms int) Option {
	return func(c *Config) { c.ReconnectIntervalMS = ms }
}

// WithLockPolicy selects the policy applied when the device reports LOCKED.
func WithLockPolicy(p LockPolicy) Option {
	return func(c *Config) { c.LockPolicy = p }
}

// WithRejectOnLocked is a convenience wrapper for WithLockPolicy that
// matches the boolean framing of the legacy REJECT_ON_LOCKED setting.
func WithRejectOnLocked(reject bool) Option {
	return func(c *Config) {
		if reject {
			c.LockPolicy = LockPolicyReject
		} else {
			c.LockPolicy = LockPolicyQueue
		}
	}
}

// WithLogger overrides the destination for the driver's log output.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithLogLevel sets the minimum level the driver's logger emits at,
// overriding the unset-implies-maximum-verbosity default.
func WithLogLevel(level logging.LogLevel) Option {
	return func(c *Config) { c.LogLevel = level }
}

// WithDebug forces maximum log verbosity regardless of LogLevel.
func WithDebug(debug bool) Option {
	return func(c *Config) { c.Debug = debug }
}

// WithObserver overrides the destination for the driver's metrics events.
func WithObserver(o Observer) Option {
	return func(c *Config) { c.Observer = o }
}

// newConfig applies opts over DefaultConfig, filling any nil collaborator
// fields left unset, then resolves the Debug/LogLevel rule: Debug=true or
// an unset LogLevel both select logging.LevelDebug, otherwise LogLevel is
// used as given.
func newConfig(opts ...Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	if c.Observer == nil {
		c.Observer = NoOpObserver{}
	}

	level := c.LogLevel
	if c.Debug || c.LogLevel == logging.LevelUnset {
		level = logging.LevelDebug
	}
	c.Logger.SetLevel(level)

	return c
}
