// Package constants holds fixed protocol- and device-level values shared
// across the driver's internal packages.
package constants

import "time"

// Default configuration values.
const (
	// DefaultBaudRate is the serial link speed used unless overridden.
	DefaultBaudRate = 115200

	// DefaultExclusiveLock requests the OS-level exclusive port lock by default.
	DefaultExclusiveLock = true

	// DefaultReconnectIntervalMS is the period between reconnect attempts.
	DefaultReconnectIntervalMS = 1000

	// DefaultRejectOnLocked selects the permissive LOCKED policy by default.
	DefaultRejectOnLocked = false
)

// Watchdog is the single-shot timeout that fails a head command with no
// inbound progress. The Driver always uses it; an Engine built directly can
// override it through protocol.Config.Watchdog.
const Watchdog = 5000 * time.Millisecond

// USB vendor/product identifiers used by the default enumeration filter.
const (
	USBVendorID  = 0x10c4
	USBProductID = 0xea60
)

// Queue sizing. A generous default that comfortably covers bursts of
// pipelined submissions without becoming a hidden backpressure knob; the
// queue itself is unbounded in spec semantics, this only sizes the
// internal channel buffer used to hand submissions to the engine goroutine.
const SubmitChannelDepth = 64
