//go:build linux

package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Opening a real tty and exercising termios2 configuration needs an actual
// serial device or pty pair, unavailable in most sandboxes this runs in.
// These tests cover the error path that doesn't require one; the raw-mode
// ioctl path is not covered here.

func TestOpenMissingPathReturnsError(t *testing.T) {
	_, err := Open("/dev/does-not-exist-ryderserial", Options{BaudRate: 115200})
	assert.Error(t, err)
}

func TestOpenMissingPathErrorWrapsPath(t *testing.T) {
	_, err := Open("/dev/does-not-exist-ryderserial", Options{BaudRate: 115200})
	assert.ErrorContains(t, err, "does-not-exist-ryderserial")
}
