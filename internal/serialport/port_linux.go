//go:build linux

// Package serialport opens and configures a raw serial device file. It is
// the OS adapter beneath the connection supervisor: callers get a plain
// io.ReadWriteCloser plus a couple of Linux-specific knobs (exclusive lock,
// arbitrary baud rate) that the standard library has no portable API for.
package serialport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Port is an open serial device file configured for raw 8-N-1 I/O.
type Port struct {
	file *os.File
	fd   int
}

// Options configures a Port at open time.
type Options struct {
	BaudRate  int
	Exclusive bool
}

// Open opens path and puts it into raw mode at the given options. The
// caller owns the returned Port and must Close it.
func Open(path string, opts Options) (*Port, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", path, err)
	}
	fd := int(f.Fd())
	p := &Port{file: f, fd: fd}

	if err := p.makeRaw(opts.BaudRate); err != nil {
		f.Close()
		return nil, err
	}
	if opts.Exclusive {
		if err := p.setExclusive(); err != nil {
			f.Close()
			return nil, err
		}
	}
	// Reads should block for data rather than poll; clear O_NONBLOCK once
	// the port is open and configured.
	if err := unix.SetNonblock(fd, false); err != nil {
		f.Close()
		return nil, fmt.Errorf("serialport: clear nonblock: %w", err)
	}
	return p, nil
}

// makeRaw configures 8-N-1 raw mode at the given baud rate. Every rate,
// standard or not, is set via the termios2/BOTHER extension the kernel uses
// for arbitrary baud rates.
func (p *Port) makeRaw(baud int) error {
	t, err := unix.IoctlGetTermios2(p.fd, unix.TCGETS2)
	if err != nil {
		return fmt.Errorf("serialport: get termios2: %w", err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	t.Cflag &^= unix.CBAUD | unix.CBAUDEX
	t.Cflag |= unix.BOTHER
	t.Ispeed = uint32(baud)
	t.Ospeed = uint32(baud)

	if err := unix.IoctlSetTermios2(p.fd, unix.TCSETS2, t); err != nil {
		return fmt.Errorf("serialport: set termios2: %w", err)
	}
	return nil
}

// setExclusive requests the kernel's TIOCEXCL advisory lock, which refuses
// a second open of the same device node from another process.
func (p *Port) setExclusive() error {
	if err := unix.IoctlSetInt(p.fd, unix.TIOCEXCL, 0); err != nil {
		return fmt.Errorf("serialport: set exclusive: %w", err)
	}
	return nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	return p.file.Read(b)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// Close implements io.Closer. Closing the underlying fd also releases any
// TIOCEXCL lock held on it.
func (p *Port) Close() error {
	return p.file.Close()
}

// Fd returns the underlying file descriptor, for callers that need to
// select/poll on it directly.
func (p *Port) Fd() int {
	return p.fd
}
