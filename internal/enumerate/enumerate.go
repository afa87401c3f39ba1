// Package enumerate lists USB-serial device nodes by vendor/product
// identifier. It is a thin collaborator, deliberately kept outside the
// protocol/queue/supervisor core: callers may swap it out entirely by
// supplying a device path directly to Open.
package enumerate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PortInfo describes one candidate serial device node.
type PortInfo struct {
	Path      string
	VendorID  uint16
	ProductID uint16
}

// sysTTYRoot is a var rather than a const so tests can point it at a
// fabricated sysfs tree.
var sysTTYRoot = "/sys/class/tty"

// Ports lists /dev/tty* nodes whose USB vendor/product identifiers match
// vendorID and productID. Devices without a USB ancestor, or whose
// identifiers can't be read, are skipped rather than erroring the whole
// scan.
func Ports(vendorID, productID uint16) ([]PortInfo, error) {
	entries, err := os.ReadDir(sysTTYRoot)
	if err != nil {
		return nil, err
	}

	var found []PortInfo
	for _, entry := range entries {
		name := entry.Name()
		vid, pid, ok := readUSBIDs(filepath.Join(sysTTYRoot, name, "device"))
		if !ok || vid != vendorID || pid != productID {
			continue
		}
		found = append(found, PortInfo{
			Path:      filepath.Join("/dev", name),
			VendorID:  vid,
			ProductID: pid,
		})
	}
	return found, nil
}

// readUSBIDs walks up from a tty's sysfs device symlink looking for the
// idVendor/idProduct files sysfs exposes on the owning USB interface.
func readUSBIDs(deviceLink string) (vendorID, productID uint16, ok bool) {
	real, err := filepath.EvalSymlinks(deviceLink)
	if err != nil {
		return 0, 0, false
	}

	dir := real
	for i := 0; i < 8; i++ {
		vid, vErr := readHexFile(filepath.Join(dir, "idVendor"))
		pid, pErr := readHexFile(filepath.Join(dir, "idProduct"))
		if vErr == nil && pErr == nil {
			return vid, pid, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return 0, 0, false
}

func readHexFile(path string) (uint16, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
