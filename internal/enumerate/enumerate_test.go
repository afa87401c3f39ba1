package enumerate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeUSBDevice fabricates a <ttyRoot>/<ttyName>/device directory carrying
// idVendor/idProduct directly, the way a USB-serial interface's immediate
// sysfs ancestor does.
func writeUSBDevice(t *testing.T, ttyRoot, ttyName string, vendorID, productID string) {
	t.Helper()
	devDir := filepath.Join(ttyRoot, ttyName, "device")
	require.NoError(t, os.MkdirAll(devDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(devDir, "idVendor"), []byte(vendorID+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(devDir, "idProduct"), []byte(productID+"\n"), 0o644))
}

func TestPortsFiltersByVendorAndProduct(t *testing.T) {
	root := t.TempDir()
	orig := sysTTYRoot
	sysTTYRoot = root
	t.Cleanup(func() { sysTTYRoot = orig })

	writeUSBDevice(t, root, "ttyUSB0", "10c4", "ea60")
	writeUSBDevice(t, root, "ttyUSB1", "0403", "6001")

	ports, err := Ports(0x10c4, 0xea60)
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, filepath.Join("/dev", "ttyUSB0"), ports[0].Path)
	assert.Equal(t, uint16(0x10c4), ports[0].VendorID)
	assert.Equal(t, uint16(0xea60), ports[0].ProductID)
}

func TestPortsEmptyWhenNoMatch(t *testing.T) {
	root := t.TempDir()
	orig := sysTTYRoot
	sysTTYRoot = root
	t.Cleanup(func() { sysTTYRoot = orig })

	writeUSBDevice(t, root, "ttyUSB0", "0403", "6001")

	ports, err := Ports(0x10c4, 0xea60)
	require.NoError(t, err)
	assert.Empty(t, ports)
}
