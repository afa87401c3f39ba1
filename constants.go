package ryderserial

import "github.com/chazkiker2/ryderserial-go/internal/constants"

// Re-exported defaults for the public API.
const (
	DefaultBaudRate            = constants.DefaultBaudRate
	DefaultExclusiveLock       = constants.DefaultExclusiveLock
	DefaultReconnectIntervalMS = constants.DefaultReconnectIntervalMS
	DefaultRejectOnLocked      = constants.DefaultRejectOnLocked

	USBVendorID  = constants.USBVendorID
	USBProductID = constants.USBProductID
)

// Opcode identifies a command understood by the device. The driver treats
// opcodes as opaque bytes; their semantic meaning is the caller's concern.
// Exposed here only as named constants for callers building requests.
type Opcode byte

const (
	WAKE                             Opcode = 1
	INFO                             Opcode = 2
	SETUP                            Opcode = 10
	RESTORE_FROM_SEED                Opcode = 11
	RESTORE_FROM_MNEMONIC            Opcode = 12
	ERASE                            Opcode = 13
	EXPORT_OWNER_KEY                 Opcode = 18
	EXPORT_OWNER_KEY_PRIVATE_KEY     Opcode = 19
	EXPORT_APP_KEY                   Opcode = 20
	EXPORT_APP_KEY_PRIVATE_KEY       Opcode = 21
	EXPORT_OWNER_APP_KEY_PRIVATE_KEY Opcode = 23
	EXPORT_PUBLIC_IDENTITIES         Opcode = 30
	EXPORT_PUBLIC_IDENTITY           Opcode = 31
	START_ENCRYPT                    Opcode = 40
	START_DECRYPT                    Opcode = 41
	CANCEL                           Opcode = 100
)

func (o Opcode) Byte() byte { return byte(o) }
