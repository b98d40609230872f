// Package identity derives the device identifiers sent to the platform.
package identity

import (
	"fmt"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"

	"github.com/resbox/resbox-core/internal/util"
)

type Identity struct {
	// HardwareID is the raw machine identifier.
	HardwareID string
	// SecretMachineID is the first 16 bytes of HardwareID rendered as a UUID.
	SecretMachineID string
	// DeviceHash is the lowercase hex sha256 of HardwareID, sent as the UID header.
	DeviceHash string
}

func FromHardwareID(hwid string) Identity {
	var raw uuid.UUID
	copy(raw[:], hwid)
	return Identity{
		HardwareID:      hwid,
		SecretMachineID: raw.String(),
		DeviceHash:      util.SHA256Hex([]byte(hwid)),
	}
}

// Detect reads the operating system's machine id.
func Detect() (Identity, error) {
	hwid, err := machineid.ID()
	if err != nil {
		return Identity{}, fmt.Errorf("read machine id: %w", err)
	}
	return FromHardwareID(hwid), nil
}
