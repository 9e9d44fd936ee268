package machineid

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ajkula/GoGRT/domain/port/outbound"
	"github.com/denisbrodbeck/machineid"
)

type hardwareMachineID struct{}

// NewHardwareMachineID returns the host fingerprint source used in
// device capability reports. The raw platform ID is hashed so the
// value can be sent to the dashboard without exposing it.
func NewHardwareMachineID() outbound.MachineIDService {
	return &hardwareMachineID{}
}

func (h *hardwareMachineID) GetMachineID() (string, error) {
	rawID, err := machineid.ID()
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256([]byte(rawID))
	return hex.EncodeToString(hash[:]), nil
}
