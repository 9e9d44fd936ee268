package outbound

import "github.com/ajkula/GoGRT/domain/model"

// HeapStats is a point-in-time heap reading.
type HeapStats struct {
	UsedBytes  uint64 `json:"usedBytes"`
	LimitBytes uint64 `json:"limitBytes"`
}

// HeapProbe samples process heap usage for the monitor's memory trend.
// Implementations must be cheap enough to call once per frame.
type HeapProbe interface {
	HeapUsage() HeapStats
}

// MachineIDService resolves a stable identifier for the host machine.
type MachineIDService interface {
	GetMachineID() (string, error)
}

// DeviceProbe builds the host capability profile consumed by the
// optimizer. Detect runs once per surface, at construction.
type DeviceProbe interface {
	Detect(caps model.ContextCapabilities) model.DeviceCapabilities
}
