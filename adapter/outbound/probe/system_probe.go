package probe

import (
	"runtime"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

const defaultMemoryBudgetMB = 4096

// SystemProbe builds the host capability profile from the runtime and
// the hardware fingerprint service. Detection is a one-shot read; the
// result is treated as immutable for the life of a surface.
type SystemProbe struct {
	machineID outbound.MachineIDService
	logger    outbound.Logger
	memoryMB  int
}

func NewSystemProbe(machineID outbound.MachineIDService, logger outbound.Logger, memoryMB int) *SystemProbe {
	return &SystemProbe{
		machineID: machineID,
		logger:    logger,
		memoryMB:  memoryMB,
	}
}

func (p *SystemProbe) Detect(caps model.ContextCapabilities) model.DeviceCapabilities {
	hostID, err := p.machineID.GetMachineID()
	if err != nil {
		// a missing fingerprint degrades the report, not the service
		p.logger.Warn("machine id unavailable", "error", err)
		hostID = ""
	}

	memoryMB := p.memoryMB
	if memoryMB <= 0 {
		memoryMB = defaultMemoryBudgetMB
	}

	cpus := runtime.NumCPU()
	mobile := runtime.GOOS == "android" || runtime.GOOS == "ios"

	device := model.DeviceCapabilities{
		HostID:         hostID,
		GraphicsTier:   caps.Tier,
		MaxTextureSize: caps.MaxTextureSize,
		DeviceMemoryMB: memoryMB,
		LogicalCPUs:    cpus,
		Mobile:         mobile,
		LowEnd:         cpus <= 2 || memoryMB <= 2048,
		Network:        model.NetworkUnknown,
	}

	p.logger.Debug("device capabilities detected",
		"tier", device.GraphicsTier,
		"cpus", device.LogicalCPUs,
		"memory_mb", device.DeviceMemoryMB,
		"low_end", device.LowEnd)

	return device
}
