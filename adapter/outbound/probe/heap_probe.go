package probe

import (
	"runtime"

	"github.com/ajkula/GoGRT/domain/port/outbound"
)

const defaultHeapLimitMB = 512

// RuntimeHeapProbe reads live heap usage from the Go runtime. The
// limit is a configured budget, not a hard cap; the monitor uses it
// to express usage as a ratio.
type RuntimeHeapProbe struct {
	limitBytes uint64
}

func NewRuntimeHeapProbe(limitMB int) *RuntimeHeapProbe {
	if limitMB <= 0 {
		limitMB = defaultHeapLimitMB
	}
	return &RuntimeHeapProbe{limitBytes: uint64(limitMB) << 20}
}

func (p *RuntimeHeapProbe) HeapUsage() outbound.HeapStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return outbound.HeapStats{
		UsedBytes:  ms.HeapAlloc,
		LimitBytes: p.limitBytes,
	}
}
