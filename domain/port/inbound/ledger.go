package inbound

import "github.com/ajkula/GoGRT/domain/model"

// ResourceMetrics is a point-in-time snapshot of everything the ledger
// tracks, plus a coarse memory footprint estimate.
type ResourceMetrics struct {
	Buffers        int     `json:"buffers"`
	Textures       int     `json:"textures"`
	Framebuffers   int     `json:"framebuffers"`
	Programs       int     `json:"programs"`
	Shaders        int     `json:"shaders"`
	TotalResources int     `json:"totalResources"`
	EstimatedMB    float64 `json:"estimatedMB"`
	Generation     uint64  `json:"generation"`
	ContextLost    bool    `json:"contextLost"`
}

// MemoryPressureReport is the result of a pressure check.
type MemoryPressureReport struct {
	UnderPressure   bool            `json:"underPressure"`
	Recommendations []string        `json:"recommendations"`
	Metrics         ResourceMetrics `json:"metrics"`
}

// LedgerService owns every GPU-side resource of one rendering surface.
// All successful allocations are registered; all deletions go through
// the ledger so nothing device-side outlives its bookkeeping entry.
type LedgerService interface {
	CreateBuffer(label string) (model.ResourceHandle, error)
	CreateTexture(label string) (model.ResourceHandle, error)
	CreateFramebuffer(label string) (model.ResourceHandle, error)
	CreateShader(stage model.ShaderStage) (model.ResourceHandle, error)
	CreateProgram() (model.ResourceHandle, error)

	// CompileShader creates a shader, submits the source and compiles it.
	// On failure the shader is deleted before the error is returned, so a
	// failed compile leaves no residue in the ledger.
	CompileShader(source string, stage model.ShaderStage) (model.ResourceHandle, error)

	// LinkProgram creates a program, attaches the two shaders and links.
	// On failure the program is deleted before the error is returned.
	LinkProgram(vertex, fragment model.ResourceHandle) (model.ResourceHandle, error)

	// Deletions of unknown or stale handles are silent no-ops.
	DeleteBuffer(h model.ResourceHandle)
	DeleteTexture(h model.ResourceHandle)
	DeleteFramebuffer(h model.ResourceHandle)
	DeleteShader(h model.ResourceHandle)
	DeleteProgram(h model.ResourceHandle)

	// WriteBuffer uploads data through a tracked buffer handle.
	WriteBuffer(h model.ResourceHandle, data []byte) error

	// IsResourceValid reports whether the handle refers to a live
	// resource of the current context generation.
	IsResourceValid(h model.ResourceHandle) bool

	Metrics() ResourceMetrics
	MemoryPressure() MemoryPressureReport

	// Cleanup destroys every live resource and closes the ledger.
	// Idempotent; safe to call during teardown paths that may run twice.
	Cleanup()
}
