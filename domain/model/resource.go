package model

// ResourceKind identifies the class of a GPU-side object tracked by the ledger.
type ResourceKind uint8

const (
	KindBuffer ResourceKind = iota
	KindTexture
	KindFramebuffer
	KindProgram
	KindShader
)

func (k ResourceKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindFramebuffer:
		return "framebuffer"
	case KindProgram:
		return "program"
	case KindShader:
		return "shader"
	default:
		return "unknown"
	}
}

// ResourceID is an opaque identifier assigned by the graphics device.
// Zero is never a valid ID.
type ResourceID uint64

// ResourceHandle is what callers hold after a successful allocation.
// The generation pins the handle to the context incarnation it was
// created under; a context restore bumps the generation, so handles
// that survived a loss can never be mistaken for live resources.
type ResourceHandle struct {
	Kind       ResourceKind `json:"kind"`
	ID         ResourceID   `json:"id"`
	Generation uint64       `json:"generation"`
}

// IsZero reports whether the handle was never assigned.
func (h ResourceHandle) IsZero() bool {
	return h.ID == 0
}

// ShaderStage distinguishes the two programmable pipeline stages.
type ShaderStage uint8

const (
	VertexShader ShaderStage = iota
	FragmentShader
)

func (s ShaderStage) String() string {
	switch s {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	default:
		return "unknown"
	}
}
