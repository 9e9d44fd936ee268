package outbound

import "github.com/ajkula/GoGRT/domain/model"

// ContextStateListener receives loss and restore notifications from a
// graphics context. Callbacks are delivered outside the context's
// internal lock, one transition at a time.
type ContextStateListener interface {
	ContextLost()
	ContextRestored()
}

// GraphicsContext abstracts the GPU-side device the ledger allocates
// against. Resources are identified by opaque device-assigned IDs;
// creation returns a zero ID plus an error when the device refuses the
// allocation. Destroy calls on unknown IDs are no-ops, matching how
// real drivers treat stale names.
type GraphicsContext interface {
	// Capabilities returns the context's fixed capability report.
	Capabilities() model.ContextCapabilities

	CreateBuffer(label string) (model.ResourceID, error)
	DestroyBuffer(id model.ResourceID)

	CreateTexture(label string) (model.ResourceID, error)
	DestroyTexture(id model.ResourceID)

	CreateFramebuffer(label string) (model.ResourceID, error)
	DestroyFramebuffer(id model.ResourceID)

	CreateShader(stage model.ShaderStage) (model.ResourceID, error)
	DestroyShader(id model.ResourceID)

	CreateProgram() (model.ResourceID, error)
	DestroyProgram(id model.ResourceID)

	// CompileShader submits source for a previously created shader.
	// A non-nil error means compilation failed; the returned log carries
	// the device compiler diagnostics in either case.
	CompileShader(id model.ResourceID, source string) (string, error)

	// LinkProgram attaches two compiled shaders and links the program.
	// A non-nil error means the link failed; the log carries the linker
	// diagnostics.
	LinkProgram(program, vertex, fragment model.ResourceID) (string, error)

	// WriteBuffer uploads data into an existing buffer.
	WriteBuffer(id model.ResourceID, data []byte) error

	// IsLost reports whether the context is currently lost.
	IsLost() bool

	// Subscribe registers a listener for loss and restore transitions
	// and returns a function that removes it.
	Subscribe(l ContextStateListener) func()
}

// ContextLossInjector is implemented by diagnostic backends that can
// lose and restore their context on demand.
type ContextLossInjector interface {
	LoseContext()
	RestoreContext()
}
