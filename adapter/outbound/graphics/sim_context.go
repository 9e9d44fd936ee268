package graphics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

// SimOptions configures a simulated context.
type SimOptions struct {
	Capabilities model.ContextCapabilities
}

func defaultCapabilities() model.ContextCapabilities {
	return model.ContextCapabilities{
		Tier:           model.TierAdvanced,
		MaxTextureSize: 8192,
		MaxBufferBytes: 256 << 20,
	}
}

type bufferState struct {
	label string
	size  int
}

type shaderState struct {
	stage    model.ShaderStage
	source   string
	compiled bool
}

type programState struct {
	linked bool
}

// ResourceCounts is a point-in-time census of live device objects,
// exposed for diagnostics and tests.
type ResourceCounts struct {
	Buffers      int
	Textures     int
	Framebuffers int
	Shaders      int
	Programs     int
}

// SimulatedContext is an in-process stand-in for a GPU context. It
// allocates opaque IDs, validates shader sources and program links the
// way a driver would, and can lose and restore its context on demand
// so recovery paths can be exercised without real hardware.
//
// Context loss drops every live object, mirroring how a real device
// invalidates all names when the context goes away. After a restore
// the context starts empty; callers are expected to rebuild.
type SimulatedContext struct {
	caps model.ContextCapabilities

	mu           sync.Mutex
	nextID       model.ResourceID
	lost         bool
	failNext     int
	buffers      map[model.ResourceID]*bufferState
	textures     map[model.ResourceID]string
	framebuffers map[model.ResourceID]string
	shaders      map[model.ResourceID]*shaderState
	programs     map[model.ResourceID]*programState
	listeners    map[int]outbound.ContextStateListener
	subSeq       int
}

var _ outbound.GraphicsContext = (*SimulatedContext)(nil)
var _ outbound.ContextLossInjector = (*SimulatedContext)(nil)

// NewSimulatedContext builds a healthy simulated context.
func NewSimulatedContext(opts SimOptions) *SimulatedContext {
	caps := opts.Capabilities
	if caps.MaxTextureSize <= 0 {
		caps = defaultCapabilities()
	}
	return &SimulatedContext{
		caps:         caps,
		buffers:      make(map[model.ResourceID]*bufferState),
		textures:     make(map[model.ResourceID]string),
		framebuffers: make(map[model.ResourceID]string),
		shaders:      make(map[model.ResourceID]*shaderState),
		programs:     make(map[model.ResourceID]*programState),
		listeners:    make(map[int]outbound.ContextStateListener),
	}
}

func (c *SimulatedContext) Capabilities() model.ContextCapabilities {
	return c.caps
}

// allocate hands out the next ID, honoring injected failures and loss.
// Callers hold c.mu.
func (c *SimulatedContext) allocate() (model.ResourceID, error) {
	if c.lost {
		return 0, model.ErrContextLost
	}
	if c.failNext > 0 {
		c.failNext--
		return 0, model.ErrAllocationFailed
	}
	c.nextID++
	return c.nextID, nil
}

func (c *SimulatedContext) CreateBuffer(label string) (model.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.allocate()
	if err != nil {
		return 0, err
	}
	c.buffers[id] = &bufferState{label: label}
	return id, nil
}

func (c *SimulatedContext) DestroyBuffer(id model.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, id)
}

func (c *SimulatedContext) CreateTexture(label string) (model.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.allocate()
	if err != nil {
		return 0, err
	}
	c.textures[id] = label
	return id, nil
}

func (c *SimulatedContext) DestroyTexture(id model.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.textures, id)
}

func (c *SimulatedContext) CreateFramebuffer(label string) (model.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.allocate()
	if err != nil {
		return 0, err
	}
	c.framebuffers[id] = label
	return id, nil
}

func (c *SimulatedContext) DestroyFramebuffer(id model.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.framebuffers, id)
}

func (c *SimulatedContext) CreateShader(stage model.ShaderStage) (model.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.allocate()
	if err != nil {
		return 0, err
	}
	c.shaders[id] = &shaderState{stage: stage}
	return id, nil
}

func (c *SimulatedContext) DestroyShader(id model.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shaders, id)
}

func (c *SimulatedContext) CreateProgram() (model.ResourceID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.allocate()
	if err != nil {
		return 0, err
	}
	c.programs[id] = &programState{}
	return id, nil
}

func (c *SimulatedContext) DestroyProgram(id model.ResourceID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.programs, id)
}

// CompileShader validates the source with the same coarse checks a
// driver front end applies: the source must be non-empty and declare a
// main entry point. The returned log mimics GLSL compiler output.
func (c *SimulatedContext) CompileShader(id model.ResourceID, source string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost {
		return "", model.ErrContextLost
	}
	sh, ok := c.shaders[id]
	if !ok {
		return "", fmt.Errorf("unknown shader id %d", id)
	}
	if strings.TrimSpace(source) == "" {
		sh.compiled = false
		return "ERROR: 0:1: '' : syntax error, empty source", fmt.Errorf("compile failed for %s shader", sh.stage)
	}
	if !strings.Contains(source, "void main") {
		sh.compiled = false
		return "ERROR: 0:1: 'main' : entry point not found", fmt.Errorf("compile failed for %s shader", sh.stage)
	}
	sh.source = source
	sh.compiled = true
	return "", nil
}

// LinkProgram checks that both shaders exist, carry the right stages
// and compiled successfully, then marks the program linked.
func (c *SimulatedContext) LinkProgram(program, vertex, fragment model.ResourceID) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost {
		return "", model.ErrContextLost
	}
	p, ok := c.programs[program]
	if !ok {
		return "", fmt.Errorf("unknown program id %d", program)
	}
	if log, err := c.checkStage(vertex, model.VertexShader); err != nil {
		return log, err
	}
	if log, err := c.checkStage(fragment, model.FragmentShader); err != nil {
		return log, err
	}
	p.linked = true
	return "", nil
}

func (c *SimulatedContext) checkStage(id model.ResourceID, want model.ShaderStage) (string, error) {
	sh, ok := c.shaders[id]
	if !ok {
		return fmt.Sprintf("ERROR: %s shader object missing", want), fmt.Errorf("link failed: no %s shader attached", want)
	}
	if sh.stage != want {
		return fmt.Sprintf("ERROR: attached shader is %s, expected %s", sh.stage, want), fmt.Errorf("link failed: stage mismatch")
	}
	if !sh.compiled {
		return fmt.Sprintf("ERROR: %s shader not successfully compiled", want), fmt.Errorf("link failed: %s shader not compiled", want)
	}
	return "", nil
}

// WriteBuffer stores the upload size, rejecting writes that exceed the
// advertised buffer capacity the way a driver reports OUT_OF_MEMORY.
func (c *SimulatedContext) WriteBuffer(id model.ResourceID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost {
		return model.ErrContextLost
	}
	buf, ok := c.buffers[id]
	if !ok {
		return fmt.Errorf("unknown buffer id %d", id)
	}
	if c.caps.MaxBufferBytes > 0 && int64(len(data)) > c.caps.MaxBufferBytes {
		return fmt.Errorf("%w: upload of %d bytes exceeds buffer limit %d", model.ErrAllocationFailed, len(data), c.caps.MaxBufferBytes)
	}
	buf.size = len(data)
	return nil
}

func (c *SimulatedContext) IsLost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}

// Subscribe registers a listener and returns its removal function.
func (c *SimulatedContext) Subscribe(l outbound.ContextStateListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	key := c.subSeq
	c.listeners[key] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, key)
	}
}

// LoseContext invalidates every live object and notifies listeners.
// Losing an already lost context does nothing.
func (c *SimulatedContext) LoseContext() {
	c.mu.Lock()
	if c.lost {
		c.mu.Unlock()
		return
	}
	c.lost = true
	c.buffers = make(map[model.ResourceID]*bufferState)
	c.textures = make(map[model.ResourceID]string)
	c.framebuffers = make(map[model.ResourceID]string)
	c.shaders = make(map[model.ResourceID]*shaderState)
	c.programs = make(map[model.ResourceID]*programState)
	targets := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range targets {
		l.ContextLost()
	}
}

// RestoreContext brings back an empty, healthy context and notifies
// listeners. Restoring a healthy context does nothing.
func (c *SimulatedContext) RestoreContext() {
	c.mu.Lock()
	if !c.lost {
		c.mu.Unlock()
		return
	}
	c.lost = false
	targets := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range targets {
		l.ContextRestored()
	}
}

// snapshotListeners copies the listener set so callbacks run without
// holding c.mu. Callers hold c.mu.
func (c *SimulatedContext) snapshotListeners() []outbound.ContextStateListener {
	targets := make([]outbound.ContextStateListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		targets = append(targets, l)
	}
	return targets
}

// FailNextAllocations makes the next n create calls fail, simulating
// device memory exhaustion.
func (c *SimulatedContext) FailNextAllocations(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = n
}

// Counts reports how many objects of each kind are currently live.
func (c *SimulatedContext) Counts() ResourceCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ResourceCounts{
		Buffers:      len(c.buffers),
		Textures:     len(c.textures),
		Framebuffers: len(c.framebuffers),
		Shaders:      len(c.shaders),
		Programs:     len(c.programs),
	}
}
