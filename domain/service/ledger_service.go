package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

// Per-kind footprint estimates, in KB. Deliberately coarse: the point
// is trend and pressure detection, not accounting.
const (
	bufferFootprintKB      = 100
	textureFootprintKB     = 4096
	framebufferFootprintKB = 1024
	programFootprintKB     = 64
	shaderFootprintKB      = 16
)

// PressureThresholds are the limits MemoryPressure evaluates against.
type PressureThresholds struct {
	MaxTextures    int
	MaxBuffers     int
	MaxPrograms    int
	MaxEstimatedMB float64
}

// DefaultPressureThresholds returns limits sized for a mid-range device.
func DefaultPressureThresholds() PressureThresholds {
	return PressureThresholds{
		MaxTextures:    20,
		MaxBuffers:     50,
		MaxPrograms:    10,
		MaxEstimatedMB: 50,
	}
}

type resourceEntry struct {
	label     string
	createdAt time.Time
}

// LedgerServiceImpl tracks the live GPU resources of one surface and
// mirrors the context's lost/active state machine. While the context
// is lost every allocation fails fast and every deletion is a no-op;
// a restore bumps the generation so stale handles stay dead.
type LedgerServiceImpl struct {
	gfx        outbound.GraphicsContext
	logger     outbound.Logger
	thresholds PressureThresholds
	now        func() time.Time

	mu          sync.RWMutex
	generation  uint64
	lost        bool
	closed      bool
	live        map[model.ResourceKind]map[model.ResourceID]*resourceEntry
	unsubscribe func()
}

// NewLedgerService builds a ledger bound to one graphics context and
// subscribes it to the context's loss notifications.
func NewLedgerService(gfx outbound.GraphicsContext, logger outbound.Logger, thresholds PressureThresholds) *LedgerServiceImpl {
	s := &LedgerServiceImpl{
		gfx:        gfx,
		logger:     logger,
		thresholds: thresholds,
		now:        time.Now,
		live:       newLiveSets(),
	}
	s.unsubscribe = gfx.Subscribe(s)
	if gfx.IsLost() {
		s.lost = true
	}
	return s
}

func newLiveSets() map[model.ResourceKind]map[model.ResourceID]*resourceEntry {
	return map[model.ResourceKind]map[model.ResourceID]*resourceEntry{
		model.KindBuffer:      {},
		model.KindTexture:     {},
		model.KindFramebuffer: {},
		model.KindProgram:     {},
		model.KindShader:      {},
	}
}

// ContextLost implements outbound.ContextStateListener. The device has
// already dropped every resource, so the live sets are cleared without
// issuing destroy calls.
func (s *LedgerServiceImpl) ContextLost() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lost || s.closed {
		return
	}
	s.lost = true
	dropped := s.totalLocked()
	s.clearLiveLocked()

	s.logger.Warn("graphics context lost",
		"generation", s.generation,
		"droppedResources", dropped)
}

// ContextRestored implements outbound.ContextStateListener. Moving to
// a new generation invalidates every handle issued before the loss.
func (s *LedgerServiceImpl) ContextRestored() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lost || s.closed {
		return
	}
	s.lost = false
	s.generation++

	s.logger.Info("graphics context restored",
		"generation", s.generation)
}

func (s *LedgerServiceImpl) CreateBuffer(label string) (model.ResourceHandle, error) {
	return s.create(model.KindBuffer, label, func() (model.ResourceID, error) {
		return s.gfx.CreateBuffer(label)
	})
}

func (s *LedgerServiceImpl) CreateTexture(label string) (model.ResourceHandle, error) {
	return s.create(model.KindTexture, label, func() (model.ResourceID, error) {
		return s.gfx.CreateTexture(label)
	})
}

func (s *LedgerServiceImpl) CreateFramebuffer(label string) (model.ResourceHandle, error) {
	return s.create(model.KindFramebuffer, label, func() (model.ResourceID, error) {
		return s.gfx.CreateFramebuffer(label)
	})
}

func (s *LedgerServiceImpl) CreateShader(stage model.ShaderStage) (model.ResourceHandle, error) {
	return s.create(model.KindShader, stage.String(), func() (model.ResourceID, error) {
		return s.gfx.CreateShader(stage)
	})
}

func (s *LedgerServiceImpl) CreateProgram() (model.ResourceHandle, error) {
	return s.create(model.KindProgram, "program", func() (model.ResourceID, error) {
		return s.gfx.CreateProgram()
	})
}

// create runs one allocation under the lock so the lost check, the
// device call and the registration are a single step with respect to
// loss notifications.
func (s *LedgerServiceImpl) create(kind model.ResourceKind, label string, alloc func() (model.ResourceID, error)) (model.ResourceHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ResourceHandle{}, model.ErrLedgerClosed
	}
	if s.lost {
		return model.ResourceHandle{}, model.ErrContextLost
	}

	id, err := alloc()
	if err != nil {
		s.logger.Error("resource allocation failed",
			"kind", kind.String(),
			"label", label,
			"error", err.Error())
		return model.ResourceHandle{}, fmt.Errorf("%w: %s %q: %v", model.ErrAllocationFailed, kind, label, err)
	}
	if id == 0 {
		return model.ResourceHandle{}, fmt.Errorf("%w: %s %q: device returned invalid id", model.ErrAllocationFailed, kind, label)
	}

	s.live[kind][id] = &resourceEntry{label: label, createdAt: s.now()}
	return model.ResourceHandle{Kind: kind, ID: id, Generation: s.generation}, nil
}

// CompileShader allocates, submits and compiles in one call. A failed
// compile deletes the shader before returning, so no half-built shader
// stays registered.
func (s *LedgerServiceImpl) CompileShader(source string, stage model.ShaderStage) (model.ResourceHandle, error) {
	h, err := s.CreateShader(stage)
	if err != nil {
		return model.ResourceHandle{}, err
	}

	buildLog, err := s.gfx.CompileShader(h.ID, source)
	if err != nil {
		s.DeleteShader(h)
		if errors.Is(err, model.ErrContextLost) {
			return model.ResourceHandle{}, model.ErrContextLost
		}
		s.logger.Error("shader compilation failed",
			"stage", stage.String(),
			"log", buildLog)
		return model.ResourceHandle{}, &model.ShaderCompileError{Stage: stage, Log: buildLog}
	}
	return h, nil
}

// LinkProgram allocates a program, attaches the two shaders and links.
// A failed link deletes the program before returning.
func (s *LedgerServiceImpl) LinkProgram(vertex, fragment model.ResourceHandle) (model.ResourceHandle, error) {
	h, err := s.CreateProgram()
	if err != nil {
		return model.ResourceHandle{}, err
	}

	linkLog, err := s.gfx.LinkProgram(h.ID, vertex.ID, fragment.ID)
	if err != nil {
		s.DeleteProgram(h)
		if errors.Is(err, model.ErrContextLost) {
			return model.ResourceHandle{}, model.ErrContextLost
		}
		s.logger.Error("program link failed", "log", linkLog)
		return model.ResourceHandle{}, &model.ProgramLinkError{Log: linkLog}
	}
	return h, nil
}

func (s *LedgerServiceImpl) DeleteBuffer(h model.ResourceHandle) {
	s.remove(model.KindBuffer, h, s.gfx.DestroyBuffer)
}

func (s *LedgerServiceImpl) DeleteTexture(h model.ResourceHandle) {
	s.remove(model.KindTexture, h, s.gfx.DestroyTexture)
}

func (s *LedgerServiceImpl) DeleteFramebuffer(h model.ResourceHandle) {
	s.remove(model.KindFramebuffer, h, s.gfx.DestroyFramebuffer)
}

func (s *LedgerServiceImpl) DeleteShader(h model.ResourceHandle) {
	s.remove(model.KindShader, h, s.gfx.DestroyShader)
}

func (s *LedgerServiceImpl) DeleteProgram(h model.ResourceHandle) {
	s.remove(model.KindProgram, h, s.gfx.DestroyProgram)
}

// remove is the shared deletion path. While lost or closed the device
// side is already gone, and stale or untracked handles are ignored, so
// double deletes and post-loss deletes are all harmless.
func (s *LedgerServiceImpl) remove(kind model.ResourceKind, h model.ResourceHandle, destroy func(model.ResourceID)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lost || s.closed {
		return
	}
	if h.Kind != kind || h.Generation != s.generation {
		return
	}
	if _, ok := s.live[kind][h.ID]; !ok {
		return
	}

	destroy(h.ID)
	delete(s.live[kind], h.ID)
}

func (s *LedgerServiceImpl) WriteBuffer(h model.ResourceHandle, data []byte) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return model.ErrLedgerClosed
	}
	if s.lost {
		s.mu.RUnlock()
		return model.ErrContextLost
	}
	_, tracked := s.live[model.KindBuffer][h.ID]
	valid := tracked && h.Kind == model.KindBuffer && h.Generation == s.generation
	s.mu.RUnlock()

	if !valid {
		return model.ErrInvalidHandle
	}
	return s.gfx.WriteBuffer(h.ID, data)
}

func (s *LedgerServiceImpl) IsResourceValid(h model.ResourceHandle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lost || s.closed || h.Generation != s.generation {
		return false
	}
	set, ok := s.live[h.Kind]
	if !ok {
		return false
	}
	_, ok = set[h.ID]
	return ok
}

func (s *LedgerServiceImpl) Metrics() inbound.ResourceMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metricsLocked()
}

func (s *LedgerServiceImpl) metricsLocked() inbound.ResourceMetrics {
	m := inbound.ResourceMetrics{
		Buffers:      len(s.live[model.KindBuffer]),
		Textures:     len(s.live[model.KindTexture]),
		Framebuffers: len(s.live[model.KindFramebuffer]),
		Programs:     len(s.live[model.KindProgram]),
		Shaders:      len(s.live[model.KindShader]),
		Generation:   s.generation,
		ContextLost:  s.lost,
	}
	m.TotalResources = m.Buffers + m.Textures + m.Framebuffers + m.Programs + m.Shaders

	estimatedKB := m.Buffers*bufferFootprintKB +
		m.Textures*textureFootprintKB +
		m.Framebuffers*framebufferFootprintKB +
		m.Programs*programFootprintKB +
		m.Shaders*shaderFootprintKB
	m.EstimatedMB = float64(estimatedKB) / 1024.0

	return m
}

// MemoryPressure compares the current snapshot against the configured
// thresholds and pairs every exceeded limit with an actionable hint.
func (s *LedgerServiceImpl) MemoryPressure() inbound.MemoryPressureReport {
	m := s.Metrics()
	t := s.thresholds

	var recs []string
	if t.MaxTextures > 0 && m.Textures > t.MaxTextures {
		recs = append(recs, fmt.Sprintf(
			"texture count %d exceeds %d, release offscreen textures or use an atlas",
			m.Textures, t.MaxTextures))
	}
	if t.MaxBuffers > 0 && m.Buffers > t.MaxBuffers {
		recs = append(recs, fmt.Sprintf(
			"buffer count %d exceeds %d, pool vertex buffers instead of reallocating",
			m.Buffers, t.MaxBuffers))
	}
	if t.MaxPrograms > 0 && m.Programs > t.MaxPrograms {
		recs = append(recs, fmt.Sprintf(
			"program count %d exceeds %d, share shader programs between passes",
			m.Programs, t.MaxPrograms))
	}
	if t.MaxEstimatedMB > 0 && m.EstimatedMB > t.MaxEstimatedMB {
		recs = append(recs, fmt.Sprintf(
			"estimated footprint %.1fMB exceeds %.0fMB, reduce texture resolution or node count",
			m.EstimatedMB, t.MaxEstimatedMB))
	}

	return inbound.MemoryPressureReport{
		UnderPressure:   len(recs) > 0,
		Recommendations: recs,
		Metrics:         m,
	}
}

// Cleanup destroys every live resource and closes the ledger for good.
// While the context is lost there is nothing to destroy device-side.
func (s *LedgerServiceImpl) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if !s.lost {
		for id := range s.live[model.KindFramebuffer] {
			s.gfx.DestroyFramebuffer(id)
		}
		for id := range s.live[model.KindProgram] {
			s.gfx.DestroyProgram(id)
		}
		for id := range s.live[model.KindShader] {
			s.gfx.DestroyShader(id)
		}
		for id := range s.live[model.KindTexture] {
			s.gfx.DestroyTexture(id)
		}
		for id := range s.live[model.KindBuffer] {
			s.gfx.DestroyBuffer(id)
		}
	}

	released := s.totalLocked()
	s.clearLiveLocked()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	s.logger.Info("resource ledger closed", "releasedResources", released)
}

func (s *LedgerServiceImpl) totalLocked() int {
	total := 0
	for _, set := range s.live {
		total += len(set)
	}
	return total
}

func (s *LedgerServiceImpl) clearLiveLocked() {
	s.live = newLiveSets()
}
