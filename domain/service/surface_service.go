package service

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/ajkula/GoGRT/domain/port/outbound"
	"github.com/google/uuid"
)

// Module identifiers recorded into the monitor by the render loop.
const (
	ModulePhysics  = "physics"
	ModuleGeometry = "geometry"
	ModuleUpload   = "upload"
)

// Constellation shaders: points move, lines fade with distance.
const (
	nodeVertexSource = `attribute vec2 aPosition;
uniform float uPointSize;
void main() {
	gl_Position = vec4(aPosition * 2.0 - 1.0, 0.0, 1.0);
	gl_PointSize = uPointSize;
}`

	nodeFragmentSource = `precision mediump float;
uniform vec4 uColor;
void main() {
	gl_FragColor = uColor;
}`
)

// SurfaceDeps carries everything a new surface needs. NewContext is a
// factory because every surface owns a private graphics context.
type SurfaceDeps struct {
	NewContext      func() outbound.GraphicsContext
	Probe           outbound.DeviceProbe
	Heap            outbound.HeapProbe
	Monitor         MonitorOptions
	Optimizer       OptimizerOptions
	Thresholds      PressureThresholds
	Defaults        model.SurfaceConfig
	FrameInterval   time.Duration
	AdaptEvery      uint64
	AdaptiveQuality bool
}

type pipeline struct {
	vertex   model.ResourceHandle
	fragment model.ResourceHandle
	program  model.ResourceHandle
	nodeBuf  model.ResourceHandle
	edgeBuf  model.ResourceHandle
	sprite   model.ResourceHandle
	target   model.ResourceHandle
}

type node struct {
	x, y   float32
	vx, vy float32
}

// renderSurface is one animated node field with its own context,
// ledger, monitor and optimizer. The frame loop runs on a ticker
// goroutine; REST and WebSocket handlers read through the services.
type renderSurface struct {
	id        string
	name      string
	gfx       outbound.GraphicsContext
	ledger    inbound.LedgerService
	monitor   inbound.MonitorService
	optimizer inbound.OptimizerService
	logger    outbound.Logger
	caps      model.DeviceCapabilities

	frameInterval time.Duration
	adaptEvery    uint64
	adaptive      bool

	mu            sync.Mutex
	cfg           model.SurfaceConfig
	nodes         []node
	pipe          pipeline
	pipelineValid bool
	running       bool
	closed        bool
	frames        uint64
	createdAt     time.Time
	cancel        context.CancelFunc
	done          chan struct{}
	unsubscribe   func()
	rng           *rand.Rand
}

// ContextLost implements outbound.ContextStateListener. The ledger has
// its own listener for the live sets; here we only note that the
// pipeline handles are dead so the loop rebuilds on restore.
func (rs *renderSurface) ContextLost() {
	rs.mu.Lock()
	rs.pipelineValid = false
	rs.pipe = pipeline{}
	rs.mu.Unlock()

	rs.monitor.RecordEvent(model.EventContextLost, "warning", rs.name, nil)
	rs.logger.Warn("surface lost its graphics context", "surface", rs.name)
}

// ContextRestored implements outbound.ContextStateListener. Nothing is
// rebuilt here; the next frame does it once the ledger is active again.
func (rs *renderSurface) ContextRestored() {
	rs.monitor.RecordEvent(model.EventContextRestored, "info", rs.name, nil)
	rs.logger.Info("surface context restored, pipeline rebuild pending", "surface", rs.name)
}

func (rs *renderSurface) run(ctx context.Context) {
	defer close(rs.done)

	ticker := time.NewTicker(rs.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.advanceFrame()
		}
	}
}

// advanceFrame executes one frame: physics, geometry, upload, then the
// bookkeeping that drives adaptation. Everything runs under the surface
// lock so configuration swaps stay frame-atomic.
func (rs *renderSurface) advanceFrame() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.running {
		return
	}

	if !rs.pipelineValid {
		if rs.gfx.IsLost() {
			return // wait for the restore notification
		}
		if err := rs.buildPipelineLocked(); err != nil {
			rs.logger.Error("pipeline build failed", "surface", rs.name, "error", err.Error())
			return
		}
	}

	dt := rs.frameInterval.Seconds()

	start := time.Now()
	rs.stepPhysicsLocked(dt)
	rs.monitor.RecordRenderTime(ModulePhysics, durationMs(time.Since(start)))

	start = time.Now()
	edges := rs.collectEdgesLocked()
	rs.monitor.RecordRenderTime(ModuleGeometry, durationMs(time.Since(start)))

	start = time.Now()
	rs.uploadLocked(edges)
	rs.monitor.RecordRenderTime(ModuleUpload, durationMs(time.Since(start)))

	rs.monitor.RecordFrame()
	rs.frames++

	if rs.adaptEvery > 0 && rs.frames%rs.adaptEvery == 0 {
		rs.reviewLocked()
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// buildPipelineLocked compiles the shaders, links the program and
// allocates the frame buffers through the ledger. On any failure the
// partial pipeline is torn down before the error is returned.
func (rs *renderSurface) buildPipelineLocked() error {
	var p pipeline
	var err error

	cleanup := func() {
		rs.ledger.DeleteProgram(p.program)
		rs.ledger.DeleteShader(p.fragment)
		rs.ledger.DeleteShader(p.vertex)
		rs.ledger.DeleteBuffer(p.nodeBuf)
		rs.ledger.DeleteBuffer(p.edgeBuf)
		rs.ledger.DeleteTexture(p.sprite)
		rs.ledger.DeleteFramebuffer(p.target)
	}

	if p.vertex, err = rs.ledger.CompileShader(nodeVertexSource, model.VertexShader); err != nil {
		return err
	}
	if p.fragment, err = rs.ledger.CompileShader(nodeFragmentSource, model.FragmentShader); err != nil {
		cleanup()
		return err
	}
	if p.program, err = rs.ledger.LinkProgram(p.vertex, p.fragment); err != nil {
		cleanup()
		return err
	}
	if p.nodeBuf, err = rs.ledger.CreateBuffer("node-positions"); err != nil {
		cleanup()
		return err
	}
	if p.edgeBuf, err = rs.ledger.CreateBuffer("edge-indices"); err != nil {
		cleanup()
		return err
	}
	if p.sprite, err = rs.ledger.CreateTexture("node-sprite"); err != nil {
		cleanup()
		return err
	}
	if p.target, err = rs.ledger.CreateFramebuffer("offscreen-target"); err != nil {
		cleanup()
		return err
	}

	rs.pipe = p
	rs.pipelineValid = true
	rs.logger.Debug("pipeline built", "surface", rs.name, "nodes", len(rs.nodes))
	return nil
}

func (rs *renderSurface) teardownPipelineLocked() {
	if !rs.pipelineValid {
		return
	}
	rs.ledger.DeleteProgram(rs.pipe.program)
	rs.ledger.DeleteShader(rs.pipe.fragment)
	rs.ledger.DeleteShader(rs.pipe.vertex)
	rs.ledger.DeleteBuffer(rs.pipe.nodeBuf)
	rs.ledger.DeleteBuffer(rs.pipe.edgeBuf)
	rs.ledger.DeleteTexture(rs.pipe.sprite)
	rs.ledger.DeleteFramebuffer(rs.pipe.target)
	rs.pipe = pipeline{}
	rs.pipelineValid = false
}

func (rs *renderSurface) stepPhysicsLocked(dt float64) {
	step := float32(dt * rs.cfg.AnimationSpeed)
	for i := range rs.nodes {
		n := &rs.nodes[i]
		n.x += n.vx * step
		n.y += n.vy * step

		if n.x < 0 {
			n.x, n.vx = 0, -n.vx
		} else if n.x > 1 {
			n.x, n.vx = 1, -n.vx
		}
		if n.y < 0 {
			n.y, n.vy = 0, -n.vy
		} else if n.y > 1 {
			n.y, n.vy = 1, -n.vy
		}
	}
}

// collectEdgesLocked pairs nodes closer than the connection distance.
// Quadratic, but node budgets keep the field small.
func (rs *renderSurface) collectEdgesLocked() []uint32 {
	maxDist := float32(rs.cfg.ConnectionDistance)
	maxSq := maxDist * maxDist

	var edges []uint32
	for i := 0; i < len(rs.nodes); i++ {
		for j := i + 1; j < len(rs.nodes); j++ {
			dx := rs.nodes[i].x - rs.nodes[j].x
			dy := rs.nodes[i].y - rs.nodes[j].y
			if dx*dx+dy*dy <= maxSq {
				edges = append(edges, uint32(i), uint32(j))
			}
		}
	}
	return edges
}

func (rs *renderSurface) uploadLocked(edges []uint32) {
	positions := make([]byte, len(rs.nodes)*8)
	for i, n := range rs.nodes {
		binary.LittleEndian.PutUint32(positions[i*8:], math.Float32bits(n.x))
		binary.LittleEndian.PutUint32(positions[i*8+4:], math.Float32bits(n.y))
	}
	if err := rs.ledger.WriteBuffer(rs.pipe.nodeBuf, positions); err != nil {
		rs.handleUploadError(err)
		return
	}

	edgeData := make([]byte, len(edges)*4)
	for i, idx := range edges {
		binary.LittleEndian.PutUint32(edgeData[i*4:], idx)
	}
	if err := rs.ledger.WriteBuffer(rs.pipe.edgeBuf, edgeData); err != nil {
		rs.handleUploadError(err)
	}
}

func (rs *renderSurface) handleUploadError(err error) {
	if errors.Is(err, model.ErrContextLost) {
		rs.pipelineValid = false
		rs.pipe = pipeline{}
		return
	}
	rs.logger.Error("buffer upload failed", "surface", rs.name, "error", err.Error())
}

// reviewLocked is the periodic adaptation pass: journal pressure and
// leak findings, then apply the optimizer's recommendation when
// adaptive quality is on.
func (rs *renderSurface) reviewLocked() {
	if pressure := rs.ledger.MemoryPressure(); pressure.UnderPressure {
		rs.monitor.RecordEvent(model.EventPressureWarning, "warning", rs.name, map[string]any{
			"estimatedMB":     pressure.Metrics.EstimatedMB,
			"recommendations": pressure.Recommendations,
		})
	}

	if leak := rs.monitor.CheckMemoryLeaks(); leak.HasLeaks {
		rs.monitor.RecordEvent(model.EventLeakSuspected, "error", rs.name, map[string]any{
			"ratePerMin": leak.LeakRate,
			"confidence": leak.Confidence,
		})
	}

	if !rs.adaptive {
		return
	}

	rec := rs.optimizer.OptimalConfiguration(rs.cfg, rs.caps)
	if !rec.Adjusted {
		return
	}

	rs.applyConfigLocked(rec.Config)
	rs.monitor.RecordEvent(model.EventQualityAdjusted, "info", rs.name, map[string]any{
		"quality":   string(rec.Config.Quality),
		"nodeCount": rec.Config.NodeCount,
		"reasoning": rec.Reasoning,
	})
	rs.logger.Info("surface configuration adjusted",
		"surface", rs.name,
		"quality", string(rec.Config.Quality),
		"nodeCount", rec.Config.NodeCount)
}

func (rs *renderSurface) applyConfigLocked(cfg model.SurfaceConfig) {
	if cfg.NodeCount != len(rs.nodes) {
		rs.resizeNodesLocked(cfg.NodeCount)
	}
	rs.cfg = cfg
}

// resizeNodesLocked keeps surviving nodes in place so a quality change
// does not visibly reshuffle the field.
func (rs *renderSurface) resizeNodesLocked(count int) {
	if count < 0 {
		count = 0
	}
	if count <= len(rs.nodes) {
		rs.nodes = rs.nodes[:count]
		return
	}
	for len(rs.nodes) < count {
		rs.nodes = append(rs.nodes, rs.randomNode())
	}
}

func (rs *renderSurface) randomNode() node {
	return node{
		x:  rs.rng.Float32(),
		y:  rs.rng.Float32(),
		vx: (rs.rng.Float32() - 0.5) * 0.1,
		vy: (rs.rng.Float32() - 0.5) * 0.1,
	}
}

func (rs *renderSurface) start(ctx context.Context) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.running || rs.closed {
		return
	}
	rs.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	rs.cancel = cancel
	rs.done = make(chan struct{})

	rs.monitor.StartMonitoring()
	go rs.run(loopCtx)
}

// stop halts the frame loop and waits for it to exit, so no frame or
// adaptation callback can run once stop returns.
func (rs *renderSurface) stop() {
	rs.mu.Lock()
	if !rs.running {
		rs.mu.Unlock()
		return
	}
	rs.running = false
	cancel := rs.cancel
	done := rs.done
	rs.mu.Unlock()

	cancel()
	<-done

	rs.monitor.StopMonitoring()
}

func (rs *renderSurface) close() {
	rs.stop()

	rs.mu.Lock()
	if rs.closed {
		rs.mu.Unlock()
		return
	}
	rs.closed = true
	rs.teardownPipelineLocked()
	unsubscribe := rs.unsubscribe
	rs.unsubscribe = nil
	rs.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	rs.ledger.Cleanup()
	rs.monitor.Cleanup()
}

func (rs *renderSurface) info() inbound.SurfaceInfo {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return inbound.SurfaceInfo{
		ID:         rs.id,
		Name:       rs.name,
		Config:     rs.cfg,
		Running:    rs.running,
		FrameCount: rs.frames,
		CreatedAt:  rs.createdAt,
	}
}

// SurfaceServiceImpl creates and tears down rendering surfaces. Each
// surface gets a private context, ledger, monitor and optimizer; the
// service only owns the registry.
type SurfaceServiceImpl struct {
	rootCtx context.Context
	logger  outbound.Logger
	deps    SurfaceDeps

	mu       sync.RWMutex
	surfaces map[string]*renderSurface
	closed   bool
}

func NewSurfaceService(ctx context.Context, logger outbound.Logger, deps SurfaceDeps) *SurfaceServiceImpl {
	if deps.FrameInterval <= 0 {
		deps.FrameInterval = 16 * time.Millisecond
	}
	return &SurfaceServiceImpl{
		rootCtx:  ctx,
		logger:   logger,
		deps:     deps,
		surfaces: make(map[string]*renderSurface),
	}
}

func (s *SurfaceServiceImpl) CreateSurface(ctx context.Context, name string, cfg model.SurfaceConfig) (*inbound.SurfaceInfo, error) {
	cfg = s.fillConfig(cfg)

	gfx := s.deps.NewContext()
	ledger := NewLedgerService(gfx, s.logger, s.deps.Thresholds)
	monitor := NewMonitorService(s.logger, s.deps.Heap, s.deps.Monitor)
	optimizer := NewOptimizerService(monitor, ledger, s.logger, s.deps.Optimizer)
	caps := s.deps.Probe.Detect(gfx.Capabilities())

	surf := &renderSurface{
		id:            uuid.NewString(),
		name:          name,
		gfx:           gfx,
		ledger:        ledger,
		monitor:       monitor,
		optimizer:     optimizer,
		logger:        s.logger,
		caps:          caps,
		frameInterval: s.deps.FrameInterval,
		adaptEvery:    s.deps.AdaptEvery,
		adaptive:      s.deps.AdaptiveQuality,
		cfg:           cfg,
		createdAt:     time.Now(),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	surf.resizeNodesLocked(cfg.NodeCount)
	surf.unsubscribe = gfx.Subscribe(surf)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		surf.close()
		return nil, errors.New("surface service is shut down")
	}
	s.surfaces[surf.id] = surf
	s.mu.Unlock()

	surf.start(s.rootCtx)

	s.logger.Info("surface created",
		"surface", name,
		"id", surf.id,
		"quality", string(cfg.Quality),
		"nodeCount", cfg.NodeCount,
		"graphicsTier", string(caps.GraphicsTier))

	info := surf.info()
	return &info, nil
}

// fillConfig completes an incoming configuration with the service
// defaults, field by field.
func (s *SurfaceServiceImpl) fillConfig(cfg model.SurfaceConfig) model.SurfaceConfig {
	def := s.deps.Defaults
	if !cfg.Quality.IsValid() {
		cfg.Quality = def.Quality
		if !cfg.Quality.IsValid() {
			cfg.Quality = model.QualityHigh
		}
	}
	if cfg.AnimationSpeed <= 0 {
		cfg.AnimationSpeed = def.AnimationSpeed
		if cfg.AnimationSpeed <= 0 {
			cfg.AnimationSpeed = 1.0
		}
	}
	if cfg.NodeCount <= 0 {
		cfg.NodeCount = def.NodeCount
		if cfg.NodeCount <= 0 {
			cfg.NodeCount = 60
		}
	}
	if cfg.ConnectionDistance <= 0 {
		cfg.ConnectionDistance = def.ConnectionDistance
		if cfg.ConnectionDistance <= 0 {
			cfg.ConnectionDistance = 0.15
		}
	}
	return cfg
}

func (s *SurfaceServiceImpl) ListSurfaces() []inbound.SurfaceInfo {
	s.mu.RLock()
	surfaces := make([]*renderSurface, 0, len(s.surfaces))
	for _, surf := range s.surfaces {
		surfaces = append(surfaces, surf)
	}
	s.mu.RUnlock()

	out := make([]inbound.SurfaceInfo, 0, len(surfaces))
	for _, surf := range surfaces {
		out = append(out, surf.info())
	}
	return out
}

func (s *SurfaceServiceImpl) GetSurface(id string) (*inbound.SurfaceInfo, error) {
	surf, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	info := surf.info()
	return &info, nil
}

func (s *SurfaceServiceImpl) RemoveSurface(id string) error {
	s.mu.Lock()
	surf, ok := s.surfaces[id]
	if ok {
		delete(s.surfaces, id)
	}
	s.mu.Unlock()

	if !ok {
		return model.ErrSurfaceNotFound
	}

	surf.close()
	s.logger.Info("surface removed", "surface", surf.name, "id", id)
	return nil
}

func (s *SurfaceServiceImpl) Monitor(id string) (inbound.MonitorService, error) {
	surf, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return surf.monitor, nil
}

func (s *SurfaceServiceImpl) Ledger(id string) (inbound.LedgerService, error) {
	surf, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return surf.ledger, nil
}

func (s *SurfaceServiceImpl) Optimize(id string, caps *model.DeviceCapabilities, apply bool) (*inbound.ConfigRecommendation, error) {
	surf, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	surf.mu.Lock()
	defer surf.mu.Unlock()

	deviceCaps := surf.caps
	if caps != nil {
		deviceCaps = *caps
	}

	rec := surf.optimizer.OptimalConfiguration(surf.cfg, deviceCaps)
	if apply && rec.Adjusted {
		surf.applyConfigLocked(rec.Config)
		surf.monitor.RecordEvent(model.EventQualityAdjusted, "info", surf.name, map[string]any{
			"quality":   string(rec.Config.Quality),
			"nodeCount": rec.Config.NodeCount,
			"reasoning": rec.Reasoning,
		})
	}
	return &rec, nil
}

func (s *SurfaceServiceImpl) SimulateContextLoss(id string, restoreAfter time.Duration) error {
	surf, err := s.lookup(id)
	if err != nil {
		return err
	}

	injector, ok := surf.gfx.(outbound.ContextLossInjector)
	if !ok {
		return errors.New("graphics context does not support simulated loss")
	}

	s.logger.Warn("simulating context loss",
		"surface", surf.name,
		"restoreAfter", restoreAfter.String())

	injector.LoseContext()
	if restoreAfter > 0 {
		time.AfterFunc(restoreAfter, injector.RestoreContext)
	}
	return nil
}

func (s *SurfaceServiceImpl) Cleanup() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	surfaces := make([]*renderSurface, 0, len(s.surfaces))
	for _, surf := range s.surfaces {
		surfaces = append(surfaces, surf)
	}
	s.surfaces = make(map[string]*renderSurface)
	s.mu.Unlock()

	for _, surf := range surfaces {
		surf.close()
	}
	s.logger.Info("surface service shut down", "closedSurfaces", len(surfaces))
}

func (s *SurfaceServiceImpl) lookup(id string) (*renderSurface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	surf, ok := s.surfaces[id]
	if !ok {
		return nil, model.ErrSurfaceNotFound
	}
	return surf, nil
}
