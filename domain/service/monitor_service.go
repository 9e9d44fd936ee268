package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/ajkula/GoGRT/domain/port/outbound"
	"github.com/google/uuid"
)

// LeakPolicy tunes the memory-trend heuristic. The defaults are
// deliberately conservative: short or noisy histories never flag.
type LeakPolicy struct {
	MinSamples      int
	MinRateMBPerMin float64
	MinConfidence   float64
}

// MonitorOptions configures one monitor instance.
type MonitorOptions struct {
	SampleSize          int     // frame and module window capacity
	MemorySampleSize    int     // heap trend window capacity
	TargetFPS           float64 // reference rate for the score
	LowFPSWatermark     float64 // below this, recommend a quality drop
	MemoryHighWatermark float64 // used/limit ratio that triggers a hint
	EventJournalSize    int
	EnableLeakDetection bool
	Leak                LeakPolicy
}

// DefaultMonitorOptions returns the options used when a field is left
// at its zero value.
func DefaultMonitorOptions() MonitorOptions {
	return MonitorOptions{
		SampleSize:          60,
		MemorySampleSize:    60,
		TargetFPS:           60,
		LowFPSWatermark:     30,
		MemoryHighWatermark: 0.8,
		EventJournalSize:    50,
		EnableLeakDetection: true,
		Leak: LeakPolicy{
			MinSamples:      10,
			MinRateMBPerMin: 1.0,
			MinConfidence:   0.75,
		},
	}
}

func normalizeMonitorOptions(opts MonitorOptions) MonitorOptions {
	def := DefaultMonitorOptions()
	if opts.SampleSize <= 0 {
		opts.SampleSize = def.SampleSize
	}
	if opts.MemorySampleSize <= 0 {
		opts.MemorySampleSize = def.MemorySampleSize
	}
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = def.TargetFPS
	}
	if opts.LowFPSWatermark <= 0 {
		opts.LowFPSWatermark = def.LowFPSWatermark
	}
	if opts.MemoryHighWatermark <= 0 || opts.MemoryHighWatermark > 1 {
		opts.MemoryHighWatermark = def.MemoryHighWatermark
	}
	if opts.EventJournalSize <= 0 {
		opts.EventJournalSize = def.EventJournalSize
	}
	if opts.Leak.MinSamples <= 0 {
		opts.Leak.MinSamples = def.Leak.MinSamples
	}
	if opts.Leak.MinRateMBPerMin <= 0 {
		opts.Leak.MinRateMBPerMin = def.Leak.MinRateMBPerMin
	}
	if opts.Leak.MinConfidence <= 0 || opts.Leak.MinConfidence > 1 {
		opts.Leak.MinConfidence = def.Leak.MinConfidence
	}
	return opts
}

type frameSample struct {
	at      time.Time
	frameMs float64
}

type memorySample struct {
	at        time.Time
	usedBytes uint64
}

// MonitorServiceImpl aggregates the telemetry of one rendering surface:
// frame pacing, per-module render cost, heap trend and a bounded event
// journal. Sample windows are plain slices trimmed on append; order is
// insertion order, nothing auto-expires by age.
type MonitorServiceImpl struct {
	opts   MonitorOptions
	logger outbound.Logger
	heap   outbound.HeapProbe
	now    func() time.Time

	mu          sync.RWMutex
	active      bool
	lastFrameAt time.Time
	frames      []frameSample
	memory      []memorySample
	modules     map[string][]float64
	lastRender  float64
	events      []model.TelemetryEvent
}

func NewMonitorService(logger outbound.Logger, heap outbound.HeapProbe, opts MonitorOptions) *MonitorServiceImpl {
	return &MonitorServiceImpl{
		opts:    normalizeMonitorOptions(opts),
		logger:  logger,
		heap:    heap,
		now:     time.Now,
		modules: make(map[string][]float64),
	}
}

func (s *MonitorServiceImpl) StartMonitoring() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.logger.Warn("monitoring already active, start ignored")
		return
	}
	s.active = true
	// reset the baseline so the pause never shows up as one huge frame
	s.lastFrameAt = time.Time{}
	s.logger.Debug("performance monitoring started")
}

func (s *MonitorServiceImpl) StopMonitoring() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	s.logger.Debug("performance monitoring stopped")
}

// RecordFrame marks a frame boundary. The first call after a start
// only sets the baseline; every later call turns the elapsed interval
// into one frame-time sample and takes a heap reading.
func (s *MonitorServiceImpl) RecordFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	now := s.now()
	if !s.lastFrameAt.IsZero() {
		elapsed := now.Sub(s.lastFrameAt)
		if elapsed >= 0 {
			s.frames = append(s.frames, frameSample{at: now, frameMs: float64(elapsed) / float64(time.Millisecond)})
			if len(s.frames) > s.opts.SampleSize {
				s.frames = s.frames[len(s.frames)-s.opts.SampleSize:]
			}
		}
	}
	s.lastFrameAt = now

	if s.opts.EnableLeakDetection {
		reading := s.heap.HeapUsage()
		s.memory = append(s.memory, memorySample{at: now, usedBytes: reading.UsedBytes})
		if len(s.memory) > s.opts.MemorySampleSize {
			s.memory = s.memory[len(s.memory)-s.opts.MemorySampleSize:]
		}
	}
}

// RecordRenderTime appends one render duration for the named module,
// creating the module's window on first use. Negative durations are
// clock glitches and are dropped.
func (s *MonitorServiceImpl) RecordRenderTime(moduleID string, durationMs float64) {
	if moduleID == "" || durationMs < 0 || math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.modules[moduleID], durationMs)
	if len(window) > s.opts.SampleSize {
		window = window[len(window)-s.opts.SampleSize:]
	}
	s.modules[moduleID] = window
	s.lastRender = durationMs
}

func (s *MonitorServiceImpl) Metrics() inbound.PerformanceMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := inbound.PerformanceMetrics{
		Timestamp:        s.now(),
		PerformanceScore: 100,
	}

	reading := s.heap.HeapUsage()
	m.MemoryUsedBytes = reading.UsedBytes
	m.MemoryLimitBytes = reading.LimitBytes
	if reading.LimitBytes > 0 {
		m.MemoryEfficiency = float64(reading.UsedBytes) / float64(reading.LimitBytes)
	}

	if len(s.frames) == 0 {
		return m
	}

	last := s.frames[len(s.frames)-1]
	m.FrameTime = last.frameMs
	if last.frameMs > 0 {
		m.FPS = 1000.0 / last.frameMs
	}

	var sum float64
	for _, f := range s.frames {
		sum += f.frameMs
	}
	avg := sum / float64(len(s.frames))
	m.AverageFrameTime = avg
	if avg > 0 {
		m.ComputedFPS = 1000.0 / avg
	}

	var sq float64
	for _, f := range s.frames {
		d := f.frameMs - avg
		sq += d * d
	}
	m.FrameTimeVariance = sq / float64(len(s.frames))

	m.LastRenderTime = s.lastRender
	m.SampleCount = len(s.frames)
	m.PerformanceScore = performanceScore(m.ComputedFPS, s.opts.TargetFPS, m.MemoryEfficiency)
	m.Recommendations = s.recommendationsLocked(m)

	return m
}

// performanceScore blends frame rate health (70%) and memory headroom
// (30%) into a 0..100 value. Monotonic: worse frame times or higher
// memory pressure can only lower it.
func performanceScore(computedFPS, targetFPS, memoryEfficiency float64) float64 {
	fpsHealth := clamp01(computedFPS / targetFPS)
	memHealth := clamp01(1 - memoryEfficiency)
	score := math.Round(100 * (0.7*fpsHealth + 0.3*memHealth))
	return math.Min(100, math.Max(0, score))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func (s *MonitorServiceImpl) recommendationsLocked(m inbound.PerformanceMetrics) []inbound.Recommendation {
	var recs []inbound.Recommendation

	if m.ComputedFPS > 0 && m.ComputedFPS < s.opts.LowFPSWatermark {
		recs = append(recs, inbound.Recommendation{
			Type:     "quality",
			Severity: "warning",
			Message: fmt.Sprintf("average frame rate %.1f below %.0f, reduce quality tier or node count",
				m.ComputedFPS, s.opts.LowFPSWatermark),
		})
	}
	if m.MemoryEfficiency > s.opts.MemoryHighWatermark {
		recs = append(recs, inbound.Recommendation{
			Type:     "memory",
			Severity: "warning",
			Message: fmt.Sprintf("heap usage at %.0f%% of budget, release unused resources",
				m.MemoryEfficiency*100),
		})
	}
	if m.SampleCount >= 10 && m.AverageFrameTime > 0 {
		stddev := math.Sqrt(m.FrameTimeVariance)
		if stddev > m.AverageFrameTime*0.5 {
			recs = append(recs, inbound.Recommendation{
				Type:     "stability",
				Severity: "info",
				Message: fmt.Sprintf("frame time unstable (±%.1fms around %.1fms), animation pacing will stutter",
					stddev, m.AverageFrameTime),
			})
		}
	}
	return recs
}

func (s *MonitorServiceImpl) ModuleMetrics(moduleID string) *inbound.ModuleMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window, ok := s.modules[moduleID]
	if !ok || len(window) == 0 {
		return nil
	}

	var sum, max float64
	for _, v := range window {
		sum += v
		if v > max {
			max = v
		}
	}
	return &inbound.ModuleMetrics{
		ModuleID:          moduleID,
		AverageRenderTime: sum / float64(len(window)),
		LastRenderTime:    window[len(window)-1],
		MaxRenderTime:     max,
		SampleCount:       len(window),
	}
}

// CheckMemoryLeaks fits a least-squares line through the heap window
// and flags only when growth is steep, sustained and well correlated.
func (s *MonitorServiceImpl) CheckMemoryLeaks() inbound.LeakReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := inbound.LeakReport{SampleCount: len(s.memory)}
	if !s.opts.EnableLeakDetection || len(s.memory) < s.opts.Leak.MinSamples {
		return report
	}

	slope, r2, ok := heapTrend(s.memory)
	if !ok {
		return report
	}

	report.LeakRate = slope * 60 // bytes/sec -> bytes/min
	if slope > 0 {
		report.Confidence = r2
	}

	minRate := s.opts.Leak.MinRateMBPerMin * 1024 * 1024
	if slope > 0 && report.LeakRate >= minRate && r2 >= s.opts.Leak.MinConfidence {
		report.HasLeaks = true
		window := s.memory[len(s.memory)-1].at.Sub(s.memory[0].at)
		report.Recommendations = []string{
			fmt.Sprintf("heap grew %.2fMB/min over the last %s, look for unreleased buffers or textures",
				report.LeakRate/(1024*1024), window.Round(time.Second)),
			"check the resource ledger for climbing counts and run a pressure report",
		}
		s.logger.Warn("memory leak suspected",
			"ratePerMin", fmt.Sprintf("%.2fMB", report.LeakRate/(1024*1024)),
			"confidence", fmt.Sprintf("%.2f", r2),
			"samples", report.SampleCount)
	}
	return report
}

// heapTrend returns the least-squares slope in bytes per second and
// the fit's r². ok is false when the window has no time spread.
func heapTrend(samples []memorySample) (slope, r2 float64, ok bool) {
	n := float64(len(samples))
	if len(samples) < 2 {
		return 0, 0, false
	}

	t0 := samples[0].at
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for _, sm := range samples {
		x := sm.at.Sub(t0).Seconds()
		y := float64(sm.usedBytes)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	denomX := n*sumXX - sumX*sumX
	if denomX == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denomX

	denomY := n*sumYY - sumY*sumY
	if denomY == 0 {
		// perfectly flat usage: trend is zero, fit is exact
		return slope, 1, true
	}
	r := (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	return slope, r * r, true
}

// RecordEvent appends one journal entry. Pressure warnings replace the
// previous entry for the same resource so a sustained condition does
// not flood the journal.
func (s *MonitorServiceImpl) RecordEvent(eventType, severity, resource string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if eventType == model.EventPressureWarning {
		for i, evt := range s.events {
			if evt.EventType == eventType && evt.Resource == resource {
				s.events[i].ID = uuid.NewString()
				s.events[i].Type = severity
				s.events[i].Data = data
				s.events[i].Timestamp = now
				s.events[i].UnixTime = now.Unix()
				return
			}
		}
	}

	s.events = append(s.events, model.TelemetryEvent{
		ID:        uuid.NewString(),
		Type:      severity,
		EventType: eventType,
		Resource:  resource,
		Data:      data,
		Timestamp: now,
		UnixTime:  now.Unix(),
	})
	if len(s.events) > s.opts.EventJournalSize {
		s.events = s.events[len(s.events)-s.opts.EventJournalSize:]
	}
}

func (s *MonitorServiceImpl) Events(limit int) []model.TelemetryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TelemetryEvent, len(s.events))
	copy(out, s.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Cleanup stops monitoring and drops every window and the journal.
// The next Metrics call is back to the zero-sample defaults.
func (s *MonitorServiceImpl) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.lastFrameAt = time.Time{}
	s.frames = nil
	s.memory = nil
	s.modules = make(map[string][]float64)
	s.lastRender = 0
	s.events = nil
}
