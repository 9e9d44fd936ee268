package inbound

import (
	"time"

	"github.com/ajkula/GoGRT/domain/model"
)

// Recommendation is one threshold-derived tuning hint attached to a
// metrics snapshot.
type Recommendation struct {
	Type     string `json:"type"`     // "quality", "memory", "stability"
	Severity string `json:"severity"` // "info", "warning", "critical"
	Message  string `json:"message"`
}

// PerformanceMetrics is the monitor's aggregate snapshot. With no
// samples recorded yet, the zero-sample defaults apply: rates are 0,
// the performance score is 100 and no field is ever NaN or infinite.
type PerformanceMetrics struct {
	FPS               float64          `json:"fps"`               // from the last frame interval only
	FrameTime         float64          `json:"frameTime"`         // ms, last frame
	ComputedFPS       float64          `json:"computedFPS"`       // 1000 / average frame time
	AverageFrameTime  float64          `json:"averageFrameTime"`  // ms over the window
	FrameTimeVariance float64          `json:"frameTimeVariance"` // ms^2 over the window
	MemoryUsedBytes   uint64           `json:"memoryUsedBytes"`
	MemoryLimitBytes  uint64           `json:"memoryLimitBytes"`
	MemoryEfficiency  float64          `json:"memoryEfficiency"` // used / limit, 0 when limit unknown
	LastRenderTime    float64          `json:"lastRenderTime"`   // ms, most recent module record
	PerformanceScore  float64          `json:"performanceScore"` // 0..100
	SampleCount       int              `json:"sampleCount"`
	Timestamp         time.Time        `json:"timestamp"`
	Recommendations   []Recommendation `json:"recommendations,omitempty"`
}

// ModuleMetrics summarizes the render-time window of one named module.
type ModuleMetrics struct {
	ModuleID          string  `json:"moduleId"`
	AverageRenderTime float64 `json:"averageRenderTime"` // ms
	LastRenderTime    float64 `json:"lastRenderTime"`    // ms
	MaxRenderTime     float64 `json:"maxRenderTime"`     // ms over the window
	SampleCount       int     `json:"sampleCount"`
}

// LeakReport is the outcome of a memory-trend analysis. HasLeaks is
// only set when the growth is sustained, steep enough and supported by
// enough samples; noisy or short histories keep it false.
type LeakReport struct {
	HasLeaks        bool     `json:"hasLeaks"`
	Confidence      float64  `json:"confidence"` // 0..1
	LeakRate        float64  `json:"leakRate"`   // bytes per minute
	SampleCount     int      `json:"sampleCount"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// MonitorService aggregates frame pacing, per-module render cost, heap
// usage and a telemetry journal for one rendering surface.
type MonitorService interface {
	// StartMonitoring arms frame recording. Calling it while already
	// active is a no-op.
	StartMonitoring()

	// StopMonitoring disarms frame recording without clearing history.
	StopMonitoring()

	// RecordFrame marks a frame boundary; the elapsed time since the
	// previous boundary becomes one frame-time sample.
	RecordFrame()

	// RecordRenderTime appends one render duration for the named module.
	// Unknown modules get their window created on first use.
	RecordRenderTime(moduleID string, durationMs float64)

	Metrics() PerformanceMetrics

	// ModuleMetrics returns nil when the module never recorded a sample.
	ModuleMetrics(moduleID string) *ModuleMetrics

	CheckMemoryLeaks() LeakReport

	// RecordEvent appends an entry to the telemetry journal.
	RecordEvent(eventType, severity, resource string, data any)

	// Events returns journal entries, newest first, capped at limit
	// (limit <= 0 means all).
	Events(limit int) []model.TelemetryEvent

	// Cleanup stops monitoring and clears every window and the journal.
	// Idempotent.
	Cleanup()
}
