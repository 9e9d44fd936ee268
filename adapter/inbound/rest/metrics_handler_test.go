package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/stretchr/testify/assert"
)

// stubMonitor serves canned telemetry so handler tests stay free of
// timing concerns.
type stubMonitor struct {
	metrics    inbound.PerformanceMetrics
	modules    map[string]*inbound.ModuleMetrics
	leaks      inbound.LeakReport
	events     []model.TelemetryEvent
	eventLimit int
}

func (s *stubMonitor) StartMonitoring() {}

func (s *stubMonitor) StopMonitoring() {}

func (s *stubMonitor) RecordFrame() {}

func (s *stubMonitor) RecordRenderTime(moduleID string, durationMs float64) {}

func (s *stubMonitor) Metrics() inbound.PerformanceMetrics {
	return s.metrics
}

func (s *stubMonitor) ModuleMetrics(id string) *inbound.ModuleMetrics {
	return s.modules[id]
}

func (s *stubMonitor) CheckMemoryLeaks() inbound.LeakReport {
	return s.leaks
}

func (s *stubMonitor) RecordEvent(eventType, severity, resource string, data any) {}

func (s *stubMonitor) Events(limit int) []model.TelemetryEvent {
	s.eventLimit = limit
	return s.events
}

func (s *stubMonitor) Cleanup() {}

// stubLedger serves canned resource metrics; allocation methods are
// never reached through the HTTP surface.
type stubLedger struct {
	metrics  inbound.ResourceMetrics
	pressure inbound.MemoryPressureReport
}

func (s *stubLedger) CreateBuffer(label string) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) CreateTexture(label string) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) CreateFramebuffer(label string) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) CreateShader(stage model.ShaderStage) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) CreateProgram() (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) CompileShader(source string, stage model.ShaderStage) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) LinkProgram(vertex, fragment model.ResourceHandle) (model.ResourceHandle, error) {
	return model.ResourceHandle{}, nil
}

func (s *stubLedger) DeleteBuffer(h model.ResourceHandle) {}

func (s *stubLedger) DeleteTexture(h model.ResourceHandle) {}

func (s *stubLedger) DeleteFramebuffer(h model.ResourceHandle) {}

func (s *stubLedger) DeleteShader(h model.ResourceHandle) {}

func (s *stubLedger) DeleteProgram(h model.ResourceHandle) {}

func (s *stubLedger) WriteBuffer(h model.ResourceHandle, b []byte) error {
	return nil
}

func (s *stubLedger) IsResourceValid(h model.ResourceHandle) bool {
	return false
}

func (s *stubLedger) Metrics() inbound.ResourceMetrics {
	return s.metrics
}

func (s *stubLedger) MemoryPressure() inbound.MemoryPressureReport {
	return s.pressure
}

func (s *stubLedger) Cleanup() {}

func TestMetricsHandler_SurfaceMetrics(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	monitor := &stubMonitor{
		metrics: inbound.PerformanceMetrics{
			FPS:              58.2,
			ComputedFPS:      59.1,
			PerformanceScore: 87.5,
			SampleCount:      60,
			Timestamp:        time.Now(),
		},
	}
	surfaces.On("Monitor", "demo").Return(monitor, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var metrics inbound.PerformanceMetrics
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&metrics))
	assert.InDelta(t, 87.5, metrics.PerformanceScore, 0.001)
	assert.Equal(t, 60, metrics.SampleCount)
}

func TestMetricsHandler_SurfaceMetrics_NotFound(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	surfaces.On("Monitor", "ghost").Return(nil, model.ErrSurfaceNotFound)

	req := httptest.NewRequest("GET", "/api/surfaces/ghost/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsHandler_ModuleMetrics(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	monitor := &stubMonitor{
		modules: map[string]*inbound.ModuleMetrics{
			"particles": {
				ModuleID:          "particles",
				AverageRenderTime: 3.4,
				LastRenderTime:    2.9,
				MaxRenderTime:     8.1,
				SampleCount:       30,
			},
		},
	}
	surfaces.On("Monitor", "demo").Return(monitor, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/modules/particles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var metrics inbound.ModuleMetrics
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&metrics))
	assert.Equal(t, "particles", metrics.ModuleID)
	assert.Equal(t, 30, metrics.SampleCount)
}

func TestMetricsHandler_ModuleMetrics_Unknown(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	surfaces.On("Monitor", "demo").Return(&stubMonitor{}, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/modules/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no recorded samples")
}

func TestMetricsHandler_ResourceMetrics(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	ledger := &stubLedger{
		metrics: inbound.ResourceMetrics{
			Buffers:        3,
			Textures:       2,
			Programs:       1,
			Shaders:        2,
			TotalResources: 8,
			EstimatedMB:    8.46,
			Generation:     1,
		},
	}
	surfaces.On("Ledger", "demo").Return(ledger, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/resources", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var metrics inbound.ResourceMetrics
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&metrics))
	assert.Equal(t, 8, metrics.TotalResources)
	assert.InDelta(t, 8.46, metrics.EstimatedMB, 0.001)
}

func TestMetricsHandler_MemoryPressure(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	ledger := &stubLedger{
		pressure: inbound.MemoryPressureReport{
			UnderPressure:   true,
			Recommendations: []string{"Texture usage high (25), consider reducing texture quality"},
		},
	}
	surfaces.On("Ledger", "demo").Return(ledger, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/pressure", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report inbound.MemoryPressureReport
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.True(t, report.UnderPressure)
	assert.Len(t, report.Recommendations, 1)
}

func TestMetricsHandler_LeakReport(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	monitor := &stubMonitor{
		leaks: inbound.LeakReport{
			HasLeaks:    true,
			Confidence:  0.92,
			LeakRate:    2.5 * 1024 * 1024,
			SampleCount: 40,
		},
	}
	surfaces.On("Monitor", "demo").Return(monitor, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/leaks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report inbound.LeakReport
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.True(t, report.HasLeaks)
	assert.InDelta(t, 0.92, report.Confidence, 0.001)
}

func TestMetricsHandler_Events(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	monitor := &stubMonitor{
		events: []model.TelemetryEvent{
			{ID: "evt-2", Type: "warning", EventType: model.EventPressureWarning, Resource: "demo"},
			{ID: "evt-1", Type: "error", EventType: model.EventContextLost, Resource: "demo"},
		},
	}
	surfaces.On("Monitor", "demo").Return(monitor, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/events?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, monitor.eventLimit)

	var response struct {
		Events []model.TelemetryEvent `json:"events"`
		Count  int                    `json:"count"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "evt-2", response.Events[0].ID)
}

func TestMetricsHandler_Events_BadLimit(t *testing.T) {
	router, surfaces, _ := setupTestRouter()

	surfaces.On("Monitor", "demo").Return(&stubMonitor{}, nil)

	req := httptest.NewRequest("GET", "/api/surfaces/demo/events?limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
