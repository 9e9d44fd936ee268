package service

import (
	"math"
	"testing"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyConfig() model.SurfaceConfig {
	return model.SurfaceConfig{
		Quality:            model.QualityHigh,
		AnimationSpeed:     1.0,
		NodeCount:          100,
		ConnectionDistance: 0.15,
	}
}

func highEndCaps() model.DeviceCapabilities {
	return model.DeviceCapabilities{
		GraphicsTier:   model.TierAdvanced,
		MaxTextureSize: 8192,
		DeviceMemoryMB: 8192,
		LogicalCPUs:    8,
		Network:        model.NetworkFast,
	}
}

// optimizerFixture wires a real monitor and ledger behind the policy
// so tests can shape the telemetry the optimizer reads.
type optimizerFixture struct {
	optimizer *OptimizerServiceImpl
	monitor   *MonitorServiceImpl
	ledger    *LedgerServiceImpl
	clock     *fakeClock
	heap      *fakeHeapProbe
}

func setupOptimizer(thresholds PressureThresholds) *optimizerFixture {
	heap := newFakeHeapProbe(512<<20, 64<<20)
	clock := newFakeClock()

	monitor := NewMonitorService(&mockLogger{}, heap, DefaultMonitorOptions())
	monitor.now = clock.now

	ledger := NewLedgerService(newFakeGraphics(), &mockLogger{}, thresholds)
	optimizer := NewOptimizerService(monitor, ledger, &mockLogger{}, DefaultOptimizerOptions())

	return &optimizerFixture{
		optimizer: optimizer,
		monitor:   monitor,
		ledger:    ledger,
		clock:     clock,
		heap:      heap,
	}
}

func (f *optimizerFixture) runFrames(count int, cadence time.Duration) {
	f.monitor.StartMonitoring()
	for i := 0; i < count; i++ {
		f.clock.advance(cadence)
		f.monitor.RecordFrame()
	}
}

func TestOptimizerService_HealthyStaysUntouched(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())
	f.runFrames(30, 16*time.Millisecond)

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), highEndCaps())

	assert.False(t, rec.Adjusted)
	assert.Equal(t, healthyConfig(), rec.Config)
	require.Len(t, rec.Reasoning, 1)
	assert.Contains(t, rec.Reasoning[0], "unchanged")
}

func TestOptimizerService_LowEndDeviceForcesLow(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())

	caps := highEndCaps()
	caps.LowEnd = true

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), caps)

	assert.True(t, rec.Adjusted)
	assert.Equal(t, model.QualityLow, rec.Config.Quality)
	assert.Less(t, rec.Config.AnimationSpeed, 1.0)
	assert.NotEmpty(t, rec.Reasoning)
	// the low tier budget caps the node field too
	assert.LessOrEqual(t, rec.Config.NodeCount, 30)
}

func TestOptimizerService_MobileWithSmallMemoryCountsAsLowEnd(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())

	caps := highEndCaps()
	caps.Mobile = true
	caps.DeviceMemoryMB = 2048

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), caps)
	assert.Equal(t, model.QualityLow, rec.Config.Quality)
}

func TestOptimizerService_BasicTierStepsDownFromHigh(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())

	caps := highEndCaps()
	caps.GraphicsTier = model.TierBasic

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), caps)

	assert.True(t, rec.Adjusted)
	assert.Equal(t, model.QualityMedium, rec.Config.Quality)

	// medium input is already within what the tier can do
	cfg := healthyConfig()
	cfg.Quality = model.QualityMedium
	cfg.NodeCount = 40
	rec = f.optimizer.OptimalConfiguration(cfg, caps)
	assert.Equal(t, model.QualityMedium, rec.Config.Quality)
	assert.False(t, rec.Adjusted)
}

func TestOptimizerService_CriticalFPSForcesLow(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())
	f.runFrames(20, 100*time.Millisecond) // 10 fps

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), highEndCaps())

	assert.True(t, rec.Adjusted)
	assert.Equal(t, model.QualityLow, rec.Config.Quality)
	assert.InDelta(t, 0.75, rec.Config.AnimationSpeed, 0.001)
	assert.NotEmpty(t, rec.Reasoning)
}

func TestOptimizerService_LowFPSStepsHighToMedium(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())
	f.runFrames(20, 30*time.Millisecond) // ~33 fps

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), highEndCaps())
	assert.Equal(t, model.QualityMedium, rec.Config.Quality)

	// a medium surface at the same rate is left alone
	cfg := healthyConfig()
	cfg.Quality = model.QualityMedium
	cfg.NodeCount = 40
	rec = f.optimizer.OptimalConfiguration(cfg, highEndCaps())
	assert.Equal(t, model.QualityMedium, rec.Config.Quality)
	assert.False(t, rec.Adjusted)
}

func TestOptimizerService_ShortHistoryIsNotTrusted(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())
	f.runFrames(5, 200*time.Millisecond) // terrible, but only 4 samples

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), highEndCaps())
	assert.Equal(t, model.QualityHigh, rec.Config.Quality)
	assert.False(t, rec.Adjusted)
}

func TestOptimizerService_HighHeapShedsNodes(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())
	f.heap.set(460 << 20) // ~90% of the 512MB budget
	f.runFrames(30, 16*time.Millisecond)

	rec := f.optimizer.OptimalConfiguration(healthyConfig(), highEndCaps())

	assert.True(t, rec.Adjusted)
	assert.Equal(t, 75, rec.Config.NodeCount)
	assert.Equal(t, model.QualityHigh, rec.Config.Quality)
}

func TestOptimizerService_LedgerPressureShedsNodes(t *testing.T) {
	f := setupOptimizer(PressureThresholds{MaxTextures: 1, MaxBuffers: 50, MaxPrograms: 10, MaxEstimatedMB: 500})
	for i := 0; i < 2; i++ {
		_, err := f.ledger.CreateTexture("layer")
		require.NoError(t, err)
	}

	cfg := healthyConfig()
	cfg.Quality = model.QualityMedium
	cfg.NodeCount = 60

	rec := f.optimizer.OptimalConfiguration(cfg, highEndCaps())

	assert.True(t, rec.Adjusted)
	assert.Equal(t, 45, rec.Config.NodeCount)
}

func TestOptimizerService_NodeBudgetClamp(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())

	cfg := healthyConfig()
	cfg.NodeCount = 500

	rec := f.optimizer.OptimalConfiguration(cfg, highEndCaps())

	assert.True(t, rec.Adjusted)
	assert.Equal(t, 100, rec.Config.NodeCount)
	require.NotEmpty(t, rec.Reasoning)
	assert.Contains(t, rec.Reasoning[0], "budget")
}

func TestOptimizerService_RepairsMalformedConfig(t *testing.T) {
	f := setupOptimizer(DefaultPressureThresholds())

	cfg := model.SurfaceConfig{
		Quality:        model.QualityTier("ultra"),
		AnimationSpeed: math.NaN(),
		NodeCount:      -3,
	}

	rec := f.optimizer.OptimalConfiguration(cfg, highEndCaps())

	assert.True(t, rec.Adjusted)
	assert.Equal(t, model.QualityMedium, rec.Config.Quality)
	assert.Equal(t, 1.0, rec.Config.AnimationSpeed)
	assert.Equal(t, 60, rec.Config.NodeCount)
	assert.Greater(t, rec.Config.ConnectionDistance, 0.0)
	assert.Len(t, rec.Reasoning, 4)
}
