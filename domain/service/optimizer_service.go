package service

import (
	"fmt"
	"math"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

// NodeBudgets caps the node count per quality tier.
type NodeBudgets struct {
	Low    int
	Medium int
	High   int
}

func (b NodeBudgets) forTier(tier model.QualityTier) int {
	switch tier {
	case model.QualityLow:
		return b.Low
	case model.QualityMedium:
		return b.Medium
	default:
		return b.High
	}
}

// OptimizerOptions tunes the configuration policy.
type OptimizerOptions struct {
	TargetFPS           float64
	LowFPSWatermark     float64 // below this a high tier steps down
	CriticalFPS         float64 // below this the tier is forced to low
	MemoryHighWatermark float64 // used/limit ratio that sheds nodes
	MinAnimationSpeed   float64
	MinWindow           int // frame samples required before trusting rates
	Budgets             NodeBudgets
}

func DefaultOptimizerOptions() OptimizerOptions {
	return OptimizerOptions{
		TargetFPS:           60,
		LowFPSWatermark:     45,
		CriticalFPS:         25,
		MemoryHighWatermark: 0.8,
		MinAnimationSpeed:   0.25,
		MinWindow:           10,
		Budgets:             NodeBudgets{Low: 30, Medium: 60, High: 100},
	}
}

func normalizeOptimizerOptions(opts OptimizerOptions) OptimizerOptions {
	def := DefaultOptimizerOptions()
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = def.TargetFPS
	}
	if opts.LowFPSWatermark <= 0 {
		opts.LowFPSWatermark = def.LowFPSWatermark
	}
	if opts.CriticalFPS <= 0 {
		opts.CriticalFPS = def.CriticalFPS
	}
	if opts.MemoryHighWatermark <= 0 || opts.MemoryHighWatermark > 1 {
		opts.MemoryHighWatermark = def.MemoryHighWatermark
	}
	if opts.MinAnimationSpeed <= 0 {
		opts.MinAnimationSpeed = def.MinAnimationSpeed
	}
	if opts.MinWindow <= 0 {
		opts.MinWindow = def.MinWindow
	}
	if opts.Budgets.Low <= 0 {
		opts.Budgets.Low = def.Budgets.Low
	}
	if opts.Budgets.Medium <= 0 {
		opts.Budgets.Medium = def.Budgets.Medium
	}
	if opts.Budgets.High <= 0 {
		opts.Budgets.High = def.Budgets.High
	}
	return opts
}

// OptimizerServiceImpl turns live telemetry, ledger pressure and the
// device profile into configuration recommendations. It only ever
// steps quality down; recovering a higher tier is a user decision.
type OptimizerServiceImpl struct {
	monitor inbound.MonitorService
	ledger  inbound.LedgerService
	logger  outbound.Logger
	opts    OptimizerOptions
}

func NewOptimizerService(monitor inbound.MonitorService, ledger inbound.LedgerService, logger outbound.Logger, opts OptimizerOptions) *OptimizerServiceImpl {
	return &OptimizerServiceImpl{
		monitor: monitor,
		ledger:  ledger,
		logger:  logger,
		opts:    normalizeOptimizerOptions(opts),
	}
}

// OptimalConfiguration evaluates the current configuration against the
// device profile, the frame history and the resource ledger. The input
// is never mutated; every change lands in the returned copy with one
// reason per change.
func (s *OptimizerServiceImpl) OptimalConfiguration(current model.SurfaceConfig, caps model.DeviceCapabilities) inbound.ConfigRecommendation {
	cfg := current
	var reasons []string

	cfg, reasons = s.repairConfig(cfg, reasons)
	baseline := cfg

	cfg, reasons = s.applyDeviceRules(cfg, caps, reasons)

	metrics := s.monitor.Metrics()
	if metrics.SampleCount >= s.opts.MinWindow {
		cfg, reasons = s.applyFrameRules(cfg, metrics, reasons)
		cfg, reasons = s.applyMemoryRules(cfg, metrics, reasons)
	}

	pressure := s.ledger.MemoryPressure()
	if pressure.UnderPressure {
		shed := shedNodes(cfg.NodeCount)
		if shed < cfg.NodeCount {
			reasons = append(reasons, fmt.Sprintf(
				"resource ledger under pressure, node count reduced from %d to %d",
				cfg.NodeCount, shed))
			cfg.NodeCount = shed
		}
	}

	if budget := s.opts.Budgets.forTier(cfg.Quality); cfg.NodeCount > budget {
		reasons = append(reasons, fmt.Sprintf(
			"node count %d exceeds the %s tier budget, clamped to %d",
			cfg.NodeCount, cfg.Quality, budget))
		cfg.NodeCount = budget
	}

	adjusted := cfg != baseline || len(reasons) > 0
	if !adjusted {
		reasons = []string{"performance healthy, configuration unchanged"}
	}

	s.logger.Debug("configuration evaluated",
		"quality", string(cfg.Quality),
		"nodeCount", cfg.NodeCount,
		"adjusted", adjusted)

	return inbound.ConfigRecommendation{
		Config:    cfg,
		Reasoning: reasons,
		Adjusted:  adjusted,
	}
}

// repairConfig replaces malformed fields with safe values so the rest
// of the policy never reasons over garbage.
func (s *OptimizerServiceImpl) repairConfig(cfg model.SurfaceConfig, reasons []string) (model.SurfaceConfig, []string) {
	if !cfg.Quality.IsValid() {
		reasons = append(reasons, fmt.Sprintf("unknown quality tier %q, reset to medium", string(cfg.Quality)))
		cfg.Quality = model.QualityMedium
	}
	if cfg.AnimationSpeed <= 0 || math.IsNaN(cfg.AnimationSpeed) || math.IsInf(cfg.AnimationSpeed, 0) {
		reasons = append(reasons, "animation speed invalid, reset to 1.0")
		cfg.AnimationSpeed = 1.0
	}
	if cfg.NodeCount <= 0 {
		budget := s.opts.Budgets.forTier(cfg.Quality)
		reasons = append(reasons, fmt.Sprintf("node count invalid, reset to %d", budget))
		cfg.NodeCount = budget
	}
	if cfg.ConnectionDistance <= 0 || math.IsNaN(cfg.ConnectionDistance) {
		reasons = append(reasons, "connection distance invalid, reset to 0.15")
		cfg.ConnectionDistance = 0.15
	}
	return cfg, reasons
}

func (s *OptimizerServiceImpl) applyDeviceRules(cfg model.SurfaceConfig, caps model.DeviceCapabilities, reasons []string) (model.SurfaceConfig, []string) {
	lowEnd := caps.LowEnd || (caps.Mobile && caps.DeviceMemoryMB > 0 && caps.DeviceMemoryMB <= 2048)

	if lowEnd {
		if cfg.Quality != model.QualityLow {
			reasons = append(reasons, "low-end device, quality forced to low")
			cfg.Quality = model.QualityLow
		}
		if cfg.AnimationSpeed > 0.6 {
			reasons = append(reasons, "low-end device, animation speed reduced to 0.6")
			cfg.AnimationSpeed = 0.6
		}
		return cfg, reasons
	}

	if caps.GraphicsTier == model.TierBasic && cfg.Quality == model.QualityHigh {
		reasons = append(reasons, "basic graphics tier cannot sustain high quality, stepping down to medium")
		cfg.Quality = model.QualityMedium
	}
	return cfg, reasons
}

func (s *OptimizerServiceImpl) applyFrameRules(cfg model.SurfaceConfig, m inbound.PerformanceMetrics, reasons []string) (model.SurfaceConfig, []string) {
	switch {
	case m.ComputedFPS > 0 && m.ComputedFPS < s.opts.CriticalFPS:
		if cfg.Quality != model.QualityLow {
			reasons = append(reasons, fmt.Sprintf(
				"sustained %.1f fps is critically below target %.0f, quality forced to low",
				m.ComputedFPS, s.opts.TargetFPS))
			cfg.Quality = model.QualityLow
		}
		slowed := math.Max(s.opts.MinAnimationSpeed, cfg.AnimationSpeed*0.75)
		if slowed < cfg.AnimationSpeed {
			reasons = append(reasons, fmt.Sprintf("animation speed eased to %.2f to relieve the frame budget", slowed))
			cfg.AnimationSpeed = slowed
		}

	case m.ComputedFPS > 0 && m.ComputedFPS < s.opts.LowFPSWatermark && cfg.Quality == model.QualityHigh:
		reasons = append(reasons, fmt.Sprintf(
			"average %.1f fps below %.0f, stepping quality down to medium",
			m.ComputedFPS, s.opts.LowFPSWatermark))
		cfg.Quality = model.QualityMedium
	}
	return cfg, reasons
}

func (s *OptimizerServiceImpl) applyMemoryRules(cfg model.SurfaceConfig, m inbound.PerformanceMetrics, reasons []string) (model.SurfaceConfig, []string) {
	if m.MemoryEfficiency > s.opts.MemoryHighWatermark {
		shed := shedNodes(cfg.NodeCount)
		if shed < cfg.NodeCount {
			reasons = append(reasons, fmt.Sprintf(
				"heap at %.0f%% of budget, node count reduced from %d to %d",
				m.MemoryEfficiency*100, cfg.NodeCount, shed))
			cfg.NodeCount = shed
		}
	}
	return cfg, reasons
}

// shedNodes drops a quarter of the field, never below a floor that
// keeps the animation recognizable.
func shedNodes(count int) int {
	shed := count * 3 / 4
	if shed < 8 {
		shed = 8
	}
	if shed > count {
		return count
	}
	return shed
}
