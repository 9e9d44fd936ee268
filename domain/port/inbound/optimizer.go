package inbound

import "github.com/ajkula/GoGRT/domain/model"

// ConfigRecommendation is the optimizer's output: an adjusted copy of
// the surface configuration plus one human-readable reason per change.
// The input configuration is never mutated.
type ConfigRecommendation struct {
	Config    model.SurfaceConfig `json:"config"`
	Reasoning []string            `json:"reasoning"`
	Adjusted  bool                `json:"adjusted"`
}

// OptimizerService derives rendering configuration from live metrics,
// ledger pressure and the device profile. OptimalConfiguration is a
// pure decision: it reads collaborators but changes nothing.
type OptimizerService interface {
	OptimalConfiguration(current model.SurfaceConfig, caps model.DeviceCapabilities) ConfigRecommendation
}
