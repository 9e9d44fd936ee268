package model

// QualityTier is the rendering quality level of a surface.
type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
)

// IsValid reports whether the tier is one of the three known levels.
func (q QualityTier) IsValid() bool {
	return q == QualityLow || q == QualityMedium || q == QualityHigh
}

// SurfaceConfig holds the adjustable rendering parameters of one surface.
// The optimizer emits adjusted copies; the surface applies them between
// frames so a frame never sees a half-applied configuration.
type SurfaceConfig struct {
	Quality            QualityTier `json:"quality" yaml:"quality"`
	AnimationSpeed     float64     `json:"animationSpeed" yaml:"animationSpeed"`
	NodeCount          int         `json:"nodeCount" yaml:"nodeCount"`
	ConnectionDistance float64     `json:"connectionDistance" yaml:"connectionDistance"`
}
