package inbound

import (
	"context"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
)

// SurfaceInfo summarizes one managed rendering surface.
type SurfaceInfo struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Config     model.SurfaceConfig `json:"config"`
	Running    bool                `json:"running"`
	FrameCount uint64              `json:"frameCount"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// SurfaceService manages the lifecycle of rendering surfaces. Each
// surface owns its own graphics context, ledger and monitor; nothing
// is shared between surfaces.
type SurfaceService interface {
	CreateSurface(ctx context.Context, name string, cfg model.SurfaceConfig) (*SurfaceInfo, error)
	ListSurfaces() []SurfaceInfo
	GetSurface(id string) (*SurfaceInfo, error)
	RemoveSurface(id string) error

	// Monitor and Ledger expose a surface's telemetry services to the
	// transport layer.
	Monitor(id string) (MonitorService, error)
	Ledger(id string) (LedgerService, error)

	// Optimize runs the surface's optimizer against its live metrics.
	// A nil caps uses the profile probed at surface creation; apply
	// makes the surface adopt the recommended configuration.
	Optimize(id string, caps *model.DeviceCapabilities, apply bool) (*ConfigRecommendation, error)

	// SimulateContextLoss drops the surface's graphics context and,
	// when restoreAfter is positive, restores it after that delay.
	SimulateContextLoss(id string, restoreAfter time.Duration) error

	// Cleanup tears down every surface. Idempotent.
	Cleanup()
}
