package model

// GraphicsTier classifies the feature level a context exposes.
type GraphicsTier string

const (
	TierBasic    GraphicsTier = "basic"
	TierAdvanced GraphicsTier = "advanced"
)

// NetworkClass is a coarse reading of the host's connectivity,
// used only as an optimizer hint.
type NetworkClass string

const (
	NetworkSlow    NetworkClass = "slow"
	NetworkFast    NetworkClass = "fast"
	NetworkUnknown NetworkClass = "unknown"
)

// ContextCapabilities is the fixed capability report of one graphics
// context, read once at creation and never re-queried.
type ContextCapabilities struct {
	Tier           GraphicsTier `json:"tier"`
	MaxTextureSize int          `json:"maxTextureSize"`
	MaxBufferBytes int64        `json:"maxBufferBytes"`
}

// DeviceCapabilities is the immutable host profile produced by the
// capability probe. The optimizer treats it as ground truth; nothing
// re-probes after construction.
type DeviceCapabilities struct {
	HostID         string       `json:"hostId,omitempty"`
	GraphicsTier   GraphicsTier `json:"graphicsTier"`
	MaxTextureSize int          `json:"maxTextureSize"`
	DeviceMemoryMB int          `json:"deviceMemoryMB"`
	LogicalCPUs    int          `json:"logicalCPUs"`
	Mobile         bool         `json:"mobile"`
	LowEnd         bool         `json:"lowEnd"`
	Network        NetworkClass `json:"network"`
}
