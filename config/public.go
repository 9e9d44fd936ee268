package config

import "github.com/ajkula/GoGRT/domain/model"

// PublicConfig is the settings API view of Config. Signing secrets and
// the dashboard secret hash never leave the process, and merging a
// public view back never touches them.
type PublicConfig struct {
	General struct {
		LogLevel    string `yaml:"logLevel" json:"logLevel"`
		DataDir     string `yaml:"dataDir" json:"dataDir"`
		Development bool   `yaml:"development" json:"development"`
	} `yaml:"general" json:"general"`

	HTTP struct {
		Enabled  bool   `yaml:"enabled" json:"enabled"`
		Address  string `yaml:"address" json:"address"`
		Port     int    `yaml:"port" json:"port"`
		TLS      bool   `yaml:"tls" json:"tls"`
		CertFile string `yaml:"certFile" json:"certFile"`
		KeyFile  string `yaml:"keyFile" json:"keyFile"`

		CORS struct {
			Enabled        bool     `yaml:"enabled" json:"enabled"`
			AllowedOrigins []string `yaml:"allowedOrigins" json:"allowedOrigins"`
		} `yaml:"cors" json:"cors"`

		JWT struct {
			ExpirationMinutes int `yaml:"expirationMinutes" json:"expirationMinutes"`
		} `yaml:"jwt" json:"jwt"`
	} `yaml:"http" json:"http"`

	Security struct {
		EnableAuthentication bool `yaml:"enableAuthentication" json:"enableAuthentication"`
	} `yaml:"security" json:"security"`

	Graphics struct {
		Tier           string `yaml:"tier" json:"tier"`
		MaxTextureSize int    `yaml:"maxTextureSize" json:"maxTextureSize"`
		MaxBufferMB    int    `yaml:"maxBufferMB" json:"maxBufferMB"`
	} `yaml:"graphics" json:"graphics"`

	Monitor struct {
		SampleSize          int     `yaml:"sampleSize" json:"sampleSize"`
		MemorySampleSize    int     `yaml:"memorySampleSize" json:"memorySampleSize"`
		TargetFPS           float64 `yaml:"targetFps" json:"targetFps"`
		LowFPSWatermark     float64 `yaml:"lowFpsWatermark" json:"lowFpsWatermark"`
		MemoryHighWatermark float64 `yaml:"memoryHighWatermark" json:"memoryHighWatermark"`
		EventJournalSize    int     `yaml:"eventJournalSize" json:"eventJournalSize"`
		MemoryLimitMB       int     `yaml:"memoryLimitMB" json:"memoryLimitMB"`
	} `yaml:"monitor" json:"monitor"`

	Leak struct {
		Enabled         bool    `yaml:"enabled" json:"enabled"`
		MinSamples      int     `yaml:"minSamples" json:"minSamples"`
		MinRateMBPerMin float64 `yaml:"minRateMBPerMin" json:"minRateMBPerMin"`
		MinConfidence   float64 `yaml:"minConfidence" json:"minConfidence"`
	} `yaml:"leak" json:"leak"`

	Ledger struct {
		MaxTextures    int     `yaml:"maxTextures" json:"maxTextures"`
		MaxBuffers     int     `yaml:"maxBuffers" json:"maxBuffers"`
		MaxPrograms    int     `yaml:"maxPrograms" json:"maxPrograms"`
		MaxEstimatedMB float64 `yaml:"maxEstimatedMB" json:"maxEstimatedMB"`
	} `yaml:"ledger" json:"ledger"`

	Optimizer struct {
		CriticalFPS         float64 `yaml:"criticalFps" json:"criticalFps"`
		LowFPSWatermark     float64 `yaml:"lowFpsWatermark" json:"lowFpsWatermark"`
		MemoryHighWatermark float64 `yaml:"memoryHighWatermark" json:"memoryHighWatermark"`
		MinAnimationSpeed   float64 `yaml:"minAnimationSpeed" json:"minAnimationSpeed"`
		MinWindow           int     `yaml:"minWindow" json:"minWindow"`

		NodeBudget struct {
			Low    int `yaml:"low" json:"low"`
			Medium int `yaml:"medium" json:"medium"`
			High   int `yaml:"high" json:"high"`
		} `yaml:"nodeBudget" json:"nodeBudget"`
	} `yaml:"optimizer" json:"optimizer"`

	Surface struct {
		FrameIntervalMs int                 `yaml:"frameIntervalMs" json:"frameIntervalMs"`
		AdaptEvery      int                 `yaml:"adaptEvery" json:"adaptEvery"`
		AdaptiveQuality bool                `yaml:"adaptiveQuality" json:"adaptiveQuality"`
		DemoSurface     bool                `yaml:"demoSurface" json:"demoSurface"`
		Defaults        model.SurfaceConfig `yaml:"defaults" json:"defaults"`
	} `yaml:"surface" json:"surface"`

	Logging struct {
		Level       string `yaml:"level" json:"level"`
		ChannelSize int    `yaml:"channelSize" json:"channelSize"`
		Format      string `yaml:"format" json:"format"`
		Output      string `yaml:"output" json:"output"`
		FilePath    string `yaml:"filePath" json:"filePath"`
	} `yaml:"logging" json:"logging"`
}

// ToPublic copies every externally editable field into a PublicConfig.
func (c *Config) ToPublic() *PublicConfig {
	p := &PublicConfig{}

	p.General.LogLevel = c.General.LogLevel
	p.General.DataDir = c.General.DataDir
	p.General.Development = c.General.Development

	p.HTTP.Enabled = c.HTTP.Enabled
	p.HTTP.Address = c.HTTP.Address
	p.HTTP.Port = c.HTTP.Port
	p.HTTP.TLS = c.HTTP.TLS
	p.HTTP.CertFile = c.HTTP.CertFile
	p.HTTP.KeyFile = c.HTTP.KeyFile
	p.HTTP.CORS.Enabled = c.HTTP.CORS.Enabled
	p.HTTP.CORS.AllowedOrigins = append([]string(nil), c.HTTP.CORS.AllowedOrigins...)
	p.HTTP.JWT.ExpirationMinutes = c.HTTP.JWT.ExpirationMinutes

	p.Security.EnableAuthentication = c.Security.EnableAuthentication

	p.Graphics.Tier = c.Graphics.Tier
	p.Graphics.MaxTextureSize = c.Graphics.MaxTextureSize
	p.Graphics.MaxBufferMB = c.Graphics.MaxBufferMB

	p.Monitor.SampleSize = c.Monitor.SampleSize
	p.Monitor.MemorySampleSize = c.Monitor.MemorySampleSize
	p.Monitor.TargetFPS = c.Monitor.TargetFPS
	p.Monitor.LowFPSWatermark = c.Monitor.LowFPSWatermark
	p.Monitor.MemoryHighWatermark = c.Monitor.MemoryHighWatermark
	p.Monitor.EventJournalSize = c.Monitor.EventJournalSize
	p.Monitor.MemoryLimitMB = c.Monitor.MemoryLimitMB

	p.Leak.Enabled = c.Leak.Enabled
	p.Leak.MinSamples = c.Leak.MinSamples
	p.Leak.MinRateMBPerMin = c.Leak.MinRateMBPerMin
	p.Leak.MinConfidence = c.Leak.MinConfidence

	p.Ledger.MaxTextures = c.Ledger.MaxTextures
	p.Ledger.MaxBuffers = c.Ledger.MaxBuffers
	p.Ledger.MaxPrograms = c.Ledger.MaxPrograms
	p.Ledger.MaxEstimatedMB = c.Ledger.MaxEstimatedMB

	p.Optimizer.CriticalFPS = c.Optimizer.CriticalFPS
	p.Optimizer.LowFPSWatermark = c.Optimizer.LowFPSWatermark
	p.Optimizer.MemoryHighWatermark = c.Optimizer.MemoryHighWatermark
	p.Optimizer.MinAnimationSpeed = c.Optimizer.MinAnimationSpeed
	p.Optimizer.MinWindow = c.Optimizer.MinWindow
	p.Optimizer.NodeBudget.Low = c.Optimizer.NodeBudget.Low
	p.Optimizer.NodeBudget.Medium = c.Optimizer.NodeBudget.Medium
	p.Optimizer.NodeBudget.High = c.Optimizer.NodeBudget.High

	p.Surface.FrameIntervalMs = c.Surface.FrameIntervalMs
	p.Surface.AdaptEvery = c.Surface.AdaptEvery
	p.Surface.AdaptiveQuality = c.Surface.AdaptiveQuality
	p.Surface.DemoSurface = c.Surface.DemoSurface
	p.Surface.Defaults = c.Surface.Defaults

	p.Logging.Level = c.Logging.Level
	p.Logging.ChannelSize = c.Logging.ChannelSize
	p.Logging.Format = c.Logging.Format
	p.Logging.Output = c.Logging.Output
	p.Logging.FilePath = c.Logging.FilePath

	return p
}

// MergeFromPublic writes the editable fields of p back into c. The JWT
// signing secret and the dashboard secret hash are kept as they are.
func (c *Config) MergeFromPublic(p *PublicConfig) {
	c.General.LogLevel = p.General.LogLevel
	c.General.DataDir = p.General.DataDir
	c.General.Development = p.General.Development

	c.HTTP.Enabled = p.HTTP.Enabled
	c.HTTP.Address = p.HTTP.Address
	c.HTTP.Port = p.HTTP.Port
	c.HTTP.TLS = p.HTTP.TLS
	c.HTTP.CertFile = p.HTTP.CertFile
	c.HTTP.KeyFile = p.HTTP.KeyFile
	c.HTTP.CORS.Enabled = p.HTTP.CORS.Enabled
	c.HTTP.CORS.AllowedOrigins = append([]string(nil), p.HTTP.CORS.AllowedOrigins...)
	c.HTTP.JWT.ExpirationMinutes = p.HTTP.JWT.ExpirationMinutes

	c.Security.EnableAuthentication = p.Security.EnableAuthentication

	c.Graphics.Tier = p.Graphics.Tier
	c.Graphics.MaxTextureSize = p.Graphics.MaxTextureSize
	c.Graphics.MaxBufferMB = p.Graphics.MaxBufferMB

	c.Monitor.SampleSize = p.Monitor.SampleSize
	c.Monitor.MemorySampleSize = p.Monitor.MemorySampleSize
	c.Monitor.TargetFPS = p.Monitor.TargetFPS
	c.Monitor.LowFPSWatermark = p.Monitor.LowFPSWatermark
	c.Monitor.MemoryHighWatermark = p.Monitor.MemoryHighWatermark
	c.Monitor.EventJournalSize = p.Monitor.EventJournalSize
	c.Monitor.MemoryLimitMB = p.Monitor.MemoryLimitMB

	c.Leak.Enabled = p.Leak.Enabled
	c.Leak.MinSamples = p.Leak.MinSamples
	c.Leak.MinRateMBPerMin = p.Leak.MinRateMBPerMin
	c.Leak.MinConfidence = p.Leak.MinConfidence

	c.Ledger.MaxTextures = p.Ledger.MaxTextures
	c.Ledger.MaxBuffers = p.Ledger.MaxBuffers
	c.Ledger.MaxPrograms = p.Ledger.MaxPrograms
	c.Ledger.MaxEstimatedMB = p.Ledger.MaxEstimatedMB

	c.Optimizer.CriticalFPS = p.Optimizer.CriticalFPS
	c.Optimizer.LowFPSWatermark = p.Optimizer.LowFPSWatermark
	c.Optimizer.MemoryHighWatermark = p.Optimizer.MemoryHighWatermark
	c.Optimizer.MinAnimationSpeed = p.Optimizer.MinAnimationSpeed
	c.Optimizer.MinWindow = p.Optimizer.MinWindow
	c.Optimizer.NodeBudget.Low = p.Optimizer.NodeBudget.Low
	c.Optimizer.NodeBudget.Medium = p.Optimizer.NodeBudget.Medium
	c.Optimizer.NodeBudget.High = p.Optimizer.NodeBudget.High

	c.Surface.FrameIntervalMs = p.Surface.FrameIntervalMs
	c.Surface.AdaptEvery = p.Surface.AdaptEvery
	c.Surface.AdaptiveQuality = p.Surface.AdaptiveQuality
	c.Surface.DemoSurface = p.Surface.DemoSurface
	c.Surface.Defaults = p.Surface.Defaults

	c.Logging.Level = p.Logging.Level
	c.Logging.ChannelSize = p.Logging.ChannelSize
	c.Logging.Format = p.Logging.Format
	c.Logging.Output = p.Logging.Output
	c.Logging.FilePath = p.Logging.FilePath
}
