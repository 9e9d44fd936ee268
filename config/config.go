package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajkula/GoGRT/domain/model"
	"gopkg.in/yaml.v3"
)

// Config holds the global service configuration
type Config struct {
	// General configuration
	General struct {
		// LogLevel is the logging level
		LogLevel string `yaml:"logLevel"`

		// DataDir holds generated files such as TLS material
		DataDir string `yaml:"dataDir"`

		// Development enables development mode
		Development bool `yaml:"development"`
	} `yaml:"general"`

	// HTTP server configuration
	HTTP struct {
		// Enabled enables the HTTP server
		Enabled bool `yaml:"enabled"`

		// Address to bind the HTTP server
		Address string `yaml:"address"`

		// Port to bind the HTTP server
		Port int `yaml:"port"`

		// TLS enables TLS
		TLS bool `yaml:"tls"`

		// CertFile is the TLS certificate path
		CertFile string `yaml:"certFile"`

		// KeyFile is the TLS private key path
		KeyFile string `yaml:"keyFile"`

		// CORS configuration
		CORS struct {
			// Enabled enables CORS
			Enabled bool `yaml:"enabled"`

			// AllowedOrigins is the list of allowed origins
			AllowedOrigins []string `yaml:"allowedOrigins"`
		} `yaml:"cors"`

		// JWT configuration
		JWT struct {
			// Secret is the signing key for dashboard tokens
			Secret string `yaml:"secret"`

			// ExpirationMinutes is the token validity duration
			ExpirationMinutes int `yaml:"expirationMinutes"`
		} `yaml:"jwt"`
	} `yaml:"http"`

	// Security configuration
	Security struct {
		// EnableAuthentication gates the dashboard API behind JWT auth
		EnableAuthentication bool `yaml:"enableAuthentication"`

		// DashboardSecretHash is the argon2id hash of the dashboard secret,
		// produced by the -hash-secret flag
		DashboardSecretHash string `yaml:"dashboardSecretHash"`
	} `yaml:"security"`

	// Graphics device configuration for the simulated backend
	Graphics struct {
		// Tier is the advertised capability tier ("basic" or "advanced")
		Tier string `yaml:"tier"`

		// MaxTextureSize is the advertised texture edge limit
		MaxTextureSize int `yaml:"maxTextureSize"`

		// MaxBufferMB is the advertised per-buffer upload limit
		MaxBufferMB int `yaml:"maxBufferMB"`
	} `yaml:"graphics"`

	// Monitor configuration
	Monitor struct {
		// SampleSize is the frame and module window capacity
		SampleSize int `yaml:"sampleSize"`

		// MemorySampleSize is the heap trend window capacity
		MemorySampleSize int `yaml:"memorySampleSize"`

		// TargetFPS is the reference rate for the performance score
		TargetFPS float64 `yaml:"targetFps"`

		// LowFPSWatermark is the rate below which a quality drop is recommended
		LowFPSWatermark float64 `yaml:"lowFpsWatermark"`

		// MemoryHighWatermark is the used/limit ratio that triggers hints
		MemoryHighWatermark float64 `yaml:"memoryHighWatermark"`

		// EventJournalSize caps the telemetry event journal
		EventJournalSize int `yaml:"eventJournalSize"`

		// MemoryLimitMB is the heap budget reported to the monitor
		MemoryLimitMB int `yaml:"memoryLimitMB"`
	} `yaml:"monitor"`

	// Leak detection configuration
	Leak struct {
		// Enabled enables heap trend analysis
		Enabled bool `yaml:"enabled"`

		// MinSamples is the minimum heap window before a verdict
		MinSamples int `yaml:"minSamples"`

		// MinRateMBPerMin is the growth rate below which no leak is reported
		MinRateMBPerMin float64 `yaml:"minRateMBPerMin"`

		// MinConfidence is the trend fit quality required for a verdict
		MinConfidence float64 `yaml:"minConfidence"`
	} `yaml:"leak"`

	// Ledger pressure thresholds
	Ledger struct {
		// MaxTextures is the live texture count that raises pressure
		MaxTextures int `yaml:"maxTextures"`

		// MaxBuffers is the live buffer count that raises pressure
		MaxBuffers int `yaml:"maxBuffers"`

		// MaxPrograms is the live program count that raises pressure
		MaxPrograms int `yaml:"maxPrograms"`

		// MaxEstimatedMB is the estimated footprint that raises pressure
		MaxEstimatedMB float64 `yaml:"maxEstimatedMB"`
	} `yaml:"ledger"`

	// Optimizer policy
	Optimizer struct {
		// CriticalFPS forces the low tier when the measured rate drops under it
		CriticalFPS float64 `yaml:"criticalFps"`

		// LowFPSWatermark steps a high tier down when crossed
		LowFPSWatermark float64 `yaml:"lowFpsWatermark"`

		// MemoryHighWatermark is the used/limit ratio that sheds nodes
		MemoryHighWatermark float64 `yaml:"memoryHighWatermark"`

		// MinAnimationSpeed floors speed reductions
		MinAnimationSpeed float64 `yaml:"minAnimationSpeed"`

		// MinWindow is the frame sample count required before trusting rates
		MinWindow int `yaml:"minWindow"`

		// NodeBudget caps node counts per quality tier
		NodeBudget struct {
			Low    int `yaml:"low"`
			Medium int `yaml:"medium"`
			High   int `yaml:"high"`
		} `yaml:"nodeBudget"`
	} `yaml:"optimizer"`

	// Surface runtime configuration
	Surface struct {
		// FrameIntervalMs is the tick period of the render loop
		FrameIntervalMs int `yaml:"frameIntervalMs"`

		// AdaptEvery reviews telemetry every N frames (0 disables reviews)
		AdaptEvery int `yaml:"adaptEvery"`

		// AdaptiveQuality lets reviews apply optimizer output automatically
		AdaptiveQuality bool `yaml:"adaptiveQuality"`

		// DemoSurface creates a surface at startup so the dashboard has data
		DemoSurface bool `yaml:"demoSurface"`

		// Defaults seed surfaces created without explicit parameters
		Defaults model.SurfaceConfig `yaml:"defaults"`
	} `yaml:"surface"`

	Logging struct {
		Level       string `yaml:"level"` // "ERROR", "WARN", "INFO", "DEBUG"
		ChannelSize int    `yaml:"channelSize"`
		Format      string `yaml:"format"`
		Output      string `yaml:"output"`
		FilePath    string `yaml:"filePath"`
	} `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	c := &Config{}

	// General configuration
	c.General.LogLevel = "info"
	c.General.DataDir = "./data"
	c.General.Development = false

	// HTTP server configuration
	c.HTTP.Enabled = true
	c.HTTP.Address = "0.0.0.0"
	c.HTTP.Port = 8080
	c.HTTP.TLS = false
	c.HTTP.CertFile = ""
	c.HTTP.KeyFile = ""
	c.HTTP.CORS.Enabled = true
	c.HTTP.CORS.AllowedOrigins = []string{"*"}
	c.HTTP.JWT.Secret = "changeme"
	c.HTTP.JWT.ExpirationMinutes = 60

	// Security configuration
	c.Security.EnableAuthentication = false
	c.Security.DashboardSecretHash = ""

	// Simulated device defaults
	c.Graphics.Tier = "advanced"
	c.Graphics.MaxTextureSize = 8192
	c.Graphics.MaxBufferMB = 256

	// Monitor defaults
	c.Monitor.SampleSize = 60
	c.Monitor.MemorySampleSize = 60
	c.Monitor.TargetFPS = 60
	c.Monitor.LowFPSWatermark = 30
	c.Monitor.MemoryHighWatermark = 0.8
	c.Monitor.EventJournalSize = 50
	c.Monitor.MemoryLimitMB = 512

	// Leak detection defaults
	c.Leak.Enabled = true
	c.Leak.MinSamples = 10
	c.Leak.MinRateMBPerMin = 1.0
	c.Leak.MinConfidence = 0.75

	// Ledger pressure defaults
	c.Ledger.MaxTextures = 20
	c.Ledger.MaxBuffers = 50
	c.Ledger.MaxPrograms = 10
	c.Ledger.MaxEstimatedMB = 50

	// Optimizer defaults
	c.Optimizer.CriticalFPS = 25
	c.Optimizer.LowFPSWatermark = 45
	c.Optimizer.MemoryHighWatermark = 0.8
	c.Optimizer.MinAnimationSpeed = 0.25
	c.Optimizer.MinWindow = 10
	c.Optimizer.NodeBudget.Low = 30
	c.Optimizer.NodeBudget.Medium = 60
	c.Optimizer.NodeBudget.High = 100

	// Surface defaults
	c.Surface.FrameIntervalMs = 16
	c.Surface.AdaptEvery = 60
	c.Surface.AdaptiveQuality = true
	c.Surface.DemoSurface = true
	c.Surface.Defaults = model.SurfaceConfig{
		Quality:            model.QualityHigh,
		AnimationSpeed:     1.0,
		NodeCount:          80,
		ConnectionDistance: 0.15,
	}

	// Logging configuration defaults
	c.Logging.Level = "INFO"
	c.Logging.ChannelSize = 1000
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"
	c.Logging.FilePath = ""

	return c
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load the default configuration
	config := DefaultConfig()

	// Decode the YAML file
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	// Encode the configuration to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Create parent directory if necessary
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	// Check the log level
	logLevel := strings.ToLower(config.General.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		return fmt.Errorf("invalid log level: %s", config.General.LogLevel)
	}

	// Check the graphics tier
	tier := strings.ToLower(config.Graphics.Tier)
	if tier != "basic" && tier != "advanced" {
		return fmt.Errorf("invalid graphics tier: %s", config.Graphics.Tier)
	}

	// Check ports
	if config.HTTP.Enabled && (config.HTTP.Port < 1 || config.HTTP.Port > 65535) {
		return fmt.Errorf("invalid HTTP port: %d", config.HTTP.Port)
	}

	// Check the surface defaults
	if config.Surface.FrameIntervalMs < 1 {
		return fmt.Errorf("invalid frame interval: %dms", config.Surface.FrameIntervalMs)
	}
	if q := config.Surface.Defaults.Quality; q != "" && !q.IsValid() {
		return fmt.Errorf("invalid default quality tier: %s", q)
	}

	// Check the TLS configuration. Empty paths are fine: a self-signed
	// pair is generated under the data directory at startup.
	if config.HTTP.TLS {
		if (config.HTTP.CertFile == "") != (config.HTTP.KeyFile == "") {
			return fmt.Errorf("TLS certificate and key must be set together")
		}
	}

	return nil
}
