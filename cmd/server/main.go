package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoGRT/adapter/inbound/rest"
	"github.com/ajkula/GoGRT/adapter/inbound/websocket"
	"github.com/ajkula/GoGRT/adapter/outbound/crypto"
	"github.com/ajkula/GoGRT/adapter/outbound/filewatcher"
	"github.com/ajkula/GoGRT/adapter/outbound/graphics"
	"github.com/ajkula/GoGRT/adapter/outbound/logging"
	"github.com/ajkula/GoGRT/adapter/outbound/machineid"
	"github.com/ajkula/GoGRT/adapter/outbound/probe"
	"github.com/ajkula/GoGRT/config"
	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/outbound"
	"github.com/ajkula/GoGRT/domain/service"
)

const version = "1.0.0"

func main() {

	// Dedicated pprof server on port 6060
	go func() {
		log.Println("Starting pprof server on :6060")
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()

	// Handle command-line arguments
	var configPath string
	var generateConfig bool
	var hashSecret string
	var showVersion bool

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&generateConfig, "generate-config", false, "Generate default configuration file")
	flag.StringVar(&hashSecret, "hash-secret", "", "Hash a dashboard secret for the config file and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	// Display version information
	if showVersion {
		fmt.Printf("GoGRT Version %s\n", version)
		os.Exit(0)
	}

	// Hash a dashboard secret for security.dashboardSecretHash
	if hashSecret != "" {
		hasher := crypto.NewArgon2SecretHasher()
		hash, err := hasher.HashSecret(hashSecret)
		if err != nil {
			fmt.Printf("Error hashing secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dashboardSecretHash: %s\n", hash)
		os.Exit(0)
	}

	// Generate a default configuration file
	if generateConfig {
		cfg := config.DefaultConfig()
		err := config.SaveConfig(cfg, configPath)
		if err != nil {
			fmt.Printf("Error generating config file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration file generated at: %s\n", configPath)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	logger := logging.NewSlogAdapter(cfg)
	defer logger.Shutdown()

	logger.Info("Starting GoGRT...", "version", version)

	// Create a cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outgoing adapters
	hasher := crypto.NewArgon2SecretHasher()
	machineID := machineid.NewHardwareMachineID()
	heapProbe := probe.NewRuntimeHeapProbe(cfg.Monitor.MemoryLimitMB)
	deviceProbe := probe.NewSystemProbe(machineID, logger, 0)

	// Domain services
	surfaceService := service.NewSurfaceService(ctx, logger, service.SurfaceDeps{
		NewContext: func() outbound.GraphicsContext {
			return graphics.NewSimulatedContext(graphics.SimOptions{
				Capabilities: contextCapabilities(cfg),
			})
		},
		Probe:           deviceProbe,
		Heap:            heapProbe,
		Monitor:         monitorOptions(cfg),
		Optimizer:       optimizerOptions(cfg),
		Thresholds:      pressureThresholds(cfg),
		Defaults:        cfg.Surface.Defaults,
		FrameInterval:   time.Duration(cfg.Surface.FrameIntervalMs) * time.Millisecond,
		AdaptEvery:      uint64(cfg.Surface.AdaptEvery),
		AdaptiveQuality: cfg.Surface.AdaptiveQuality,
	})
	defer surfaceService.Cleanup()

	authService := service.NewAuthService(
		hasher,
		logger,
		cfg.Security.DashboardSecretHash,
		cfg.HTTP.JWT.Secret,
		cfg.HTTP.JWT.ExpirationMinutes,
		cfg.Security.EnableAuthentication,
	)

	// A demo surface gives the dashboard something to show immediately
	if cfg.Surface.DemoSurface {
		if _, err := surfaceService.CreateSurface(ctx, "demo", model.SurfaceConfig{}); err != nil {
			logger.Error("Failed to create demo surface", "error", err)
		}
	}

	// Reload the log level when the config file changes on disk
	watcher, err := filewatcher.NewFSWatcher(0)
	if err != nil {
		logger.Warn("Config watcher unavailable", "error", err)
	} else {
		if err := watcher.Watch(ctx, configPath); err != nil {
			logger.Warn("Cannot watch config file", "path", configPath, "error", err)
		} else {
			go watchConfigFile(ctx, watcher, configPath, cfg, logger)
			defer watcher.Stop()
		}
	}

	// Create HTTP router
	router := mux.NewRouter()

	// Configure the incoming adapters
	if cfg.HTTP.Enabled {
		if cfg.HTTP.TLS {
			if err := config.EnsureTLSCertificates(cfg, hasher, logger); err != nil {
				logger.Error("Failed to prepare TLS certificates", "error", err)
				os.Exit(1)
			}
		}

		rest.SetGlobalConfigPath(configPath)

		authMiddleware := rest.NewAuthMiddleware(authService, logger)
		router.Use(authMiddleware.Middleware)
		if cfg.HTTP.CORS.Enabled {
			router.Use(corsMiddleware(cfg))
		}

		// REST adapter
		restHandler := rest.NewHandler(surfaceService, authService, logger, cfg)
		restHandler.SetupRoutes(router)

		// WebSocket adapter
		wsHandler := websocket.NewHandler(surfaceService, logger, ctx)
		router.HandleFunc(
			"/ws/surfaces/{surface}",
			func(w http.ResponseWriter, r *http.Request) {
				vars := mux.Vars(r)
				wsHandler.HandleConnection(w, r, vars["surface"])
			},
		)
		defer wsHandler.Cleanup()

		router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
			pathTemplate, err := route.GetPathTemplate()
			if err != nil {
				return nil
			}
			methods, err := route.GetMethods()
			if err != nil {
				methods = []string{"ANY"}
			}
			logger.Debug("Route registered", "path", pathTemplate, "methods", methods)
			return nil
		})

		// start HTTP server
		httpAddr := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
		server := &http.Server{
			Addr:         httpAddr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", httpAddr, "tls", cfg.HTTP.TLS)
			var err error
			if cfg.HTTP.TLS {
				err = server.ListenAndServeTLS(cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "error", err)
				cancel()
			}
		}()

		// stop HTTP server before services go away
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown incomplete", "error", err)
			}
		}()
	}

	// Wait for signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("GoGRT started successfully")

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully...", "signal", sig.String())
	case <-ctx.Done():
	}

	// Cancel the context to stop all goroutines
	cancel()

	logger.Info("Server shutdown complete")
}

// watchConfigFile applies on-disk config edits that are safe at
// runtime. Everything else waits for the next restart.
func watchConfigFile(ctx context.Context, watcher outbound.FileWatcher, configPath string, cfg *config.Config, logger *logging.SlogAdapter) {
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		absConfig = configPath
	}
	currentLevel := cfg.General.LogLevel

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			// the watcher reports every file in the directory
			if event.FilePath != absConfig {
				continue
			}
			logger.Debug("Config file changed", "path", event.FilePath, "event", event.EventType)

			newCfg, err := config.LoadConfig(configPath)
			if err != nil {
				logger.Warn("Ignoring invalid config file edit", "error", err)
				continue
			}
			if newCfg.General.LogLevel != currentLevel {
				logger.UpdateLevel(newCfg.General.LogLevel)
				currentLevel = newCfg.General.LogLevel
			}
		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}

// corsMiddleware reflects the configured origins for dashboard access.
func corsMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	allowed := cfg.HTTP.CORS.AllowedOrigins

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func contextCapabilities(cfg *config.Config) model.ContextCapabilities {
	tier := model.TierAdvanced
	if strings.EqualFold(cfg.Graphics.Tier, string(model.TierBasic)) {
		tier = model.TierBasic
	}
	return model.ContextCapabilities{
		Tier:           tier,
		MaxTextureSize: cfg.Graphics.MaxTextureSize,
		MaxBufferBytes: int64(cfg.Graphics.MaxBufferMB) << 20,
	}
}

func monitorOptions(cfg *config.Config) service.MonitorOptions {
	return service.MonitorOptions{
		SampleSize:          cfg.Monitor.SampleSize,
		MemorySampleSize:    cfg.Monitor.MemorySampleSize,
		TargetFPS:           cfg.Monitor.TargetFPS,
		LowFPSWatermark:     cfg.Monitor.LowFPSWatermark,
		MemoryHighWatermark: cfg.Monitor.MemoryHighWatermark,
		EventJournalSize:    cfg.Monitor.EventJournalSize,
		EnableLeakDetection: cfg.Leak.Enabled,
		Leak: service.LeakPolicy{
			MinSamples:      cfg.Leak.MinSamples,
			MinRateMBPerMin: cfg.Leak.MinRateMBPerMin,
			MinConfidence:   cfg.Leak.MinConfidence,
		},
	}
}

func optimizerOptions(cfg *config.Config) service.OptimizerOptions {
	return service.OptimizerOptions{
		TargetFPS:           cfg.Monitor.TargetFPS,
		LowFPSWatermark:     cfg.Optimizer.LowFPSWatermark,
		CriticalFPS:         cfg.Optimizer.CriticalFPS,
		MemoryHighWatermark: cfg.Optimizer.MemoryHighWatermark,
		MinAnimationSpeed:   cfg.Optimizer.MinAnimationSpeed,
		MinWindow:           cfg.Optimizer.MinWindow,
		Budgets: service.NodeBudgets{
			Low:    cfg.Optimizer.NodeBudget.Low,
			Medium: cfg.Optimizer.NodeBudget.Medium,
			High:   cfg.Optimizer.NodeBudget.High,
		},
	}
}

func pressureThresholds(cfg *config.Config) service.PressureThresholds {
	return service.PressureThresholds{
		MaxTextures:    cfg.Ledger.MaxTextures,
		MaxBuffers:     cfg.Ledger.MaxBuffers,
		MaxPrograms:    cfg.Ledger.MaxPrograms,
		MaxEstimatedMB: cfg.Ledger.MaxEstimatedMB,
	}
}
