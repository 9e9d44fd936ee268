package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ajkula/GoGRT/config"
	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/gorilla/mux"
)

// Handler serves the telemetry dashboard API.
type Handler struct {
	surfaces  inbound.SurfaceService
	auth      inbound.AuthService
	logger    model.Logger
	config    *config.Config
	startedAt time.Time
}

func NewHandler(
	surfaces inbound.SurfaceService,
	auth inbound.AuthService,
	logger model.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		surfaces:  surfaces,
		auth:      auth,
		logger:    logger,
		config:    cfg,
		startedAt: time.Now(),
	}
}

// SetupRoutes registers the API routes.
func (h *Handler) SetupRoutes(router *mux.Router) {
	// Authentication
	authHandler := NewAuthHandler(h.auth, h.logger)
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Surface lifecycle
	router.HandleFunc("/api/surfaces", h.listSurfaces).Methods("GET")
	router.HandleFunc("/api/surfaces", h.createSurface).Methods("POST")
	router.HandleFunc("/api/surfaces/{surface}", h.getSurface).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}", h.deleteSurface).Methods("DELETE")

	// Telemetry
	router.HandleFunc("/api/surfaces/{surface}/metrics", h.getSurfaceMetrics).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}/modules/{module}", h.getModuleMetrics).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}/resources", h.getResourceMetrics).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}/pressure", h.getMemoryPressure).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}/leaks", h.getLeakReport).Methods("GET")
	router.HandleFunc("/api/surfaces/{surface}/events", h.getEvents).Methods("GET")

	// Tuning and diagnostics
	router.HandleFunc("/api/surfaces/{surface}/optimize", h.optimizeSurface).Methods("POST")
	router.HandleFunc("/api/surfaces/{surface}/context-loss", h.simulateContextLoss).Methods("POST")

	// Settings
	router.HandleFunc("/api/settings", h.getSettings).Methods("GET")
	router.HandleFunc("/api/settings", h.updateSettings).Methods("PUT")
	router.HandleFunc("/api/settings/reset", h.resetSettings).Methods("POST")

	// Health
	router.HandleFunc("/health", h.healthCheck).Methods("GET")
}

// healthCheck reports liveness plus basic service counters.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"surfaces":      len(h.surfaces.ListSurfaces()),
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// writeJSON is the common success path for API responses.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError emits the API error envelope.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
