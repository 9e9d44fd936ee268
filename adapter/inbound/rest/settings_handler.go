package rest

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/ajkula/GoGRT/config"
)

type SettingsResponse struct {
	Config   *config.PublicConfig `json:"config"`
	FilePath string               `json:"filePath"`
	Message  string               `json:"message,omitempty"`
}

type SettingsUpdateRequest struct {
	Config *config.PublicConfig `json:"config"`
}

var (
	globalConfigPath string
	configMutex      sync.RWMutex
)

// SetGlobalConfigPath records where settings updates are persisted.
func SetGlobalConfigPath(path string) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfigPath = path
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Getting current settings")

	response := SettingsResponse{
		Config:   h.config.ToPublic(),
		FilePath: h.getConfigFilePath(),
		Message:  "Settings retrieved successfully",
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Updating settings")

	var req SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode settings request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Config == nil {
		h.writeError(w, http.StatusBadRequest, "Config is required")
		return
	}

	newConfig := &config.Config{}
	*newConfig = *h.config
	newConfig.MergeFromPublic(req.Config)

	if err := h.validateConfigUpdate(newConfig); err != nil {
		h.logger.Error("Configuration validation failed", "error", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid configuration: %v", err))
		return
	}

	restartNeeded := h.requiresRestart(newConfig)

	configPath := h.getConfigFilePath()
	if err := config.SaveConfig(newConfig, configPath); err != nil {
		h.logger.Error("Failed to save configuration", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}

	if err := h.updateRuntimeConfig(newConfig); err != nil {
		h.logger.Warn("Configuration saved to file but runtime update failed", "error", err)
	}

	h.logger.Info("Settings updated successfully",
		"restart_needed", restartNeeded,
		"config_path", configPath)

	response := SettingsResponse{
		Config:   newConfig.ToPublic(),
		FilePath: configPath,
		Message:  "Settings updated successfully",
	}
	if restartNeeded {
		response.Message = "Settings updated successfully. Server restart required for some changes to take effect."
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) resetSettings(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Resetting settings to defaults")

	defaultConfig := config.DefaultConfig()

	configPath := h.getConfigFilePath()
	if err := config.SaveConfig(defaultConfig, configPath); err != nil {
		h.logger.Error("Failed to save default configuration", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to reset configuration")
		return
	}

	if err := h.updateRuntimeConfig(defaultConfig); err != nil {
		h.logger.Warn("Defaults saved to file but runtime update failed", "error", err)
	}

	h.logger.Info("Settings reset to defaults", "config_path", configPath)

	h.writeJSON(w, http.StatusOK, SettingsResponse{
		Config:   defaultConfig.ToPublic(),
		FilePath: configPath,
		Message:  "Settings reset to defaults. Server restart recommended.",
	})
}

// validateConfigUpdate layers live-service checks on top of the static
// configuration validation.
func (h *Handler) validateConfigUpdate(cfg *config.Config) error {
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	// Moving the API to a port something else already owns would only
	// surface at the next restart; catch it here instead.
	if cfg.HTTP.Enabled && cfg.HTTP.Port != h.config.HTTP.Port {
		if h.isPortInUse(cfg.HTTP.Port) {
			return fmt.Errorf("HTTP port %d is already in use", cfg.HTTP.Port)
		}
	}

	return nil
}

// requiresRestart reports whether the update touches anything bound at
// process start. Monitor, ledger, optimizer and surface settings bind
// at surface creation, so they only affect surfaces made afterwards.
func (h *Handler) requiresRestart(newConfig *config.Config) bool {
	return newConfig.HTTP.Port != h.config.HTTP.Port ||
		newConfig.HTTP.Address != h.config.HTTP.Address ||
		newConfig.HTTP.TLS != h.config.HTTP.TLS ||
		newConfig.Security.EnableAuthentication != h.config.Security.EnableAuthentication ||
		newConfig.Logging.Output != h.config.Logging.Output ||
		newConfig.Logging.Format != h.config.Logging.Format ||
		newConfig.Logging.FilePath != h.config.Logging.FilePath ||
		newConfig.Logging.ChannelSize != h.config.Logging.ChannelSize
}

// updateRuntimeConfig applies the changes that take effect without a
// restart and stores the new configuration in the handler. The level
// swap runs last so the logger's normalized value is what sticks.
func (h *Handler) updateRuntimeConfig(newConfig *config.Config) error {
	*h.config = *newConfig

	if err := h.updateLogLevel(newConfig.General.LogLevel); err != nil {
		return fmt.Errorf("failed to update log level: %v", err)
	}

	return nil
}

func (h *Handler) getConfigFilePath() string {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfigPath != "" {
		return globalConfigPath
	}

	return "./config.yaml"
}

func (h *Handler) isPortInUse(port int) bool {
	address := fmt.Sprintf(":%d", port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return true
	}

	listener.Close()
	return false
}

func (h *Handler) updateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	normalizedLevel := strings.ToLower(level)
	if !validLevels[normalizedLevel] {
		return fmt.Errorf("invalid log level: %s", level)
	}

	h.logger.UpdateLevel(normalizedLevel)
	h.logger.Info("Log level updated", "new_level", normalizedLevel)

	return nil
}
