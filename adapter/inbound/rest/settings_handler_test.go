package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajkula/GoGRT/config"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSettingsHandler(t *testing.T) (*mux.Router, *config.Config, *MockAuthLogger) {
	t.Helper()

	cfg := config.DefaultConfig()
	logger := &MockAuthLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Return()
	logger.On("Info", mock.Anything, mock.Anything).Return()
	logger.On("Warn", mock.Anything, mock.Anything).Return()
	logger.On("Error", mock.Anything, mock.Anything).Return()
	logger.On("UpdateLevel", mock.Anything).Return()

	handler := NewHandler(&MockSurfaceService{}, &MockAuthService{}, logger, cfg)
	router := mux.NewRouter()
	handler.SetupRoutes(router)

	SetGlobalConfigPath(filepath.Join(t.TempDir(), "config.yaml"))

	return router, cfg, logger
}

func TestSettingsHandler_Get_HidesSecrets(t *testing.T) {
	router, cfg, _ := setupSettingsHandler(t)
	cfg.HTTP.JWT.Secret = "super-secret-signing-key"
	cfg.Security.DashboardSecretHash = "deadbeef$cafebabe"

	req := httptest.NewRequest("GET", "/api/settings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nodeBudget")
	assert.NotContains(t, w.Body.String(), "super-secret-signing-key")
	assert.NotContains(t, w.Body.String(), "cafebabe")
	assert.NotContains(t, w.Body.String(), "dashboardSecretHash")
}

func TestSettingsHandler_Update(t *testing.T) {
	router, cfg, logger := setupSettingsHandler(t)

	public := cfg.ToPublic()
	public.General.LogLevel = "debug"
	public.Monitor.TargetFPS = 30

	body, _ := json.Marshal(SettingsUpdateRequest{Config: public})

	req := httptest.NewRequest("PUT", "/api/settings", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response SettingsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Settings updated successfully", response.Message)
	assert.Equal(t, "debug", response.Config.General.LogLevel)

	// The running config adopted the change and the file was written.
	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.InDelta(t, 30, cfg.Monitor.TargetFPS, 0.001)
	_, err := os.Stat(response.FilePath)
	assert.NoError(t, err)

	logger.AssertCalled(t, "UpdateLevel", "debug")
}

func TestSettingsHandler_Update_RestartNotice(t *testing.T) {
	router, cfg, _ := setupSettingsHandler(t)

	public := cfg.ToPublic()
	public.HTTP.Port = 39217

	body, _ := json.Marshal(SettingsUpdateRequest{Config: public})

	req := httptest.NewRequest("PUT", "/api/settings", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "restart required")
}

func TestSettingsHandler_Update_InvalidTier(t *testing.T) {
	router, cfg, _ := setupSettingsHandler(t)

	public := cfg.ToPublic()
	public.Graphics.Tier = "ultra"

	body, _ := json.Marshal(SettingsUpdateRequest{Config: public})

	req := httptest.NewRequest("PUT", "/api/settings", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid configuration")

	// Rejected updates must not leak into the running config.
	assert.Equal(t, "advanced", cfg.Graphics.Tier)
}

func TestSettingsHandler_Update_MissingConfig(t *testing.T) {
	router, _, _ := setupSettingsHandler(t)

	req := httptest.NewRequest("PUT", "/api/settings", bytes.NewBuffer([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Config is required")
}

func TestSettingsHandler_Reset(t *testing.T) {
	router, cfg, _ := setupSettingsHandler(t)
	cfg.General.LogLevel = "debug"
	cfg.Monitor.TargetFPS = 30

	req := httptest.NewRequest("POST", "/api/settings/reset", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response SettingsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response.Message, "reset to defaults")

	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.InDelta(t, 60, cfg.Monitor.TargetFPS, 0.001)
	_, err := os.Stat(response.FilePath)
	assert.NoError(t, err)
}
