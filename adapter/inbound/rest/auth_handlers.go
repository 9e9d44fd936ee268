package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
)

// AuthHandler exchanges the dashboard secret for a signed token.
type AuthHandler struct {
	authService inbound.AuthService
	logger      model.Logger
}

func NewAuthHandler(authService inbound.AuthService, logger model.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	token, expiresAt, err := h.authService.Login(req.Secret)
	if err != nil {
		h.logger.Warn("Dashboard login failed", "error", err)
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.logger.Info("Dashboard login succeeded")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
