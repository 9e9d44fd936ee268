package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/ajkula/GoGRT/domain/port/inbound"
)

type contextKey string

const SessionContextKey contextKey = "session"

// AuthMiddleware guards the API behind the dashboard token.
type AuthMiddleware struct {
	authService inbound.AuthService
	logger      model.Logger
}

func NewAuthMiddleware(authService inbound.AuthService, logger model.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// Middleware validates the bearer token on protected routes.
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.authService.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if am.isPublicRoute(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := am.extractToken(r)
		if token == "" {
			am.unauthorized(w, "Missing authentication token")
			return
		}

		session, err := am.authService.ValidateToken(token)
		if err != nil {
			am.logger.Warn("Invalid token attempt", "path", r.URL.Path, "error", err)
			am.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (am *AuthMiddleware) isPublicRoute(path string) bool {
	publicRoutes := []string{
		"/api/auth/login",
		"/health",
	}

	for _, route := range publicRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

func (am *AuthMiddleware) extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// WebSocket clients cannot set headers, so they pass the token in the query.
	return r.URL.Query().Get("token")
}

func (am *AuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// GetSessionFromContext retrieves the validated session placed by the middleware.
func GetSessionFromContext(ctx context.Context) (*inbound.DashboardSession, bool) {
	session, ok := ctx.Value(SessionContextKey).(*inbound.DashboardSession)
	return session, ok
}
