package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(secret string) (string, time.Time, error) {
	args := m.Called(secret)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAuthService) ValidateToken(token string) (*inbound.DashboardSession, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.DashboardSession), args.Error(1)
}

func (m *MockAuthService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockAuthLogger struct {
	mock.Mock
}

func (m *MockAuthLogger) UpdateLevel(level string) {
	m.Called(level)
}

func (m *MockAuthLogger) Debug(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockAuthLogger) Info(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockAuthLogger) Warn(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockAuthLogger) Error(msg string, args ...interface{}) {
	m.Called(msg, args)
}

func (m *MockAuthLogger) Shutdown() {}

func createTestSession() *inbound.DashboardSession {
	return &inbound.DashboardSession{
		Subject:   "dashboard",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func setupAuthMiddleware(enable bool) (*AuthMiddleware, *MockAuthService, *MockAuthLogger) {
	authService := &MockAuthService{}
	logger := &MockAuthLogger{}
	authService.On("Enabled").Return(enable)
	logger.On("Warn", mock.Anything, mock.Anything).Return()
	middleware := NewAuthMiddleware(authService, logger)
	return middleware, authService, logger
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	middleware, _, _ := setupAuthMiddleware(false)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	req := httptest.NewRequest("GET", "/api/surfaces", nil)
	w := httptest.NewRecorder()

	middleware.Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthMiddleware_PublicRoute(t *testing.T) {
	middleware, _, _ := setupAuthMiddleware(true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	publicRoutes := []string{
		"/api/auth/login",
		"/health",
	}

	for _, route := range publicRoutes {
		req := httptest.NewRequest("GET", route, nil)
		w := httptest.NewRecorder()

		middleware.Middleware(handler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Route %s should be public", route)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	middleware, _, _ := setupAuthMiddleware(true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/surfaces", nil)
	w := httptest.NewRecorder()

	middleware.Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing authentication token")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	middleware, authService, _ := setupAuthMiddleware(true)

	authService.On("ValidateToken", "invalid-token").Return(nil, assert.AnError)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/surfaces", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()

	middleware.Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	middleware, authService, _ := setupAuthMiddleware(true)
	session := createTestSession()

	authService.On("ValidateToken", "valid-token").Return(session, nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := GetSessionFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "dashboard", got.Subject)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/surfaces", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	middleware.Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_TokenFromQuery(t *testing.T) {
	middleware, authService, _ := setupAuthMiddleware(true)
	session := createTestSession()

	authService.On("ValidateToken", "query-token").Return(session, nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// browsers cannot attach headers to a WebSocket handshake
	req := httptest.NewRequest("GET", "/ws/surfaces/demo?token=query-token", nil)
	w := httptest.NewRecorder()

	middleware.Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_GetSessionFromContext_NotFound(t *testing.T) {
	_, ok := GetSessionFromContext(context.Background())
	assert.False(t, ok)
}
