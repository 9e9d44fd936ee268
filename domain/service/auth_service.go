package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ajkula/GoGRT/domain/port/inbound"
	"github.com/ajkula/GoGRT/domain/port/outbound"
)

var (
	ErrInvalidSecret = errors.New("invalid dashboard secret")
	ErrInvalidToken  = errors.New("invalid token")
	ErrAuthDisabled  = errors.New("authentication is disabled")
)

const dashboardSubject = "dashboard"

// authService exchanges the shared dashboard secret for a signed
// session token. There is no user database: one secret, one role.
type authService struct {
	crypto     outbound.CryptoService
	logger     outbound.Logger
	secretHash string
	jwtSecret  string
	jwtExpiry  time.Duration
	enabled    bool
	now        func() time.Time
}

func NewAuthService(
	crypto outbound.CryptoService,
	logger outbound.Logger,
	secretHash string,
	jwtSecret string,
	jwtExpiryMinutes int,
	enabled bool,
) inbound.AuthService {
	return &authService{
		crypto:     crypto,
		logger:     logger,
		secretHash: secretHash,
		jwtSecret:  jwtSecret,
		jwtExpiry:  time.Duration(jwtExpiryMinutes) * time.Minute,
		enabled:    enabled,
		now:        time.Now,
	}
}

// Enabled reports whether login is possible at all. Authentication
// switched on without a configured secret hash stays closed.
func (s *authService) Enabled() bool {
	return s.enabled && s.secretHash != ""
}

func (s *authService) Login(secret string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}

	if !s.crypto.VerifySecret(secret, s.secretHash) {
		s.logger.Warn("dashboard login rejected")
		return "", time.Time{}, ErrInvalidSecret
	}

	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.jwtExpiry)

	claims := jwt.MapClaims{
		"sub": dashboardSubject,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	s.logger.Info("dashboard session opened", "expiresAt", expiresAt.Format(time.RFC3339))
	return signed, expiresAt, nil
}

func (s *authService) ValidateToken(tokenString string) (*inbound.DashboardSession, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub != dashboardSubject {
		return nil, ErrInvalidToken
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &inbound.DashboardSession{
		Subject:   sub,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
