package inbound

import "time"

// DashboardSession is the validated identity carried by a dashboard token.
type DashboardSession struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService guards the telemetry dashboard with a single shared
// secret exchanged for a signed token.
type AuthService interface {
	Login(secret string) (string, time.Time, error) // token, expiry, error
	ValidateToken(token string) (*DashboardSession, error)
	Enabled() bool
}
