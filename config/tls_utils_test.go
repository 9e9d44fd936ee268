package config

import (
	"os"
	"testing"

	"github.com/ajkula/GoGRT/adapter/outbound/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...interface{}) {}
func (noopLogger) Info(msg string, args ...interface{})  {}
func (noopLogger) Warn(msg string, args ...interface{})  {}
func (noopLogger) Error(msg string, args ...interface{}) {}

func TestEnsureTLSCertificates_DisabledIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = t.TempDir()
	cfg.HTTP.TLS = false

	require.NoError(t, EnsureTLSCertificates(cfg, crypto.NewArgon2SecretHasher(), noopLogger{}))
	assert.Empty(t, cfg.HTTP.CertFile)
}

func TestEnsureTLSCertificates_GeneratesPair(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = t.TempDir()
	cfg.HTTP.TLS = true

	require.NoError(t, EnsureTLSCertificates(cfg, crypto.NewArgon2SecretHasher(), noopLogger{}))

	require.NotEmpty(t, cfg.HTTP.CertFile)
	require.NotEmpty(t, cfg.HTTP.KeyFile)

	certData, err := os.ReadFile(cfg.HTTP.CertFile)
	require.NoError(t, err)
	assert.Contains(t, string(certData), "BEGIN CERTIFICATE")

	keyInfo, err := os.Stat(cfg.HTTP.KeyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), keyInfo.Mode().Perm())
}

func TestEnsureTLSCertificates_ReusesValidPair(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = t.TempDir()
	cfg.HTTP.TLS = true

	require.NoError(t, EnsureTLSCertificates(cfg, crypto.NewArgon2SecretHasher(), noopLogger{}))
	first, err := os.ReadFile(cfg.HTTP.CertFile)
	require.NoError(t, err)

	require.NoError(t, EnsureTLSCertificates(cfg, crypto.NewArgon2SecretHasher(), noopLogger{}))
	second, err := os.ReadFile(cfg.HTTP.CertFile)
	require.NoError(t, err)

	assert.Equal(t, first, second, "a valid pair must not be regenerated")
}
