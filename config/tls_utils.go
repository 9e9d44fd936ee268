package config

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ajkula/GoGRT/domain/port/outbound"
)

// EnsureTLSCertificates makes sure a usable certificate and key exist,
// generating a self-signed pair when none is configured.
func EnsureTLSCertificates(config *Config, cryptoService outbound.CryptoService, logger outbound.Logger) error {
	if !config.HTTP.TLS {
		return nil
	}

	certPath := config.HTTP.CertFile
	keyPath := config.HTTP.KeyFile

	// Fall back to the data directory when no paths are configured
	if certPath == "" || keyPath == "" {
		tlsDir := filepath.Join(config.General.DataDir, "tls")
		if err := os.MkdirAll(tlsDir, 0755); err != nil {
			return fmt.Errorf("failed to create TLS directory: %w", err)
		}

		certPath = filepath.Join(tlsDir, "server.crt")
		keyPath = filepath.Join(tlsDir, "server.key")

		config.HTTP.CertFile = certPath
		config.HTTP.KeyFile = keyPath
	}

	if certificatesExist(certPath, keyPath) {
		if isCertificateValid(certPath, logger) {
			logger.Info("Using existing TLS certificates",
				"certFile", certPath,
				"keyFile", keyPath)
			return nil
		}
		logger.Info("Existing certificate expired or invalid, regenerating...")
	}

	logger.Info("Generating self-signed TLS certificates...")

	hostname := config.HTTP.Address
	if hostname == "0.0.0.0" || hostname == "" {
		hostname = "localhost"
	}

	certPEM, keyPEM, err := cryptoService.GenerateTLSCertificate(hostname)
	if err != nil {
		return fmt.Errorf("failed to generate TLS certificates: %w", err)
	}

	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}

	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}

	logger.Info("TLS certificates generated",
		"certFile", certPath,
		"keyFile", keyPath,
		"hostname", hostname,
		"note", "self-signed, browsers will warn")

	return nil
}

// isCertificateValid rejects certificates expiring within 30 days so a
// regeneration happens before the old pair stops working.
func isCertificateValid(certPath string, logger outbound.Logger) bool {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return false
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return false
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return false
	}

	if time.Until(cert.NotAfter) < 30*24*time.Hour {
		logger.Info("Certificate expires soon", "expiry", cert.NotAfter)
		return false
	}

	return true
}

func certificatesExist(certPath, keyPath string) bool {
	if _, err := os.Stat(certPath); os.IsNotExist(err) {
		return false
	}
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return false
	}
	return true
}
