package crypto

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTLSCertificate(t *testing.T) {
	service := NewArgon2SecretHasher()

	certPEM, keyPEM, err := service.GenerateTLSCertificate("example.local")
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	require.Equal(t, "CERTIFICATE", block.Type)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "example.local", cert.Subject.CommonName)
	assert.Contains(t, cert.DNSNames, "example.local")
	assert.Contains(t, cert.DNSNames, "localhost")
	assert.WithinDuration(t, time.Now().Add(365*24*time.Hour), cert.NotAfter, time.Minute)

	// the pair must load as a working server keypair
	_, err = tls.X509KeyPair(certPEM, keyPEM)
	assert.NoError(t, err)
}

func TestGenerateTLSCertificate_Localhost(t *testing.T) {
	service := NewArgon2SecretHasher()

	certPEM, _, err := service.GenerateTLSCertificate("localhost")
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 2)
}
