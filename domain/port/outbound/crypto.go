package outbound

// CryptoService hashes the dashboard secret and produces the TLS
// material the HTTP server needs.
type CryptoService interface {
	// HashSecret derives a salted hash in a self-contained encoded form.
	HashSecret(secret string) (string, error)

	// VerifySecret checks a candidate against an encoded hash in
	// constant time.
	VerifySecret(secret, encoded string) bool

	// GenerateTLSCertificate issues a self-signed certificate for the
	// given hostname, returning PEM-encoded certificate and key.
	GenerateTLSCertificate(hostname string) (certPEM []byte, keyPEM []byte, err error)
}
