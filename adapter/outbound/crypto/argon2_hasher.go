package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ajkula/GoGRT/domain/port/outbound"
	"golang.org/x/crypto/argon2"
)

type Argon2SecretHasher struct{}

func NewArgon2SecretHasher() outbound.CryptoService {
	return &Argon2SecretHasher{}
}

// HashSecret encodes as "hex(salt)$hex(hash)" so everything needed for
// verification travels in one string.
func (c *Argon2SecretHasher) HashSecret(secret string) (string, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := deriveKey(secret, salt[:])
	return hex.EncodeToString(salt[:]) + "$" + hex.EncodeToString(hash), nil
}

func (c *Argon2SecretHasher) VerifySecret(secret, encoded string) bool {
	parts := strings.SplitN(encoded, "$", 2)
	if len(parts) != 2 {
		return false
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	hash := deriveKey(secret, salt)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}

func deriveKey(secret string, salt []byte) []byte {
	// Argon2id - OWASP 2024
	return argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
}
