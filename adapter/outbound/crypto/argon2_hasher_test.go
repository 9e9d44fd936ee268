package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2SecretHasher_HashAndVerify(t *testing.T) {
	hasher := NewArgon2SecretHasher()

	encoded, err := hasher.HashSecret("dashboard-secret")
	require.NoError(t, err)
	require.Contains(t, encoded, "$")

	assert.True(t, hasher.VerifySecret("dashboard-secret", encoded))
	assert.False(t, hasher.VerifySecret("wrong-secret", encoded))
}

func TestArgon2SecretHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := NewArgon2SecretHasher()

	first, err := hasher.HashSecret("same-secret")
	require.NoError(t, err)
	second, err := hasher.HashSecret("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each hash must carry a fresh salt")
	assert.True(t, hasher.VerifySecret("same-secret", first))
	assert.True(t, hasher.VerifySecret("same-secret", second))
}

func TestArgon2SecretHasher_VerifyRejectsMalformedEncodings(t *testing.T) {
	hasher := NewArgon2SecretHasher()

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"no separator", "deadbeef"},
		{"bad salt hex", "zz$deadbeef"},
		{"bad hash hex", "deadbeef$zz"},
		{"empty salt", "$deadbeef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, hasher.VerifySecret("secret", tc.encoded))
		})
	}
}

func TestArgon2SecretHasher_EncodingShape(t *testing.T) {
	hasher := NewArgon2SecretHasher()

	encoded, err := hasher.HashSecret("secret")
	require.NoError(t, err)

	parts := strings.SplitN(encoded, "$", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32, "16 byte salt hex encoded")
	assert.Len(t, parts[1], 64, "32 byte key hex encoded")
}
