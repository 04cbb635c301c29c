package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast
var testConfig = Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(testConfig)

	encoded, err := h.Hash("Abc123!@")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, encoded, "Abc123!@")

	ok, err := h.Verify("Abc123!@", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewHasher(testConfig)

	first, err := h.Hash("Abc123!@")
	require.NoError(t, err)
	second, err := h.Hash("Abc123!@")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	}
	for _, encoded := range cases {
		_, err := VerifyPassword("x", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}
}

func TestVerifyPassword_IncompatibleVersion(t *testing.T) {
	_, err := VerifyPassword("x", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("Abc123!@"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("Abc123!@", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, NeedsRehash(string(legacy)))
}
