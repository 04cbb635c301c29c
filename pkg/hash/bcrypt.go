package hash

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func isBcryptHash(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

func verifyBcrypt(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrInvalidHash
}

func (h *Hasher) NeedsRehash(encodedHash string) bool {
	return NeedsRehash(encodedHash)
}

// NeedsRehash reports whether a stored hash should be upgraded to argon2id.
func NeedsRehash(encodedHash string) bool {
	return isBcryptHash(encodedHash)
}
