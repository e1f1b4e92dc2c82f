package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password with bcrypt. Each call salts
// independently, so two hashes of the same input differ; correctness is
// checked with VerifyPassword, never by comparing hashes.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// Comparison is case-sensitive.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashResetSecret derives the stored lookup hash for a password-reset secret.
// The derivation is deterministic so the repository can index it directly,
// and non-reversible so a leaked record does not expose the secret.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
