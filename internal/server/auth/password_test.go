package auth

import (
	"encoding/hex"
	"testing"
)

func TestHashPassword_RandomSalt(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ")
	}
	if !VerifyPassword("Passw0rd", h1) || !VerifyPassword("Passw0rd", h2) {
		t.Fatalf("round-trip verification failed")
	}
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("Passw0rd")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if VerifyPassword("wrong", h) {
		t.Fatalf("wrong password accepted")
	}
	if VerifyPassword("passw0rd", h) {
		t.Fatalf("comparison must be case-sensitive")
	}
	if VerifyPassword("Passw0rd", "not-a-hash") {
		t.Fatalf("garbage hash accepted")
	}
}

func TestHashResetSecret(t *testing.T) {
	t.Parallel()

	a := HashResetSecret("secret-value")
	b := HashResetSecret("secret-value")
	c := HashResetSecret("other-value")

	if a != b {
		t.Fatalf("derivation must be deterministic")
	}
	if a == c {
		t.Fatalf("distinct secrets must derive distinct hashes")
	}
	if raw, err := hex.DecodeString(a); err != nil || len(raw) != 32 {
		t.Fatalf("expected 32-byte hex digest, got %q (err=%v)", a, err)
	}
}
