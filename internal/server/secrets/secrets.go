// Package secrets abstracts the store the server fetches its JWT signing key
// from at startup. The key is read exactly once per process; rotation requires
// a restart.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrSecretNotFound is returned when the named secret does not exist or is empty.
var ErrSecretNotFound = errors.New("secret not found")

// Store retrieves named secrets from an external provider.
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// EnvStore resolves secret names as environment variable names. It is the
// default provider for development and container setups that inject secrets
// through the environment.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (s *EnvStore) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("env secret %q: %w", name, ErrSecretNotFound)
	}
	return v, nil
}
