// Package users contains the user model, the persistence contract with its
// Postgres, Redis and in-memory implementations, and the account Service that
// drives the five credential-lifecycle flows.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RileyParsons/plateful/internal/common"
	"github.com/RileyParsons/plateful/internal/server/auth"
)

// resetSecretValidity is how long a password-reset secret may be redeemed.
const resetSecretValidity = 1 * time.Hour

// resetSecretBytes is the entropy of a reset secret before hex encoding.
const resetSecretBytes = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by Register and Login: the account plus a fresh pair.
type AuthResult struct {
	User   *User
	Tokens TokenPair
}

// Service implements the account flows on top of a Repository and the token
// service. Inputs are assumed structurally validated by the transport layer;
// Service decides correctness and enforces the security invariants.
type Service struct {
	repo   Repository
	tokens *auth.TokenService
}

func NewService(repo Repository, tokens *auth.TokenService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a new account and issues its first token pair. A taken
// email yields common.ErrEmailTaken, either from the pre-check or from the
// store's uniqueness guard when two registrations race.
func (s *Service) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrEmailTaken
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error checking existing email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login verifies the credentials and issues a new pair. Unknown email and
// wrong password both collapse to common.ErrUnauthorized so the outcomes are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh validates a refresh token and rotates the full pair: both the
// access and the refresh token are newly minted. Malformed, expired,
// wrong-typed tokens and vanished accounts all collapse to
// common.ErrUnauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseClaims(refreshToken)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, common.ErrUnauthorized
	}
	if claims.UserID == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// RequestReset generates a fresh reset secret. For a known email the secret's
// hash and expiry are stored on the record; for an unknown email nothing is
// stored, but the secret is still returned so both outcomes look identical to
// the caller.
func (s *Service) RequestReset(ctx context.Context, email string) (string, error) {
	secret, err := common.MakeRandHexString(resetSecretBytes)
	if err != nil {
		return "", fmt.Errorf("error generating reset secret: %w", err)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return secret, nil
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	expiry := time.Now().UTC().Add(resetSecretValidity)
	if err := s.repo.SetResetToken(ctx, user.ID, auth.HashResetSecret(secret), expiry); err != nil {
		return "", fmt.Errorf("error storing reset token: %w", err)
	}

	return secret, nil
}

// CompleteReset redeems a reset secret: the matching account gets the new
// password and both reset fields are cleared, so the secret is single-use.
// Unknown, expired and already-consumed secrets all collapse to
// common.ErrUnauthorized; a record with a hash but no expiry fails closed.
func (s *Service) CompleteReset(ctx context.Context, secret, newPassword string) error {
	user, err := s.repo.GetByResetTokenHash(ctx, auth.HashResetSecret(secret))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUnauthorized
		}
		return fmt.Errorf("error looking up reset token: %w", err)
	}

	if !user.HasValidReset(time.Now().UTC()) {
		return common.ErrUnauthorized
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if err := s.repo.ClearResetToken(ctx, user.ID); err != nil {
		return fmt.Errorf("error clearing reset token: %w", err)
	}

	return nil
}

// GetProfile loads the account behind a validated access token subject.
func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func (s *Service) generateTokenPair(user *User) (TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("error generating refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
