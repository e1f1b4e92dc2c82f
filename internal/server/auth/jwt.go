// Package auth holds the credential primitives of the identity server:
// JWT issuance and verification, password hashing, the shared password
// policy, and reset-secret derivation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/RileyParsons/plateful/internal/common"
)

// Token type claim values. A refresh token must never authorize resource
// access and an access token must never be redeemed for a new pair.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the registered JWT claims plus the identity fields the
// backend signs. Email is only present on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"type,omitempty"`
}

// TokenService signs and verifies bearer tokens with a single process-wide
// HS256 secret obtained from the secret store at startup.
type TokenService struct {
	secret          []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
}

func NewTokenService(secret []byte, accessValidity, refreshValidity time.Duration) *TokenService {
	return &TokenService{
		secret:          secret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
	}
}

// GenerateAccessToken mints a short-lived access token carrying the user id
// and email. Every token gets a unique jti, so two tokens minted within the
// same second still differ.
func (s *TokenService) GenerateAccessToken(userID, email string) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessValidity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:    userID,
		Email:     email,
		TokenType: TokenTypeAccess,
	})
}

// GenerateRefreshToken mints a long-lived refresh token. Email is deliberately
// omitted from refresh claims.
func (s *TokenService) GenerateRefreshToken(userID string) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.refreshValidity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:    userID,
		TokenType: TokenTypeRefresh,
	})
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ParseClaims verifies signature and expiry and returns the claims. Expired
// tokens map to common.ErrTokenExpired, everything else to
// common.ErrInvalidToken; callers must report both identically to the outside.
func (s *TokenService) ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ExtractUserID validates the token and requires a non-empty user id claim.
func (s *TokenService) ExtractUserID(tokenString string) (string, error) {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
