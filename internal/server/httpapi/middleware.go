package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/RileyParsons/plateful/internal/server/auth"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// UserIDFromContext returns the authenticated user id stored by requireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

type guardError struct {
	status  int
	message string
}

func (e *guardError) Error() string {
	return e.message
}

// Authenticate checks the Authorization header and returns the user id the
// access token was issued for. The header must carry exactly "Bearer <token>";
// anything else is rejected before the token is even parsed.
func (s *Server) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", &guardError{status: http.StatusUnauthorized, message: msgNoToken}
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", &guardError{status: http.StatusUnauthorized, message: msgNoToken}
	}

	claims, err := s.tokens.ParseClaims(parts[1])
	if err != nil {
		return "", &guardError{status: http.StatusUnauthorized, message: msgInvalidToken}
	}
	if claims.TokenType != auth.TokenTypeAccess || claims.UserID == "" {
		return "", &guardError{status: http.StatusUnauthorized, message: msgInvalidToken}
	}

	return claims.UserID, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.Authenticate(r)
		if err != nil {
			var ge *guardError
			if errors.As(err, &ge) {
				writeError(w, ge.status, ge.message)
				return
			}
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
