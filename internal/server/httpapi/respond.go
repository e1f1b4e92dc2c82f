package httpapi

import (
	"encoding/json"
	"net/http"
)

// Externally visible messages. Authentication failures use one constant text
// per endpoint regardless of the underlying cause, so callers cannot tell
// "no such account" from "wrong password" or "expired" from "malformed".
const (
	msgInvalidBody        = "Invalid request body"
	msgValidationFailed   = "Validation failed"
	msgEmailTaken         = "Email already registered"
	msgInvalidCredentials = "Invalid credentials"
	msgRefreshRequired    = "Refresh token is required"
	msgInvalidToken       = "Invalid or expired token"
	msgNoToken            = "No token provided"
	msgResetRequired      = "Reset token and new password are required"
	msgInvalidResetToken  = "Invalid or expired reset token"
	msgResetIssued        = "If the email is registered, a reset token has been issued"
	msgResetSuccessful    = "Password reset successful"
	msgNotFound           = "Not found"
	msgInternalError      = "Internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationErrors(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  msgValidationFailed,
		"errors": errs,
	})
}
