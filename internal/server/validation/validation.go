// Package validation performs structural validation of auth request payloads.
// It never decides whether credentials are correct, only whether they are
// well-formed; password correctness is always settled by hash comparison.
package validation

import (
	"regexp"

	"github.com/RileyParsons/plateful/internal/server/auth"
)

// Messages returned verbatim in 400 responses.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email format"
	MsgPasswordRequired = "Password is required"
)

// emailPattern requires a local part, an @, a domain containing a dot, and a
// final label of at least two characters.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// ValidateEmail reports whether email is structurally plausible. Empty input
// is rejected.
func ValidateEmail(email string) bool {
	return email != "" && emailPattern.MatchString(email)
}

// ValidatePassword applies the shared password policy cumulatively, returning
// every violated rule. A nil result means the password passes.
func ValidatePassword(password string) []string {
	return auth.ValidatePasswordRequirements(password)
}

// ValidateRegistration aggregates email-format errors and the full password
// policy for a registration payload.
func ValidateRegistration(email, password string) []string {
	var errs []string
	if email == "" {
		errs = append(errs, MsgEmailRequired)
	} else if !ValidateEmail(email) {
		errs = append(errs, MsgEmailInvalid)
	}
	errs = append(errs, ValidatePassword(password)...)
	return errs
}

// ValidateResetRequest checks the email of a password-reset request. Whether
// the email belongs to an account is deliberately not part of validation.
func ValidateResetRequest(email string) []string {
	var errs []string
	if email == "" {
		errs = append(errs, MsgEmailRequired)
	} else if !ValidateEmail(email) {
		errs = append(errs, MsgEmailInvalid)
	}
	return errs
}

// ValidateLogin requires presence and format of the email but only presence of
// the password. Strength is never re-checked at login: accounts created under
// an older policy must still be able to sign in.
func ValidateLogin(email, password string) []string {
	var errs []string
	if email == "" {
		errs = append(errs, MsgEmailRequired)
	} else if !ValidateEmail(email) {
		errs = append(errs, MsgEmailInvalid)
	}
	if password == "" {
		errs = append(errs, MsgPasswordRequired)
	}
	return errs
}
