package auth

import "unicode"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Password policy messages returned verbatim to callers.
const (
	MsgPasswordRequired  = "Password is required"
	MsgPasswordTooShort  = "Password must be at least 8 characters long"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
)

// ValidatePasswordRequirements applies the password policy and returns every
// violated rule, not just the first. Registration and password reset share
// this single policy; login never calls it, since a stored hash decides
// correctness there. An empty result means the password is acceptable.
func ValidatePasswordRequirements(password string) []string {
	if password == "" {
		return []string{MsgPasswordRequired}
	}

	var errs []string
	if len(password) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		errs = append(errs, MsgPasswordUppercase)
	}
	if !hasLower {
		errs = append(errs, MsgPasswordLowercase)
	}
	if !hasDigit {
		errs = append(errs, MsgPasswordDigit)
	}

	return errs
}
