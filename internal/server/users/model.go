package users

import "time"

// User is the persistent record for one registered identity. ID is assigned at
// registration and never changes; Email doubles as a secondary lookup key and
// is not case-normalized. HashedPassword is replaced wholesale on password
// change.
//
// ResetTokenHash and ResetTokenExpiry are set together and cleared together.
// A record carrying only one of them is invalid and must be treated as an
// expired reset (fail-closed).
type User struct {
	ID               string
	Email            string
	HashedPassword   string
	CreatedAt        time.Time
	ResetTokenHash   string
	ResetTokenExpiry time.Time
}

// HasValidReset reports whether an outstanding reset secret may still be
// redeemed at the given instant.
func (u *User) HasValidReset(now time.Time) bool {
	if u.ResetTokenHash == "" || u.ResetTokenExpiry.IsZero() {
		return false
	}
	return now.Before(u.ResetTokenExpiry)
}
