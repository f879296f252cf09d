package models

import "time"

// RecoveryToken is a single-use password recovery secret. It is bound to an
// email address, not a user id, so consumption must match both the token and
// the email.
type RecoveryToken struct {
	ID        string
	Email     string
	Token     string
	CreatedAt time.Time
}
