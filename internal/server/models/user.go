package models

import "time"

// User is the identity record persisted in the users table.
//
// ConfirmationToken and Confirmed are deliberately separate fields: a freshly
// registered user has Confirmed=false and a non-nil ConfirmationToken, a
// confirmed user has Confirmed=true and a nil token. LastIssueTime holds the
// issue time of the most recently minted session token, or nil when the user
// has never logged in or has been forcibly invalidated.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              *string
	Confirmed         bool
	ConfirmationToken *string
	LastIssueTime     *time.Time
	Avatar            *string
	CreatedAt         time.Time
}
