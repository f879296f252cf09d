package models

import "time"

// RevokedToken is a logout blacklist entry, keyed by the raw token string.
type RevokedToken struct {
	Token     string
	RevokedAt time.Time
}
