// Package common defines shared constants and sentinel errors used across
// the storeauth components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Business-rule failures. Deliberately generic: the caller must not be
	// able to tell which specific check failed.
	ErrBadCredentials      = errors.New("wrong credentials")
	ErrNotConfirmed        = errors.New("email not confirmed")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidRecovery     = errors.New("invalid password recovery")
	ErrInvalidConfirmation = errors.New("invalid confirmation token")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Infrastructure errors. ErrStoreUnavailable is transient and must never
	// be collapsed into ErrUnauthenticated; ErrDeliveryFailed wraps the
	// underlying mail transport failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDeliveryFailed   = errors.New("email delivery failed")
)
