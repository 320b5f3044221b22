// Package common defines shared constants and sentinel errors used across
// client and server layers of PennyPlan. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrorDuplicateKey = errors.New("duplicate key")

	// Input validation errors.
	ErrorValidation = errors.New("validation error")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrAccountExists        = errors.New("account already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidExternalToken = errors.New("invalid external identity token")
	ErrStoreUnavailable     = errors.New("store unavailable")

	// Notification failures are logged and never returned to callers.
	ErrNotificationFailure = errors.New("notification failure")

	// Bearer token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsRejection reports whether err is one of the account resolution
// rejections that are safe to show to the caller.
func IsRejection(err error) bool {
	return errors.Is(err, ErrAccountExists) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidExternalToken)
}
