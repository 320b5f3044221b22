// Package common contains shared constants and sentinel errors used across
// PennyPlan components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// ProductName is used in outbound mail and log fields.
	ProductName = "PennyPlan"
)
