// Package identity verifies ID tokens issued by external identity providers.
package identity

import "context"

// Claims is the subset of an ID token the account resolution needs.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier validates a raw provider token and returns its claims. Every
// rejection wraps common.ErrInvalidExternalToken.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}
