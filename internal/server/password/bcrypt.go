package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt can digest, in bytes. Longer
// input is rejected rather than silently truncated.
const MaxLength = 72

// DefaultBcryptCost balances login latency against brute-force cost.
const DefaultBcryptCost = 12

// BcryptHasher stores digests in the standard $2a$ format.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's valid range; zero selects
// DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	cost = max(cost, bcrypt.MinCost)
	cost = min(cost, bcrypt.MaxCost)
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify compares in constant time inside bcrypt. A malformed digest is an
// error, a mismatch is not.
func (h *BcryptHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ Hasher = (*BcryptHasher)(nil)
