// Package password hashes and verifies local account passwords.
package password

import "fmt"

// Supported hasher names for configuration.
const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2"
)

// Hasher turns plaintext passwords into one-way salted digests and checks
// candidates against them. Verify must not leak timing on the first
// mismatching byte.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// New returns the hasher registered under name. bcryptCost only applies to
// bcrypt.
func New(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case AlgorithmArgon2:
		return NewArgon2Hasher(nil), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}
