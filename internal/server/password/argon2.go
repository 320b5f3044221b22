package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedDigest is returned when a stored argon2 digest cannot be parsed.
var ErrMalformedDigest = errors.New("malformed argon2 digest")

// Bounds accepted when decoding a stored digest.
const (
	maxArgon2Memory     = 1 << 20 // KiB
	maxArgon2Iterations = 64
	maxArgon2KeyLength  = 1024
)

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the OWASP baseline for argon2id.
func DefaultArgon2Params() *Argon2Params {
	return &Argon2Params{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher encodes digests as
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
type Argon2Hasher struct {
	params *Argon2Params
}

func NewArgon2Hasher(params *Argon2Params) *Argon2Hasher {
	if params == nil {
		params = DefaultArgon2Params()
	}
	return &Argon2Hasher{params: params}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key with the parameters stored in digest, so
// digests created with older parameters keep working.
func (h *Argon2Hasher) Verify(plaintext, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2(digest)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2(digest string) (*Argon2Params, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, ErrMalformedDigest
	}

	p := &Argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, nil, ErrMalformedDigest
	}

	if p.Iterations < 1 || p.Iterations > maxArgon2Iterations ||
		p.Parallelism < 1 ||
		p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxArgon2Memory {
		return nil, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLength {
		return nil, nil, nil, ErrMalformedDigest
	}

	return p, salt, key, nil
}

var _ Hasher = (*Argon2Hasher)(nil)
