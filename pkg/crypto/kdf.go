package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// KeyLength is the size of derived keys. Encrypt and Decrypt use AES-256.
	KeyLength = 32
	// MinSaltLength is the shortest salt DeriveKey accepts.
	MinSaltLength = 16
)

// ErrKeyParams reports Argon2id cost factors that cannot derive a key.
var ErrKeyParams = errors.New("crypto: invalid key derivation parameters")

// KeyParams are the Argon2id cost factors used to stretch the token vault secret.
type KeyParams struct {
	Iterations  uint32
	MemoryKiB   uint32
	Parallelism uint8
}

// DefaultKeyParams follows the RFC 9106 second recommended option. The key is
// derived once per process, so the cost is paid at start-up only.
func DefaultKeyParams() KeyParams {
	return KeyParams{
		Iterations:  3,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
	}
}

// Validate reports whether argon2 can run with p.
func (p KeyParams) Validate() error {
	switch {
	case p.Iterations == 0:
		return fmt.Errorf("%w: iterations must be positive", ErrKeyParams)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: parallelism must be positive", ErrKeyParams)
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory must be at least %d KiB for %d lanes", ErrKeyParams, 8*uint32(p.Parallelism), p.Parallelism)
	}
	return nil
}

// DeriveKey stretches secret into a KeyLength byte AES key with Argon2id.
func DeriveKey(secret, salt []byte, params KeyParams) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("crypto: secret is required")
	}
	if len(salt) < MinSaltLength {
		return nil, fmt.Errorf("crypto: salt must be at least %d bytes, got %d", MinSaltLength, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(secret, salt, params.Iterations, params.MemoryKiB, params.Parallelism, KeyLength), nil
}
