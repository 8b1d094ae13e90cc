// Package vault protects owner GitHub tokens at rest. Keys are derived once at
// start-up with Argon2id; each encryption uses AES-256-GCM with a fresh nonce.
package vault

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/charlesng35/gitteams/pkg/crypto"
)

// ErrCredentialUnusable is returned when a stored ciphertext cannot be opened
// (wrong format, wrong key or a tampered authentication tag). It is terminal.
var ErrCredentialUnusable = errors.New("vault: credential unusable")

// Vault encrypts and decrypts short secrets such as GitHub access tokens.
type Vault struct {
	key  []byte
	salt []byte
}

type vaultConfig struct {
	params crypto.KeyParams
	salt   []byte
}

// Option configures the vault.
type Option func(*vaultConfig)

// WithSalt overrides the salt used for Argon2 key derivation.
func WithSalt(salt []byte) Option {
	cp := make([]byte, len(salt))
	copy(cp, salt)
	return func(cfg *vaultConfig) {
		cfg.salt = cp
	}
}

// WithKeyParams overrides the Argon2id cost factors used during key derivation.
func WithKeyParams(params crypto.KeyParams) Option {
	return func(cfg *vaultConfig) {
		cfg.params = params
	}
}

// New derives the AES key from the configured secret.
func New(secret []byte, opts ...Option) (*Vault, error) {
	if len(secret) == 0 {
		return nil, errors.New("vault: secret is required")
	}

	cfg := vaultConfig{
		params: crypto.DefaultKeyParams(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(cfg.salt) == 0 {
		cfg.salt = deriveSalt(secret)
	} else if len(cfg.salt) < crypto.MinSaltLength {
		return nil, fmt.Errorf("vault: salt must be at least %d bytes (got %d)", crypto.MinSaltLength, len(cfg.salt))
	}

	derived, err := crypto.DeriveKey(secret, cfg.salt, cfg.params)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}

	return &Vault{
		key:  derived,
		salt: append([]byte(nil), cfg.salt...),
	}, nil
}

// Encrypt seals plaintext. Two calls with the same input produce different ciphertexts.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if v == nil || len(v.key) == 0 {
		return "", errors.New("vault: key is not initialised")
	}
	return crypto.Encrypt([]byte(plaintext), v.key)
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure wraps ErrCredentialUnusable.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if v == nil || len(v.key) == 0 {
		return "", errors.New("vault: key is not initialised")
	}
	plain, err := crypto.Decrypt(ciphertext, v.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialUnusable, err)
	}
	return string(plain), nil
}

// Salt returns a copy of the salt used during derivation.
func (v *Vault) Salt() []byte {
	return append([]byte(nil), v.salt...)
}

func deriveSalt(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:crypto.MinSaltLength]
}
