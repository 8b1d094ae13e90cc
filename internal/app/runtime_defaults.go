package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charlesng35/gitteams/pkg/crypto"
)

const (
	jwtSecretBytes   = 48
	vaultSecretBytes = 32
)

// ApplyRuntimeDefaults fills secrets that may safely be regenerated on every start.
// It returns the keys it generated so callers can log them without the values.
// The vault key must survive restarts and is persisted by
// database.EnsureVaultEncryptionKey instead.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	return generated, nil
}

// GenerateVaultKey returns a fresh hex encoded vault key.
func GenerateVaultKey() (string, error) {
	buf := make([]byte, vaultSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate vault encryption key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
