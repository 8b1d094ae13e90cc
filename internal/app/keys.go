package app

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const minVaultSecretBytes = 16

// DecodeKey decodes a key given as hex or base64. Anything else is used as raw bytes.
func DecodeKey(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, fmt.Errorf("key value is empty")
	}

	// generated keys are hex
	if len(v)%2 == 0 {
		if decoded, err := hex.DecodeString(v); err == nil {
			return decoded, nil
		}
	}

	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}

	return []byte(v), nil
}

// VaultSecret decodes the configured vault key and rejects keys too short to
// derive an encryption key from.
func VaultSecret(value string) ([]byte, error) {
	secret, err := DecodeKey(value)
	if err != nil {
		return nil, fmt.Errorf("vault.encryption_key: %w", err)
	}
	if len(secret) < minVaultSecretBytes {
		return nil, fmt.Errorf("vault.encryption_key: need at least %d bytes, got %d", minVaultSecretBytes, len(secret))
	}
	return secret, nil
}
