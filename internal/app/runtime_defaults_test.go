package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsGeneratesJWTSecret(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Auth.JWT.Secret)
	require.True(t, generated["auth.jwt.secret"])
	require.Empty(t, cfg.Vault.EncryptionKey)
	require.NotContains(t, generated, "vault.encryption_key")
}

func TestApplyRuntimeDefaultsKeepsConfiguredSecret(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{JWT: JWTSettings{Secret: "configured"}}}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, "configured", cfg.Auth.JWT.Secret)
	require.Empty(t, generated)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.Error(t, err)
}

func TestGenerateVaultKeyIsUsable(t *testing.T) {
	key, err := GenerateVaultKey()
	require.NoError(t, err)
	require.Len(t, key, vaultSecretBytes*2)

	secret, err := VaultSecret(key)
	require.NoError(t, err)
	require.Len(t, secret, vaultSecretBytes)

	other, err := GenerateVaultKey()
	require.NoError(t, err)
	require.NotEqual(t, key, other)
}
