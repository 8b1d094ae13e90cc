package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func cheapKeyParams() KeyParams {
	return KeyParams{Iterations: 1, MemoryKiB: 64, Parallelism: 1}
}

func TestDeriveKeyIsStableForOneSecret(t *testing.T) {
	salt := bytes.Repeat([]byte{0x5a}, MinSaltLength)

	first, err := DeriveKey([]byte("vault-secret"), salt, cheapKeyParams())
	require.NoError(t, err)
	second, err := DeriveKey([]byte("vault-secret"), salt, cheapKeyParams())
	require.NoError(t, err)

	require.Len(t, first, KeyLength)
	require.Equal(t, first, second)

	other, err := DeriveKey([]byte("rotated-secret"), salt, cheapKeyParams())
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestDeriveKeyDependsOnSaltAndCost(t *testing.T) {
	secret := []byte("vault-secret")
	salt := bytes.Repeat([]byte{0x01}, MinSaltLength)

	base, err := DeriveKey(secret, salt, cheapKeyParams())
	require.NoError(t, err)

	otherSalt, err := DeriveKey(secret, bytes.Repeat([]byte{0x02}, MinSaltLength), cheapKeyParams())
	require.NoError(t, err)
	require.NotEqual(t, base, otherSalt)

	costlier := cheapKeyParams()
	costlier.Iterations = 2
	otherCost, err := DeriveKey(secret, salt, costlier)
	require.NoError(t, err)
	require.NotEqual(t, base, otherCost)
}

func TestDerivedKeyOpensWhatItSeals(t *testing.T) {
	key, err := DeriveKey([]byte("vault-secret"), bytes.Repeat([]byte{0x07}, MinSaltLength), cheapKeyParams())
	require.NoError(t, err)

	sealed, err := Encrypt([]byte("ghp_owner_token"), key)
	require.NoError(t, err)
	opened, err := Decrypt(sealed, key)
	require.NoError(t, err)
	require.Equal(t, "ghp_owner_token", string(opened))
}

func TestDeriveKeyRejectsBadInput(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, MinSaltLength)

	_, err := DeriveKey(nil, salt, cheapKeyParams())
	require.Error(t, err)

	_, err = DeriveKey([]byte("secret"), salt[:MinSaltLength-1], cheapKeyParams())
	require.Error(t, err)

	_, err = DeriveKey([]byte("secret"), salt, KeyParams{})
	require.ErrorIs(t, err, ErrKeyParams)
}

func TestKeyParamsValidate(t *testing.T) {
	cases := map[string]struct {
		params KeyParams
		valid  bool
	}{
		"default":         {DefaultKeyParams(), true},
		"cheap":           {cheapKeyParams(), true},
		"no iterations":   {KeyParams{MemoryKiB: 64 * 1024, Parallelism: 4}, false},
		"no lanes":        {KeyParams{Iterations: 3, MemoryKiB: 64 * 1024}, false},
		"memory per lane": {KeyParams{Iterations: 3, MemoryKiB: 31, Parallelism: 4}, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrKeyParams)
		})
	}
}
