package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if !VerifyPassword(hash, "secret") {
		t.Fatal("expected password verification to succeed")
	}

	if VerifyPassword(hash, "incorrect") {
		t.Fatal("expected password verification to fail")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key := bytes.Repeat([]byte{0x1}, 32)
	plaintext := []byte("sensitive data")

	encoded, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	decrypted, err := Decrypt(encoded, key)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}

	if !bytes.Equal(plaintext, decrypted) {
		t.Fatalf("expected decrypted plaintext to match original, got %s", decrypted)
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if len(token) == 0 {
		t.Fatal("expected token to be non-empty")
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	key := bytes.Repeat([]byte{0x2}, 32)

	first, err := Encrypt([]byte("ghp_same"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	second, err := Encrypt([]byte("ghp_same"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct ciphertexts for identical plaintexts")
	}
}

func TestDecryptRejectsMalformedPayloads(t *testing.T) {
	key := bytes.Repeat([]byte{0x3}, 32)

	if _, err := Decrypt("not base64!", key); !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("expected ErrMalformedCiphertext, got %v", err)
	}
	if _, err := Decrypt("AAAA", key); !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("expected ErrMalformedCiphertext for short payload, got %v", err)
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	first, err := GenerateOpaqueToken(16)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	second, err := GenerateOpaqueToken(16)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if first == second {
		t.Fatal("expected unique tokens")
	}
	if strings.ContainsAny(first, "0OIl+/=") {
		t.Fatalf("expected base58 alphabet, got %q", first)
	}
	if _, err := GenerateOpaqueToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
