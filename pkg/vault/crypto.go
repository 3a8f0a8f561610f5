package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// keyFromSecret derives a 256-bit AEAD key from an arbitrary-length
// environment variable value via SHA-256, so operators can set the vault
// key env var to any passphrase rather than a precisely-sized byte string.
func keyFromSecret(secret string) [chacha20poly1305.KeySize]byte {
	return sha256.Sum256([]byte(secret))
}

// sealBlob encrypts plaintext under key, returning nonce||ciphertext.
func sealBlob(key [chacha20poly1305.KeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing AEAD cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// openBlob decrypts a nonce||ciphertext blob produced by sealBlob.
func openBlob(key [chacha20poly1305.KeySize]byte, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("constructing AEAD cipher: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, fmt.Errorf("blob shorter than nonce size")
	}
	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting vault blob: %w", err)
	}
	return plaintext, nil
}

// generateKey returns a fresh random 256-bit key, used in degraded
// (ephemeral) mode when no key env var is configured.
func generateKey() ([chacha20poly1305.KeySize]byte, error) {
	var key [chacha20poly1305.KeySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("generating ephemeral vault key: %w", err)
	}
	return key, nil
}
