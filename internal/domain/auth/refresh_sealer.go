package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var errSealedTokenTooShort = errors.New("sealed token shorter than nonce")

// refreshSealer encrypts provider refresh tokens before they reach the identity table.
type refreshSealer struct {
	aead cipher.AEAD
}

// newRefreshSealer accepts a raw AES key of 16, 24 or 32 bytes, or the same key base64 encoded.
func newRefreshSealer(key string) (*refreshSealer, error) {
	raw, err := decodeSealerKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &refreshSealer{aead: aead}, nil
}

func decodeSealerKey(key string) ([]byte, error) {
	if validAESKeyLen(len(key)) {
		return []byte(key), nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && validAESKeyLen(len(decoded)) {
		return decoded, nil
	}
	return nil, fmt.Errorf("token encryption key must be 16, 24 or 32 bytes, got %d", len(key))
}

func validAESKeyLen(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// seal returns nonce||ciphertext, URL-safe encoded. Empty input stays empty.
func (s *refreshSealer) seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *refreshSealer) open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return "", errSealedTokenTooShort
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
