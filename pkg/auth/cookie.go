package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CookieCodec seals cookie values with ChaCha20-Poly1305. The encoded form is
// base64url(nonce || ciphertext || tag).
type CookieCodec struct {
	key []byte
}

// NewCookieCodec takes a 32 byte key
func NewCookieCodec(key []byte) (*CookieCodec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("cookie key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &CookieCodec{key: append([]byte(nil), key...)}, nil
}

// GenerateKey returns a random cookie key
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (c *CookieCodec) Encode(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decode returns ErrInvalidCredentials for anything that was not sealed with this key
func (c *CookieCodec) Decode(value string) ([]byte, error) {
	raw, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrInvalidCredentials
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return plaintext, nil
}
