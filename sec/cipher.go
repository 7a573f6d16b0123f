package sec

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// SealCipher encrypts small payloads (session cookies) with XChaCha20-Poly1305.
// Output is nonce||ciphertext, base64 raw-url encoded so it fits a cookie value.
// The associated data binds a sealed value to its purpose, e.g. the cookie name.
type SealCipher struct {
	aead cipher.AEAD
}

func NewSealCipher(key []byte) (*SealCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &SealCipher{aead: aead}, nil
}

// NewSealCipherFromBase64 takes the key as it is written in the config files
func NewSealCipherFromBase64(encodedKey string) (*SealCipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		if key, err = base64.RawURLEncoding.DecodeString(encodedKey); err != nil {
			return nil, fmt.Errorf("decode cipher key: %w", err)
		}
	}
	return NewSealCipher(key)
}

func (c *SealCipher) Seal(plaintext, ad []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(c.aead.Seal(nonce, nonce, plaintext, ad)), nil
}

func (c *SealCipher) Open(sealed string, ad []byte) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	n := c.aead.NonceSize()
	if len(data) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, data[:n], data[n:], ad)
}

// SealJSON marshals v and seals it
func (c *SealCipher) SealJSON(v any, ad []byte) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return c.Seal(b, ad)
}

// OpenJSON opens a sealed value into v
func (c *SealCipher) OpenJSON(sealed string, ad []byte, v any) error {
	b, err := c.Open(sealed, ad)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
