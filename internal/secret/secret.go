// Package secret seals credentials and API keys before they are stored and
// produces the redacted form shown to users.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// ErrOpen is returned when a sealed value cannot be decrypted with the key.
var ErrOpen = errors.New("open sealed value")

// Sealer encrypts values at rest with a symmetric key.
type Sealer struct {
	key    [keySize]byte
	random io.Reader
}

// ParseKey accepts a 32-byte key encoded as standard base64 or hex.
func ParseKey(encoded string) ([keySize]byte, error) {
	var key [keySize]byte
	encoded = strings.TrimSpace(encoded)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != keySize {
		raw, err = hex.DecodeString(encoded)
		if err != nil {
			return key, fmt.Errorf("decode secret key: want 32 bytes as base64 or hex")
		}
	}
	if len(raw) != keySize {
		return key, fmt.Errorf("unexpected secret key length: %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func NewSealer(key [keySize]byte) *Sealer {
	return NewSealerWithReader(key, rand.Reader)
}

// NewSealerWithReader is NewSealer drawing nonces from random.
func NewSealerWithReader(key [keySize]byte, random io.Reader) *Sealer {
	return &Sealer{key: key, random: random}
}

// FromConfig builds a sealer from an encoded key. An empty key yields a
// random one, reported through ephemeral; values sealed with it do not
// survive a restart.
func FromConfig(encoded string) (s *Sealer, ephemeral bool, err error) {
	if strings.TrimSpace(encoded) == "" {
		key, err := GenerateKey()
		if err != nil {
			return nil, false, err
		}
		return NewSealer(key), true, nil
	}
	key, err := ParseKey(encoded)
	if err != nil {
		return nil, false, err
	}
	return NewSealer(key), false, nil
}

func GenerateKey() ([keySize]byte, error) {
	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("generate secret key: %w", err)
	}
	return key, nil
}

// EncodeKey renders a key in the form ParseKey accepts.
func EncodeKey(key [keySize]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// Seal encrypts plaintext with a random nonce and returns base64(nonce||box).
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.random, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. It is used to hand API keys to
// outbound clients; nothing renders its result.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrOpen)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", fmt.Errorf("%w: authentication failed", ErrOpen)
	}
	return string(plain), nil
}

// Redact returns the display form of a secret. Lengths count runes.
func Redact(secret string) string {
	r := []rune(secret)
	switch n := len(r); {
	case n <= 8:
		return "****"
	case n <= 16:
		return string(r[:1]) + "..." + string(r[n-1:])
	default:
		return string(r[:4]) + "..." + string(r[n-4:])
	}
}

// SealedKey reports whether a setting key holds a secret value.
func SealedKey(key string) bool {
	return strings.HasSuffix(key, "_api_key") || strings.HasSuffix(key, "_password") || strings.HasSuffix(key, "_token")
}
