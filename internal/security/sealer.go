// Package security seals provider credentials before they are persisted.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrOpenFailed indicates a sealed value could not be decrypted with the configured key.
var ErrOpenFailed = errors.New("security: open sealed value failed")

// Sealer encrypts values with a key derived from a salt key. A nil Sealer passes values through.
type Sealer struct {
	key    [32]byte
	random io.Reader
}

// NewSealer returns a Sealer for saltKey, or nil when saltKey is empty.
func NewSealer(saltKey string) *Sealer {
	trimmed := strings.TrimSpace(saltKey)
	if trimmed == "" {
		return nil
	}
	return &Sealer{key: sha256.Sum256([]byte(trimmed)), random: rand.Reader}
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil
}

// Seal encrypts plain and returns a URL-safe base64 string.
func (s *Sealer) Seal(plain string) (string, error) {
	if s == nil || plain == "" {
		return plain, nil
	}
	var nonce [nonceSize]byte
	if _, errRead := io.ReadFull(s.random, nonce[:]); errRead != nil {
		return "", fmt.Errorf("security: read nonce: %w", errRead)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if s == nil || sealed == "" {
		return sealed, nil
	}
	raw, errDecode := base64.URLEncoding.DecodeString(sealed)
	if errDecode != nil {
		return "", fmt.Errorf("security: decode sealed value: %w", errDecode)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpenFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}
