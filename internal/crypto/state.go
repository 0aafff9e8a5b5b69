package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const stateBytes = 32

var ErrInvalidState = errors.New("invalid oauth state")

// NewState returns a random URL-safe value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StateSigner authenticates OAuth state values stored client side.
type StateSigner struct {
	key []byte
}

// NewStateSigner derives a dedicated HMAC key from secret so the token
// signing key is never used for anything else.
func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("oauth-state")), key); err != nil {
		return nil, fmt.Errorf("deriving state key: %w", err)
	}
	return &StateSigner{key: key}, nil
}

// Sign returns state with its MAC appended.
func (s *StateSigner) Sign(state string) string {
	return state + "." + base64.RawURLEncoding.EncodeToString(s.mac(state))
}

// Verify checks a value produced by Sign and returns the bare state.
func (s *StateSigner) Verify(signed string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", ErrInvalidState
	}

	state, sig := signed[:i], signed[i+1:]
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, s.mac(state)) {
		return "", ErrInvalidState
	}
	return state, nil
}

func (s *StateSigner) mac(state string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(state))
	return h.Sum(nil)
}
