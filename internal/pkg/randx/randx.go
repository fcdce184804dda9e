/*
Package randx generates random identifiers: OAuth state nonces and message ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet used for state nonces.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// StateLength is the length of an OAuth state nonce.
	StateLength = 32
)

var base62Len = big.NewInt(int64(len(Base62Chars)))

// Base62 returns n characters from crypto/rand.
func Base62(n int) (string, error) {
	out := make([]byte, n)
	for i := range n {
		idx, err := rand.Int(rand.Reader, base62Len)
		if err != nil {
			return "", fmt.Errorf("randx: reading random index: %w", err)
		}
		out[i] = Base62Chars[idx.Int64()]
	}
	return string(out), nil
}

// OAuthState returns a fresh nonce for the federated sign-in round trip.
func OAuthState() (string, error) {
	return Base62(StateLength)
}

// IsValidState reports whether s has the shape OAuthState produces.
func IsValidState(s string) bool {
	if len(s) != StateLength {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(Base62Chars, c) {
			return false
		}
	}
	return true
}

// MessageID returns a UUIDv4 string for live-socket frames.
func MessageID() string {
	return uuid.NewString()
}
