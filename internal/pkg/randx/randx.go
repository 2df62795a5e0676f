/*
Package randx generates the random identifiers used by browser sessions.
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
	// Base62Chars is the alphabet for CSRF tokens (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of Base62Chars.
	Base62Len = int64(len(Base62Chars))

	// CSRFTokenLength is the length of a generated CSRF token.
	CSRFTokenLength = 32
)

// SessionID returns a fresh UUID v4 string for a browser session.
func SessionID() string {
	return uuid.New().String()
}

// IsValidSessionID reports whether id parses as a UUID.
func IsValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CSRFToken returns a Base62 token drawn from crypto/rand.
func CSRFToken() (string, error) {
	result := make([]byte, CSRFTokenLength)

	for i := range CSRFTokenLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for csrf token: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidCSRFToken checks length and alphabet.
func IsValidCSRFToken(token string) bool {
	if len(token) != CSRFTokenLength {
		return false
	}

	for _, char := range token {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
