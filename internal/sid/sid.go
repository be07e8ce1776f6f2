// Package sid generates the stable identifiers of pages.
package sid

import (
	"fmt"
	"io"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Length is the length of every generated ID.
	Length = 12
	// threshold is the largest multiple of len(alphabet) not above 256.
	threshold = len(alphabet) * (256 / len(alphabet))
)

// New produces a base62 ID of Length characters from random bytes read from
// r. Bytes at or above 248 are rejected so every character is equally
// likely.
func New(r io.Reader) (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(out) < Length {
		n, err := io.ReadFull(r, buf[:Length-len(out)])
		for _, b := range buf[:n] {
			if int(b) < threshold {
				out = append(out, alphabet[int(b)%len(alphabet)])
			}
		}
		if err != nil && len(out) < Length {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
	}
	return string(out), nil
}

// Valid reports whether s has the shape of a generated ID.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
