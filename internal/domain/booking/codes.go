package booking

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const (
	AccessTokenLength = 32
	codeSuffixLength  = 4

	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// randomString draws n symbols uniformly from alphabet using crypto/rand.
// Bytes at or above the largest multiple of len(alphabet) are discarded to avoid modulo bias.
func randomString(alphabet string, n int) (string, error) {
	size := len(alphabet)
	limit := 256 - (256 % size)

	var sb strings.Builder
	sb.Grow(n)
	buf := make([]byte, n+n/2)
	for sb.Len() < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			sb.WriteByte(alphabet[int(b)%size])
			if sb.Len() == n {
				break
			}
		}
	}
	return sb.String(), nil
}

// NewAccessToken returns a 32-symbol capability token for anonymous booking access.
func NewAccessToken() (string, error) {
	return randomString(tokenAlphabet, AccessTokenLength)
}

// NewBookingCode formats PREFIX-YYYYMMDD-XXXX from the event date.
func NewBookingCode(prefix string, eventDate time.Time) (string, error) {
	suffix, err := randomString(codeAlphabet, codeSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", prefix, eventDate.Format("20060102"), suffix), nil
}
