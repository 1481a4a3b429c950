package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	passwordCharset  = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateSecureToken returns length random bytes hex-encoded.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// randomString draws n characters from charset using crypto/rand without modulo bias.
func randomString(charset string, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid length")
	}
	var sb strings.Builder
	max := big.NewInt(int64(len(charset)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(charset[num.Int64()])
	}
	return sb.String(), nil
}

// GenerateTemporaryPassword is the one-off credential given to auto-provisioned users.
func GenerateTemporaryPassword() (string, error) {
	return randomString(passwordCharset, 12)
}

// GenerateReferenceCode returns a booking reference like "BK-20261015-7KQ2XM".
func GenerateReferenceCode(now time.Time) (string, error) {
	suffix, err := randomString(referenceCharset, 6)
	if err != nil {
		return "", err
	}
	return "BK-" + now.Format("20060102") + "-" + suffix, nil
}

// NewRequestID returns a fresh uuid for request correlation and session ids.
func NewRequestID() string {
	return uuid.NewString()
}

// MaskEmail returns masked email for safe display
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local := parts[0]
	domain := parts[1]

	maskedLocal := local
	if len(local) > 2 {
		maskedLocal = local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:]
	} else if len(local) == 2 {
		maskedLocal = local[:1] + "*"
	}

	domainParts := strings.Split(domain, ".")
	if len(domainParts) >= 2 && len(domainParts[0]) > 1 {
		domainParts[0] = domainParts[0][:1] + strings.Repeat("*", len(domainParts[0])-1)
	}

	return maskedLocal + "@" + strings.Join(domainParts, ".")
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
