package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload. ID (jti) names the backing session row.
type Claims struct {
	Role     string `json:"role"`
	HostelID *uint  `json:"hostel_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID decodes the numeric subject.
func (c Claims) UserID() (uint, error) {
	n, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid subject")
	}
	return uint(n), nil
}

// IssueToken signs an HS256 access token.
func IssueToken(userID uint, role string, hostelID *uint, sessionID, issuer, key string, expires time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     role,
		HostelID: hostelID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// ParseToken validates signature, expiry and issuer.
func ParseToken(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.ID == "" {
		return Claims{}, errors.New("missing token id")
	}
	return *claims, nil
}
