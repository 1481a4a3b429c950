package models

import "time"

// Session tracks an issued access token so it can be listed and revoked.
type Session struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"userId"`
	TokenID    string     `gorm:"size:64;uniqueIndex" json:"-"`
	UserAgent  string     `gorm:"size:255" json:"userAgent"`
	IP         string     `gorm:"size:64" json:"ip"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
