package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Notice struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	HostelID  *uint    `gorm:"index" json:"hostelId,omitempty"` // nil = every hostel
	Title     string   `gorm:"size:255;not null" json:"title"`
	Content   string   `gorm:"type:text" json:"content"`
	Priority  Priority `gorm:"size:20;default:MEDIUM" json:"priority"`
	// Audience is a JSON array of roles; empty means everyone.
	Audience  datatypes.JSON `json:"audience,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	CreatedBy uint           `json:"createdBy"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notice) AudienceRoles() []Role {
	if len(n.Audience) == 0 {
		return nil
	}
	var roles []Role
	if err := json.Unmarshal(n.Audience, &roles); err != nil {
		return nil
	}
	return roles
}

// VisibleTo reports whether a user with role r should see the notice.
func (n *Notice) VisibleTo(r Role) bool {
	roles := n.AudienceRoles()
	if len(roles) == 0 || r == RoleAdmin {
		return true
	}
	for _, a := range roles {
		if a == r {
			return true
		}
	}
	return false
}
