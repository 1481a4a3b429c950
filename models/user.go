package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleWarden   Role = "WARDEN"
	RoleStaff    Role = "STAFF"
	RoleResident Role = "RESIDENT"
	RoleGuest    Role = "GUEST"
)

// ParseRole normalises a role name coming from a request or a token.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleWarden:
		return RoleWarden, true
	case RoleStaff:
		return RoleStaff, true
	case RoleResident:
		return RoleResident, true
	case RoleGuest:
		return RoleGuest, true
	}
	return "", false
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255" json:"name"`
	Email    string `gorm:"uniqueIndex;size:191" json:"email"`
	Phone    string `gorm:"size:50" json:"phone"`
	CNIC     string `gorm:"column:cnic;size:50" json:"cnic"`
	Address  string `gorm:"type:text" json:"address"`
	Role     Role   `gorm:"size:20;index;default:GUEST" json:"role"`
	HostelID *uint  `gorm:"index" json:"hostelId,omitempty"`

	Password           string     `gorm:"size:255" json:"-"` // bcrypt hash
	MustChangePassword bool       `gorm:"default:false" json:"mustChangePassword"`
	ResetToken         *string    `gorm:"size:128;index" json:"-"`
	ResetTokenExpires  *time.Time `json:"-"`

	ResidentProfile *ResidentProfile `gorm:"foreignKey:UserID" json:"residentProfile,omitempty"`
	StaffProfile    *StaffProfile    `gorm:"foreignKey:UserID" json:"staffProfile,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type ResidentProfile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex" json:"userId"`
	GuardianName     string    `gorm:"size:255" json:"guardianName"`
	GuardianPhone    string    `gorm:"size:50" json:"guardianPhone"`
	EmergencyContact string    `gorm:"size:100" json:"emergencyContact"`
	Address          string    `gorm:"type:text" json:"address"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type StaffProfile struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex" json:"userId"`
	Designation string     `gorm:"size:100" json:"designation"`
	BaseSalary  float64    `json:"baseSalary"`
	JoinedAt    *time.Time `json:"joinedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
