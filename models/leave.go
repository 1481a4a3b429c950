package models

import (
	"time"

	"gorm.io/gorm"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

type LeaveType string

const (
	LeaveHome      LeaveType = "HOME"
	LeaveMedical   LeaveType = "MEDICAL"
	LeaveEmergency LeaveType = "EMERGENCY"
	LeaveOther     LeaveType = "OTHER"
)

func ParseLeaveType(raw string) (LeaveType, bool) {
	switch t := LeaveType(raw); t {
	case LeaveHome, LeaveMedical, LeaveEmergency, LeaveOther:
		return t, true
	case "":
		return LeaveOther, true
	}
	return "", false
}

// LeaveRequest keeps the leave window and reason in typed columns.
type LeaveRequest struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     uint        `gorm:"index;not null" json:"userId"`
	HostelID   *uint       `gorm:"index" json:"hostelId,omitempty"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Reason     string      `gorm:"type:text" json:"reason"`
	Type       LeaveType   `gorm:"size:20;default:OTHER" json:"type"`
	Status     LeaveStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	ReviewedBy *uint       `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time  `json:"reviewedAt,omitempty"`
	ReviewNote string      `gorm:"type:text" json:"reviewNote,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
