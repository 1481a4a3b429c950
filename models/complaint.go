package models

import (
	"time"

	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "OPEN"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)

func ParseComplaintStatus(raw string) (ComplaintStatus, bool) {
	switch s := ComplaintStatus(raw); s {
	case ComplaintOpen, ComplaintInProgress, ComplaintResolved, ComplaintClosed:
		return s, true
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, true
	case "":
		return PriorityMedium, true
	}
	return "", false
}

type Complaint struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	HostelID    uint            `gorm:"index;not null" json:"hostelId"`
	RoomID      *uint           `gorm:"index" json:"roomId,omitempty"`
	UserID      uint            `gorm:"index;not null" json:"userId"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"size:100" json:"category"`
	Priority    Priority        `gorm:"size:20;default:MEDIUM" json:"priority"`
	Status      ComplaintStatus `gorm:"size:20;index;default:OPEN" json:"status"`
	AssignedTo  *uint           `json:"assignedTo,omitempty"`
	Resolution  string          `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedAt  *time.Time      `json:"resolvedAt,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
