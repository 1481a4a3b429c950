package models

import (
	"time"

	"gorm.io/gorm"
)

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "PENDING"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
)

func ParseMaintenanceStatus(raw string) (MaintenanceStatus, bool) {
	switch s := MaintenanceStatus(raw); s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted:
		return s, true
	}
	return "", false
}

type MaintenanceRequest struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	HostelID    uint              `gorm:"index;not null" json:"hostelId"`
	RoomID      *uint             `gorm:"index" json:"roomId,omitempty"`
	ReportedBy  uint              `json:"reportedBy"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Priority    Priority          `gorm:"size:20;default:MEDIUM" json:"priority"`
	Status      MaintenanceStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
