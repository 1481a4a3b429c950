package models

import "time"

type AutomationKind string

const (
	AutomationCleaning AutomationKind = "CLEANING"
	AutomationLaundry  AutomationKind = "LAUNDRY"
)

type AutomationLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	HostelID  uint           `gorm:"index;not null" json:"hostelId"`
	Kind      AutomationKind `gorm:"size:20;index" json:"kind"`
	RanAt     time.Time      `gorm:"index" json:"ranAt"`
	Details   string         `gorm:"type:text" json:"details"`
	CreatedAt time.Time      `json:"createdAt"`
}
