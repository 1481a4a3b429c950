package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomCleaning    RoomStatus = "CLEANING"
)

type Room struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	HostelID   uint   `gorm:"not null;uniqueIndex:idx_hostel_room_number" json:"hostelId"`
	RoomNumber string `gorm:"type:varchar(50);not null;uniqueIndex:idx_hostel_room_number" json:"roomNumber"`
	Floor      string `gorm:"type:varchar(10)" json:"floor"`
	Type       string `gorm:"size:50" json:"type"`
	Capacity   int    `gorm:"not null;default:1" json:"capacity"`

	Status RoomStatus `gorm:"size:20;index;default:AVAILABLE" json:"status"`

	// MonthlyRent is the one canonical rent column.
	MonthlyRent float64        `json:"monthlyRent"`
	NightlyRent float64        `json:"nightlyRent"`
	Amenities   datatypes.JSON `json:"amenities,omitempty"`

	Hostel *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
