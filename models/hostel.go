package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Hostel struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Address  string `gorm:"type:text" json:"address"`
	City     string `gorm:"size:100" json:"city"`
	Phone    string `gorm:"size:50" json:"phone"`
	Email    string `gorm:"size:150" json:"email"`
	Capacity int    `json:"capacity"`

	Amenities datatypes.JSON `json:"amenities,omitempty"`
	// Wardens holds the ids of the WARDEN users managing this hostel.
	Wardens datatypes.JSON `json:"wardens,omitempty"`

	MonthlyRent float64 `json:"monthlyRent"`
	NightlyRent float64 `json:"nightlyRent"`

	CleaningIntervalHours int        `json:"cleaningIntervalHours"`
	LaundryIntervalHours  int        `json:"laundryIntervalHours"`
	LastCleaningAt        *time.Time `json:"lastCleaningAt,omitempty"`
	LastLaundryAt         *time.Time `json:"lastLaundryAt,omitempty"`

	Rooms []Room `gorm:"foreignKey:HostelID" json:"rooms,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// WardenIDs decodes the Wardens column; a malformed value reads as empty.
func (h *Hostel) WardenIDs() []uint {
	if len(h.Wardens) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(h.Wardens, &ids); err != nil {
		return nil
	}
	return ids
}

func (h *Hostel) SetWardenIDs(ids []uint) {
	if ids == nil {
		ids = []uint{}
	}
	b, _ := json.Marshal(ids)
	h.Wardens = datatypes.JSON(b)
}

func (h *Hostel) HasWarden(userID uint) bool {
	for _, id := range h.WardenIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
