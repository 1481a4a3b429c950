package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

var Weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

func ParseWeekday(raw string) (string, bool) {
	d := strings.ToUpper(strings.TrimSpace(raw))
	for _, w := range Weekdays {
		if w == d {
			return d, true
		}
	}
	return "", false
}

type MessMenu struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	HostelID  uint           `gorm:"not null;uniqueIndex:idx_menu_hostel_day" json:"hostelId"`
	Day       string         `gorm:"size:10;not null;uniqueIndex:idx_menu_hostel_day" json:"day"`
	Breakfast string         `gorm:"type:text" json:"breakfast"`
	Lunch     string         `gorm:"type:text" json:"lunch"`
	Dinner    string         `gorm:"type:text" json:"dinner"`
	Items     datatypes.JSON `json:"items,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
