package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// InactiveBookingStatuses no longer hold a bed.
var InactiveBookingStatuses = []BookingStatus{BookingCancelled, BookingCheckedOut}

// IsActive reports whether a booking in this status occupies capacity.
func (s BookingStatus) IsActive() bool {
	return s != BookingCancelled && s != BookingCheckedOut
}

func ParseBookingStatus(raw string) (BookingStatus, bool) {
	switch s := BookingStatus(raw); s {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled:
		return s, true
	}
	return "", false
}

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ReferenceCode string        `gorm:"size:64;uniqueIndex" json:"referenceCode"`
	UserID        uint          `gorm:"index;not null" json:"userId"`
	RoomID        uint          `gorm:"index;not null" json:"roomId"`
	HostelID      uint          `gorm:"index" json:"hostelId"`
	Status        BookingStatus `gorm:"size:20;index;default:PENDING" json:"status"`

	CheckIn         *time.Time `json:"checkIn,omitempty"`
	CheckOut        *time.Time `json:"checkOut,omitempty"`
	TotalAmount     float64    `json:"totalAmount"`
	SecurityDeposit float64    `json:"securityDeposit"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Room     *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Payments []Payment `gorm:"foreignKey:BookingID" json:"payments,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
