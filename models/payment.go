package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch s := PaymentStatus(raw); s {
	case PaymentPending, PaymentPaid, PaymentPartial, PaymentOverdue, PaymentRefunded, PaymentCancelled:
		return s, true
	}
	return "", false
}

type PaymentType string

const (
	PaymentRent            PaymentType = "RENT"
	PaymentSecurityDeposit PaymentType = "SECURITY_DEPOSIT"
	PaymentMess            PaymentType = "MESS"
	PaymentFine            PaymentType = "FINE"
	PaymentOther           PaymentType = "OTHER"
)

func ParsePaymentType(raw string) (PaymentType, bool) {
	switch t := PaymentType(raw); t {
	case PaymentRent, PaymentSecurityDeposit, PaymentMess, PaymentFine, PaymentOther:
		return t, true
	}
	return "", false
}

type Payment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	BookingID *uint         `gorm:"index" json:"bookingId,omitempty"`
	UserID    uint          `gorm:"index;not null" json:"userId"`
	HostelID  *uint         `gorm:"index" json:"hostelId,omitempty"`
	Amount    float64       `gorm:"not null" json:"amount"`
	Type      PaymentType   `gorm:"size:30;default:RENT" json:"type"`
	Status    PaymentStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	Method    string        `gorm:"size:50" json:"method,omitempty"`
	DueDate   *time.Time    `json:"dueDate,omitempty"`
	PaidAt    *time.Time    `gorm:"index" json:"paidAt,omitempty"`
	Notes     string        `gorm:"type:text" json:"notes,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
