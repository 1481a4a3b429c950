package models

import (
	"time"

	"gorm.io/gorm"
)

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "PENDING"
	ExpenseApproved ExpenseStatus = "APPROVED"
	ExpenseRejected ExpenseStatus = "REJECTED"
	ExpensePaid     ExpenseStatus = "PAID"
)

func ParseExpenseStatus(raw string) (ExpenseStatus, bool) {
	switch s := ExpenseStatus(raw); s {
	case ExpensePending, ExpenseApproved, ExpenseRejected, ExpensePaid:
		return s, true
	}
	return "", false
}

type Expense struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	HostelID    uint          `gorm:"index;not null" json:"hostelId"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Category    string        `gorm:"size:100;index" json:"category"`
	Amount      float64       `gorm:"not null" json:"amount"`
	Date        time.Time     `gorm:"index" json:"date"`
	Status      ExpenseStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	SubmittedBy uint          `json:"submittedBy"`
	Notes       string        `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
