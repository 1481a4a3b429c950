package models

import (
	"time"

	"gorm.io/gorm"
)

type SalaryStatus string

const (
	SalaryPending SalaryStatus = "PENDING"
	SalaryPaid    SalaryStatus = "PAID"
)

// Salary is a monthly payroll row for a STAFF user.
type Salary struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	StaffID     uint         `gorm:"not null;uniqueIndex:idx_salary_staff_month" json:"staffId"`
	HostelID    *uint        `gorm:"index" json:"hostelId,omitempty"`
	Month       string       `gorm:"size:7;not null;uniqueIndex:idx_salary_staff_month" json:"month"` // YYYY-MM
	BasicSalary float64      `json:"basicSalary"`
	Allowances  float64      `json:"allowances"`
	Deductions  float64      `json:"deductions"`
	NetAmount   float64      `json:"netAmount"`
	Status      SalaryStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	PaidAt      *time.Time   `json:"paidAt,omitempty"`
	Notes       string       `gorm:"type:text" json:"notes,omitempty"`

	Staff *User `gorm:"foreignKey:StaffID" json:"staff,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// WardenPayment is the warden counterpart of Salary.
type WardenPayment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	WardenID    uint         `gorm:"not null;uniqueIndex:idx_warden_month" json:"wardenId"`
	HostelID    *uint        `gorm:"index" json:"hostelId,omitempty"`
	Month       string       `gorm:"size:7;not null;uniqueIndex:idx_warden_month" json:"month"`
	BasicSalary float64      `json:"basicSalary"`
	Allowances  float64      `json:"allowances"`
	Deductions  float64      `json:"deductions"`
	NetAmount   float64      `json:"netAmount"`
	Status      SalaryStatus `gorm:"size:20;index;default:PENDING" json:"status"`
	PaidAt      *time.Time   `json:"paidAt,omitempty"`
	Notes       string       `gorm:"type:text" json:"notes,omitempty"`

	Warden *User `gorm:"foreignKey:WardenID" json:"warden,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
