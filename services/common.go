package services

import (
	"context"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"hostel-backend/models"
	"hostel-backend/utils"
)

// Notifier is the best-effort outbound email channel.
type Notifier interface {
	Notify(ctx context.Context, m utils.Mail)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, utils.Mail) {}

// Page is the pagination window for list endpoints.
type Page struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

const maxPageSize = 200

func (p Page) apply(q *gorm.DB) *gorm.DB {
	size := p.PageSize
	if size <= 0 {
		size = 50
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return q.Limit(size).Offset((page - 1) * size)
}

// isDuplicate recognises unique-key violations from every supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return false
}

// notFoundOr maps gorm.ErrRecordNotFound to nf and passes other errors through.
func notFoundOr(err error, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUint(v uint) *uint { return &v }

// monthRange returns [first day of t's month, first day of next month).
func monthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Actor is the authenticated caller a service call is made on behalf of.
type Actor struct {
	ID       uint
	Role     models.Role
	HostelID *uint
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Manages reports whether the actor can administer records of hostelID.
func (a Actor) Manages(hostelID uint) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == models.RoleWarden && a.HostelID != nil && *a.HostelID == hostelID
}

// ManagesRecord is Manages for records whose hostel is optional; those without
// one belong to admins.
func (a Actor) ManagesRecord(hostelID *uint) bool {
	if hostelID == nil {
		return a.IsAdmin()
	}
	return a.Manages(*hostelID)
}

// IsResidentLike covers callers who only ever see their own records.
func (a Actor) IsResidentLike() bool {
	return a.Role == models.RoleResident || a.Role == models.RoleGuest
}

// hostelScope narrows q to the actor's hostel; a non-admin without one sees nothing.
func (a Actor) hostelScope(q *gorm.DB, col string) *gorm.DB {
	if a.IsAdmin() {
		return q
	}
	if a.HostelID == nil {
		return q.Where("1 = 0")
	}
	return q.Where(col+" = ?", *a.HostelID)
}
