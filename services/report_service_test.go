package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hostel-backend/models"
)

func TestCalculateChange(t *testing.T) {
	assert.Equal(t, 0.0, CalculateChange(1234, 0))
	assert.Equal(t, 0.0, CalculateChange(0, 0))
	assert.Equal(t, 50.0, CalculateChange(150, 100))
	assert.Equal(t, -50.0, CalculateChange(50, 100))
	assert.Equal(t, -66.67, CalculateChange(1, 3))
	assert.Equal(t, -100.0, CalculateChange(0, 80))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func seedPaid(t *testing.T, db *gorm.DB, hostelID, userID uint, amount float64, status models.PaymentStatus, paidAt time.Time) {
	t.Helper()
	p := &models.Payment{UserID: userID, HostelID: &hostelID, Amount: amount, Type: models.PaymentRent, Status: status}
	if status == models.PaymentPaid {
		p.PaidAt = &paidAt
	}
	require.NoError(t, db.Create(p).Error)
}

func seedExpense(t *testing.T, db *gorm.DB, hostelID uint, amount float64, status models.ExpenseStatus, date time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Expense{HostelID: hostelID, Title: "Supplies", Category: "utilities", Amount: amount, Status: status, Date: date}).Error)
}

// reportFixture builds two months of activity for one hostel with four beds.
func reportFixture(t *testing.T, db *gorm.DB) (*models.Hostel, *models.Hostel) {
	h := seedHostel(t, db, "Alpha")
	other := seedHostel(t, db, "Beta")
	r1 := seedRoom(t, db, h.ID, "1", 2)
	seedRoom(t, db, h.ID, "2", 2)
	r3 := seedRoom(t, db, other.ID, "1", 1)
	u := seedUser(t, db, "report@example.com", models.RoleResident, &h.ID)

	seedPaid(t, db, h.ID, u.ID, 1000, models.PaymentPaid, day(2026, 10, 3))
	seedPaid(t, db, h.ID, u.ID, 500, models.PaymentPaid, day(2026, 10, 9))
	seedPaid(t, db, h.ID, u.ID, 700, models.PaymentPending, day(2026, 10, 9))
	seedPaid(t, db, h.ID, u.ID, 1000, models.PaymentPaid, day(2026, 9, 20))
	seedPaid(t, db, other.ID, u.ID, 400, models.PaymentPaid, day(2026, 10, 1))

	seedExpense(t, db, h.ID, 300, models.ExpenseApproved, day(2026, 10, 5))
	seedExpense(t, db, h.ID, 999, models.ExpensePending, day(2026, 10, 5))
	seedExpense(t, db, h.ID, 200, models.ExpensePaid, day(2026, 9, 12))
	seedExpense(t, db, other.ID, 100, models.ExpenseApproved, day(2026, 10, 2))

	seedBooking(t, db, r1, u.ID, models.BookingCheckedIn, day(2026, 9, 1), nil)
	seedBooking(t, db, r1, u.ID, models.BookingConfirmed, day(2026, 9, 15), nil)
	seedBooking(t, db, r1, u.ID, models.BookingCancelled, day(2026, 9, 15), nil)
	seedBooking(t, db, r3, u.ID, models.BookingCheckedIn, day(2026, 10, 1), nil)
	return h, other
}

func TestReportService_Summary(t *testing.T) {
	db := setupTestDB(t)
	h, _ := reportFixture(t, db)
	svc := NewReportService(db)

	s, err := svc.Summary(context.Background(), &h.ID, day(2026, 10, 15))
	require.NoError(t, err)
	assert.Equal(t, "2026-10", s.Month)

	assert.Equal(t, Metric{Current: 1500, Last: 1000, Change: 50}, s.Revenue)
	assert.Equal(t, Metric{Current: 300, Last: 200, Change: 50}, s.Expenses)
	assert.Equal(t, Metric{Current: 1200, Last: 800, Change: 50}, s.Profit)
	assert.Equal(t, Metric{Current: 50, Last: 50, Change: 0}, s.Occupancy)
}

func TestReportService_SummaryWithoutHistory(t *testing.T) {
	db := setupTestDB(t)
	h := seedHostel(t, db, "Fresh")
	u := seedUser(t, db, "fresh@example.com", models.RoleResident, &h.ID)
	seedPaid(t, db, h.ID, u.ID, 800, models.PaymentPaid, day(2026, 10, 2))

	s, err := NewReportService(db).Summary(context.Background(), &h.ID, day(2026, 10, 15))
	require.NoError(t, err)
	assert.Equal(t, 800.0, s.Revenue.Current)
	assert.Equal(t, 0.0, s.Revenue.Change, "no previous month means no change")
	assert.Equal(t, 0.0, s.Occupancy.Current, "no beds reads as zero occupancy")
}

func TestReportService_Trend(t *testing.T) {
	db := setupTestDB(t)
	h, _ := reportFixture(t, db)
	svc := NewReportService(db)

	points, err := svc.Trend(context.Background(), &h.ID, 3, day(2026, 10, 15))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, TrendPoint{Month: "2026-08"}, points[0])
	assert.Equal(t, TrendPoint{Month: "2026-09", Revenue: 1000, Expenses: 200, Profit: 800}, points[1])
	assert.Equal(t, TrendPoint{Month: "2026-10", Revenue: 1500, Expenses: 300, Profit: 1200}, points[2])

	all, err := svc.Trend(context.Background(), nil, 0, day(2026, 10, 15))
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, 1900.0, all[5].Revenue)

	rows := TrendRows(points)
	require.Len(t, rows, 3)
	assert.Equal(t, len(ReportCSVHeader), len(rows[2]))
	assert.Equal(t, "2026-10", rows[2][0])
}

func TestReportService_HostelBreakdown(t *testing.T) {
	db := setupTestDB(t)
	h, other := reportFixture(t, db)

	out, err := NewReportService(db).HostelBreakdown(context.Background(), day(2026, 10, 15))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, h.ID, out[0].HostelID)
	assert.Equal(t, 1500.0, out[0].Revenue)
	assert.Equal(t, 300.0, out[0].Expenses)
	assert.Equal(t, 1200.0, out[0].Profit)
	assert.Equal(t, 50.0, out[0].Occupancy)

	assert.Equal(t, other.ID, out[1].HostelID)
	assert.Equal(t, 400.0, out[1].Revenue)
	assert.Equal(t, 300.0, out[1].Profit)
	assert.Equal(t, 100.0, out[1].Occupancy)
}
