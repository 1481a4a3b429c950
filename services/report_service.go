package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"hostel-backend/models"
	"hostel-backend/utils"
)

// ReportService is the read-only aggregation path behind the dashboards.
type ReportService struct {
	DB *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db}
}

// CalculateChange is the percent change from last to current, 0 when last is 0.
func CalculateChange(current, last float64) float64 {
	if last == 0 {
		return 0
	}
	return round2((current - last) / last * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Metric struct {
	Current float64 `json:"current"`
	Last    float64 `json:"last"`
	Change  float64 `json:"change"`
}

func newMetric(current, last float64) Metric {
	return Metric{Current: round2(current), Last: round2(last), Change: CalculateChange(current, last)}
}

type Summary struct {
	HostelID  *uint  `json:"hostelId,omitempty"`
	Month     string `json:"month"`
	Revenue   Metric `json:"revenue"`
	Expenses  Metric `json:"expenses"`
	Profit    Metric `json:"profit"`
	Occupancy Metric `json:"occupancy"`
}

var countedExpenseStatuses = []models.ExpenseStatus{models.ExpenseApproved, models.ExpensePaid}

func (s *ReportService) revenue(db *gorm.DB, hostelID *uint, from, to time.Time) (float64, error) {
	q := db.Model(&models.Payment{}).
		Where("status = ? AND paid_at >= ? AND paid_at < ?", models.PaymentPaid, from, to)
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var total float64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

func (s *ReportService) expenses(db *gorm.DB, hostelID *uint, from, to time.Time) (float64, error) {
	q := db.Model(&models.Expense{}).
		Where("status IN ? AND date >= ? AND date < ?", countedExpenseStatuses, from, to)
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var total float64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// occupancy is the share of beds held by bookings that overlapped [from, to).
func (s *ReportService) occupancy(db *gorm.DB, hostelID *uint, from, to time.Time) (float64, error) {
	rooms := db.Model(&models.Room{})
	if hostelID != nil {
		rooms = rooms.Where("hostel_id = ?", *hostelID)
	}
	var beds int64
	if err := rooms.Select("COALESCE(SUM(capacity), 0)").Scan(&beds).Error; err != nil {
		return 0, fmt.Errorf("sum beds: %w", err)
	}
	if beds == 0 {
		return 0, nil
	}

	q := db.Model(&models.Booking{}).
		Where("status <> ?", models.BookingCancelled).
		Where("check_in < ?", to).
		Where("check_out IS NULL OR check_out >= ?", from)
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var held int64
	if err := q.Count(&held).Error; err != nil {
		return 0, fmt.Errorf("count occupied beds: %w", err)
	}
	if held > beds {
		held = beds
	}
	return float64(held) / float64(beds) * 100, nil
}

type periodFigures struct {
	revenue, expenses, occupancy float64
}

func (s *ReportService) period(db *gorm.DB, hostelID *uint, from, to time.Time) (periodFigures, error) {
	var p periodFigures
	var err error
	if p.revenue, err = s.revenue(db, hostelID, from, to); err != nil {
		return p, err
	}
	if p.expenses, err = s.expenses(db, hostelID, from, to); err != nil {
		return p, err
	}
	if p.occupancy, err = s.occupancy(db, hostelID, from, to); err != nil {
		return p, err
	}
	return p, nil
}

// Summary compares the month containing now with the month before.
func (s *ReportService) Summary(ctx context.Context, hostelID *uint, now time.Time) (*Summary, error) {
	db := s.DB.WithContext(ctx)
	curFrom, curTo := monthRange(now)
	lastFrom := curFrom.AddDate(0, -1, 0)

	cur, err := s.period(db, hostelID, curFrom, curTo)
	if err != nil {
		return nil, err
	}
	last, err := s.period(db, hostelID, lastFrom, curFrom)
	if err != nil {
		return nil, err
	}

	return &Summary{
		HostelID:  hostelID,
		Month:     curFrom.Format("2006-01"),
		Revenue:   newMetric(cur.revenue, last.revenue),
		Expenses:  newMetric(cur.expenses, last.expenses),
		Profit:    newMetric(cur.revenue-cur.expenses, last.revenue-last.expenses),
		Occupancy: newMetric(cur.occupancy, last.occupancy),
	}, nil
}

type TrendPoint struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

type datedAmount struct {
	At     time.Time
	Amount float64
}

// Trend returns the trailing months ending with the month of now, oldest first.
// Each series is one range query bucketed by month in memory.
func (s *ReportService) Trend(ctx context.Context, hostelID *uint, months int, now time.Time) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}
	if months > 24 {
		months = 24
	}
	db := s.DB.WithContext(ctx)
	curFrom, curTo := monthRange(now)
	from := curFrom.AddDate(0, -(months - 1), 0)

	points := make([]TrendPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		key := from.AddDate(0, i, 0).Format("2006-01")
		points[i].Month = key
		index[key] = i
	}

	payQ := db.Model(&models.Payment{}).
		Select("paid_at AS at, amount").
		Where("status = ? AND paid_at >= ? AND paid_at < ?", models.PaymentPaid, from, curTo)
	expQ := db.Model(&models.Expense{}).
		Select("date AS at, amount").
		Where("status IN ? AND date >= ? AND date < ?", countedExpenseStatuses, from, curTo)
	if hostelID != nil {
		payQ = payQ.Where("hostel_id = ?", *hostelID)
		expQ = expQ.Where("hostel_id = ?", *hostelID)
	}

	var paid, spent []datedAmount
	if err := payQ.Scan(&paid).Error; err != nil {
		return nil, fmt.Errorf("load revenue series: %w", err)
	}
	if err := expQ.Scan(&spent).Error; err != nil {
		return nil, fmt.Errorf("load expense series: %w", err)
	}

	for _, p := range paid {
		if i, ok := index[p.At.In(now.Location()).Format("2006-01")]; ok {
			points[i].Revenue += p.Amount
		}
	}
	for _, e := range spent {
		if i, ok := index[e.At.In(now.Location()).Format("2006-01")]; ok {
			points[i].Expenses += e.Amount
		}
	}
	for i := range points {
		points[i].Revenue = round2(points[i].Revenue)
		points[i].Expenses = round2(points[i].Expenses)
		points[i].Profit = round2(points[i].Revenue - points[i].Expenses)
	}
	return points, nil
}

type HostelReport struct {
	HostelID   uint    `json:"hostelId"`
	HostelName string  `json:"hostelName"`
	Revenue    float64 `json:"revenue"`
	Expenses   float64 `json:"expenses"`
	Profit     float64 `json:"profit"`
	Occupancy  float64 `json:"occupancy"`
}

type hostelSum struct {
	HostelID uint
	Total    float64
}

func sumsByHostel(q *gorm.DB) (map[uint]float64, error) {
	var rows []hostelSum
	if err := q.Select("hostel_id, COALESCE(SUM(amount), 0) AS total").Group("hostel_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]float64, len(rows))
	for _, r := range rows {
		out[r.HostelID] = r.Total
	}
	return out, nil
}

// HostelBreakdown reports the current month per hostel using grouped queries.
func (s *ReportService) HostelBreakdown(ctx context.Context, now time.Time) ([]HostelReport, error) {
	db := s.DB.WithContext(ctx)
	from, to := monthRange(now)

	var hostels []models.Hostel
	if err := db.Select("id", "name").Order("name").Find(&hostels).Error; err != nil {
		return nil, fmt.Errorf("list hostels: %w", err)
	}

	revenue, err := sumsByHostel(db.Model(&models.Payment{}).
		Where("status = ? AND paid_at >= ? AND paid_at < ?", models.PaymentPaid, from, to))
	if err != nil {
		return nil, fmt.Errorf("revenue by hostel: %w", err)
	}
	spent, err := sumsByHostel(db.Model(&models.Expense{}).
		Where("status IN ? AND date >= ? AND date < ?", countedExpenseStatuses, from, to))
	if err != nil {
		return nil, fmt.Errorf("expenses by hostel: %w", err)
	}

	var rooms []models.Room
	if err := db.Select("id", "hostel_id", "capacity").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	active, err := activeCountsByRoom(db, nil)
	if err != nil {
		return nil, err
	}
	beds := map[uint]int64{}
	held := map[uint]int64{}
	for _, r := range rooms {
		beds[r.HostelID] += int64(r.Capacity)
		n := active[r.ID]
		if n > int64(r.Capacity) {
			n = int64(r.Capacity)
		}
		held[r.HostelID] += n
	}

	out := make([]HostelReport, 0, len(hostels))
	for _, h := range hostels {
		rep := HostelReport{
			HostelID:   h.ID,
			HostelName: h.Name,
			Revenue:    round2(revenue[h.ID]),
			Expenses:   round2(spent[h.ID]),
		}
		rep.Profit = round2(rep.Revenue - rep.Expenses)
		if b := beds[h.ID]; b > 0 {
			rep.Occupancy = round2(float64(held[h.ID]) / float64(b) * 100)
		}
		out = append(out, rep)
	}
	return out, nil
}

var ReportCSVHeader = []string{"Month", "Revenue", "Expenses", "Profit"}

// TrendRows flattens a trend for CSV export.
func TrendRows(points []TrendPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Month,
			utils.FormatAmount(p.Revenue),
			utils.FormatAmount(p.Expenses),
			utils.FormatAmount(p.Profit),
		})
	}
	return rows
}
