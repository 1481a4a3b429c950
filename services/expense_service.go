package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/models"
	"hostel-backend/utils"
)

type ExpenseService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewExpenseService(db *gorm.DB, log *zap.Logger) *ExpenseService {
	return &ExpenseService{DB: db, log: log.Named("expense")}
}

type ExpenseInput struct {
	HostelID uint      `json:"hostelId"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes"`
}

func (in *ExpenseInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.HostelID == 0 {
		return invalid("hostelId", "is required")
	}
	if in.Title == "" {
		return invalid("title", "is required")
	}
	if in.Amount <= 0 {
		return invalid("amount", "must be positive")
	}
	if in.Date.IsZero() {
		return invalid("date", "is required")
	}
	return nil
}

func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput, submittedBy uint) (*models.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := models.Expense{
		HostelID:    in.HostelID,
		Title:       in.Title,
		Category:    in.Category,
		Amount:      in.Amount,
		Date:        in.Date,
		Status:      models.ExpensePending,
		SubmittedBy: submittedBy,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := s.DB.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return &e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := s.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound)
	}
	return &e, nil
}

type ExpenseFilter struct {
	HostelID *uint
	Category string
	Status   models.ExpenseStatus
	From, To *time.Time
	Page
}

func (f ExpenseFilter) scope(q *gorm.DB) *gorm.DB {
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}
	return q
}

func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) ([]models.Expense, int64, error) {
	q := f.scope(s.DB.WithContext(ctx).Model(&models.Expense{}))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	var list []models.Expense
	if err := f.Page.apply(q).Order("date DESC, id DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	return list, total, nil
}

func (s *ExpenseService) Update(ctx context.Context, id uint, in ExpenseInput) (*models.Expense, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.HostelID == 0 {
		in.HostelID = e.HostelID
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(e).Updates(map[string]interface{}{
		"hostel_id": in.HostelID,
		"title":     in.Title,
		"category":  in.Category,
		"amount":    in.Amount,
		"date":      in.Date,
		"notes":     strings.TrimSpace(in.Notes),
	}).Error; err != nil {
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

var expenseTransitions = map[models.ExpenseStatus][]models.ExpenseStatus{
	models.ExpensePending:  {models.ExpenseApproved, models.ExpenseRejected},
	models.ExpenseApproved: {models.ExpensePaid, models.ExpenseRejected},
}

func (s *ExpenseService) SetStatus(ctx context.Context, id uint, status models.ExpenseStatus) (*models.Expense, error) {
	if _, ok := models.ParseExpenseStatus(string(status)); !ok {
		return nil, invalid("status", "unknown status %q", status)
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == status {
		return e, nil
	}
	allowed := false
	for _, next := range expenseTransitions[e.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}
	if err := s.DB.WithContext(ctx).Model(e).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update expense %d status: %w", id, err)
	}
	e.Status = status
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Expense{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete expense %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

var ExpenseCSVHeader = []string{"ID", "Hostel", "Date", "Title", "Category", "Amount", "Status", "Notes"}

// ExportRows returns every expense matching f, ignoring pagination.
func (s *ExpenseService) ExportRows(ctx context.Context, f ExpenseFilter) ([][]string, error) {
	var list []models.Expense
	if err := f.scope(s.DB.WithContext(ctx).Model(&models.Expense{})).Order("date, id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			strconv.FormatUint(uint64(e.HostelID), 10),
			utils.FormatDate(&e.Date),
			e.Title,
			e.Category,
			utils.FormatAmount(e.Amount),
			string(e.Status),
			e.Notes,
		})
	}
	return rows, nil
}
