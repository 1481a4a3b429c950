package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/models"
)

type LeaveService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewLeaveService(db *gorm.DB) *LeaveService {
	return &LeaveService{DB: db, now: time.Now}
}

type LeaveInput struct {
	StartDate time.Time        `json:"startDate"`
	EndDate   time.Time        `json:"endDate"`
	Reason    string           `json:"reason"`
	Type      models.LeaveType `json:"type"`
}

func (s *LeaveService) Create(ctx context.Context, actor Actor, in LeaveInput) (*models.LeaveRequest, error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, invalid("startDate", "start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, invalid("endDate", "must not be before startDate")
	}
	typ, ok := models.ParseLeaveType(string(in.Type))
	if !ok {
		return nil, invalid("type", "unknown leave type %q", in.Type)
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, invalid("reason", "is required")
	}

	l := models.LeaveRequest{
		UserID:    actor.ID,
		HostelID:  actor.HostelID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Reason:    in.Reason,
		Type:      typ,
		Status:    models.LeavePending,
	}
	if err := s.DB.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, fmt.Errorf("create leave request: %w", err)
	}
	return &l, nil
}

type LeaveFilter struct {
	Status models.LeaveStatus
	UserID *uint
	Page
}

func (s *LeaveService) List(ctx context.Context, actor Actor, f LeaveFilter) ([]models.LeaveRequest, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.LeaveRequest{})
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleWarden:
		q = actor.hostelScope(q, "hostel_id")
	default:
		q = q.Where("user_id = ?", actor.ID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}
	var list []models.LeaveRequest
	if err := f.Page.apply(q).Preload("User").Order("start_date DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	return list, total, nil
}

// Review approves or rejects a PENDING request.
func (s *LeaveService) Review(ctx context.Context, actor Actor, id uint, approve bool, note string) (*models.LeaveRequest, error) {
	var l models.LeaveRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, id).Error; err != nil {
			return notFoundOr(err, ErrLeaveNotFound)
		}
		if !actor.IsAdmin() && (l.HostelID == nil || !actor.Manages(*l.HostelID)) {
			return ErrNotAllowed
		}
		if l.Status != models.LeavePending {
			return ErrAlreadyReviewed
		}

		status := models.LeaveRejected
		if approve {
			status = models.LeaveApproved
		}
		now := s.now()
		if err := tx.Model(&l).Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": actor.ID,
			"reviewed_at": now,
			"review_note": strings.TrimSpace(note),
		}).Error; err != nil {
			return fmt.Errorf("review leave request %d: %w", id, err)
		}
		l.Status = status
		l.ReviewedBy = ptrUint(actor.ID)
		l.ReviewedAt = &now
		l.ReviewNote = strings.TrimSpace(note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Cancel withdraws the caller's own PENDING request.
func (s *LeaveService) Cancel(ctx context.Context, actor Actor, id uint) error {
	var l models.LeaveRequest
	if err := s.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		return notFoundOr(err, ErrLeaveNotFound)
	}
	if l.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotAllowed
	}
	if l.Status != models.LeavePending {
		return ErrAlreadyReviewed
	}
	if err := s.DB.WithContext(ctx).Delete(&l).Error; err != nil {
		return fmt.Errorf("delete leave request %d: %w", id, err)
	}
	return nil
}
