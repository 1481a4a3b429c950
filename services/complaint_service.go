package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hostel-backend/models"
)

type ComplaintService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewComplaintService(db *gorm.DB) *ComplaintService {
	return &ComplaintService{DB: db, now: time.Now}
}

type ComplaintInput struct {
	HostelID    uint            `json:"hostelId"`
	RoomID      *uint           `json:"roomId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Priority    models.Priority `json:"priority"`
}

func (s *ComplaintService) Create(ctx context.Context, actor Actor, in ComplaintInput) (*models.Complaint, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "is required")
	}
	priority, ok := models.ParsePriority(string(in.Priority))
	if !ok {
		return nil, invalid("priority", "unknown priority %q", in.Priority)
	}
	if in.HostelID == 0 && actor.HostelID != nil {
		in.HostelID = *actor.HostelID
	}
	if in.HostelID == 0 {
		return nil, invalid("hostelId", "is required")
	}

	c := models.Complaint{
		HostelID:    in.HostelID,
		RoomID:      in.RoomID,
		UserID:      actor.ID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Priority:    priority,
		Status:      models.ComplaintOpen,
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}
	return &c, nil
}

func (s *ComplaintService) Get(ctx context.Context, actor Actor, id uint) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Preload("User").First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, ErrComplaintNotFound)
	}
	if actor.IsResidentLike() && c.UserID != actor.ID {
		return nil, ErrComplaintNotFound
	}
	if !actor.IsResidentLike() && !actor.Manages(c.HostelID) && c.UserID != actor.ID {
		return nil, ErrNotAllowed
	}
	return &c, nil
}

type ComplaintFilter struct {
	HostelID *uint
	Status   models.ComplaintStatus
	Page
}

// List returns the caller's own complaints for residents and the hostel's for managers.
func (s *ComplaintService) List(ctx context.Context, actor Actor, f ComplaintFilter) ([]models.Complaint, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if actor.IsResidentLike() {
		q = q.Where("user_id = ?", actor.ID)
	} else {
		q = actor.hostelScope(q, "hostel_id")
	}
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	var list []models.Complaint
	if err := f.Page.apply(q).Preload("User").Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	return list, total, nil
}

type ComplaintUpdate struct {
	Status     models.ComplaintStatus `json:"status"`
	AssignedTo *uint                  `json:"assignedTo"`
	Resolution string                 `json:"resolution"`
}

// Update assigns or moves a complaint along; RESOLVED stamps ResolvedAt.
func (s *ComplaintService) Update(ctx context.Context, actor Actor, id uint, in ComplaintUpdate) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFoundOr(err, ErrComplaintNotFound)
	}
	if !actor.Manages(c.HostelID) {
		return nil, ErrNotAllowed
	}

	updates := map[string]interface{}{}
	if in.Status != "" {
		if _, ok := models.ParseComplaintStatus(string(in.Status)); !ok {
			return nil, invalid("status", "unknown status %q", in.Status)
		}
		updates["status"] = in.Status
		if in.Status == models.ComplaintResolved && c.ResolvedAt == nil {
			updates["resolved_at"] = s.now()
		}
	}
	if in.AssignedTo != nil {
		updates["assigned_to"] = *in.AssignedTo
		if in.Status == "" && c.Status == models.ComplaintOpen {
			updates["status"] = models.ComplaintInProgress
		}
	}
	if r := strings.TrimSpace(in.Resolution); r != "" {
		updates["resolution"] = r
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update complaint %d: %w", id, err)
		}
	}
	return s.Get(ctx, actor, id)
}

// Delete lets the author withdraw an open complaint; managers may delete any in their hostel.
func (s *ComplaintService) Delete(ctx context.Context, actor Actor, id uint) error {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return notFoundOr(err, ErrComplaintNotFound)
	}
	own := c.UserID == actor.ID && c.Status == models.ComplaintOpen
	if !own && !actor.Manages(c.HostelID) {
		return ErrNotAllowed
	}
	if err := s.DB.WithContext(ctx).Delete(&c).Error; err != nil {
		return fmt.Errorf("delete complaint %d: %w", id, err)
	}
	return nil
}
