package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hostel-backend/models"
)

type NoticeService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewNoticeService(db *gorm.DB) *NoticeService {
	return &NoticeService{DB: db, now: time.Now}
}

type NoticeInput struct {
	HostelID  *uint           `json:"hostelId"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Priority  models.Priority `json:"priority"`
	Audience  []string        `json:"audience"`
	ExpiresAt *time.Time      `json:"expiresAt"`
}

func (in *NoticeInput) audience() (datatypes.JSON, error) {
	roles := make([]models.Role, 0, len(in.Audience))
	for _, raw := range in.Audience {
		r, ok := models.ParseRole(raw)
		if !ok {
			return nil, invalid("audience", "unknown role %q", raw)
		}
		roles = append(roles, r)
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (s *NoticeService) Create(ctx context.Context, actor Actor, in NoticeInput) (*models.Notice, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "is required")
	}
	priority, ok := models.ParsePriority(string(in.Priority))
	if !ok {
		return nil, invalid("priority", "unknown priority %q", in.Priority)
	}
	if !actor.IsAdmin() {
		// wardens may only post to their own hostel
		if actor.HostelID == nil {
			return nil, ErrNotAllowed
		}
		in.HostelID = actor.HostelID
	}
	audience, err := in.audience()
	if err != nil {
		return nil, err
	}

	n := models.Notice{
		HostelID:  in.HostelID,
		Title:     in.Title,
		Content:   strings.TrimSpace(in.Content),
		Priority:  priority,
		Audience:  audience,
		ExpiresAt: in.ExpiresAt,
		CreatedBy: actor.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	return &n, nil
}

func (s *NoticeService) Get(ctx context.Context, id uint) (*models.Notice, error) {
	var n models.Notice
	if err := s.DB.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, notFoundOr(err, ErrNoticeNotFound)
	}
	return &n, nil
}

// List returns the unexpired notices the actor can see: global ones plus
// those of their hostel, filtered by audience role. Admins see every hostel.
func (s *NoticeService) List(ctx context.Context, actor Actor, hostelID *uint) ([]models.Notice, error) {
	q := s.DB.WithContext(ctx).Model(&models.Notice{}).
		Where("expires_at IS NULL OR expires_at > ?", s.now())

	switch {
	case actor.IsAdmin() && hostelID != nil:
		q = q.Where("hostel_id IS NULL OR hostel_id = ?", *hostelID)
	case actor.IsAdmin():
	case actor.HostelID != nil:
		q = q.Where("hostel_id IS NULL OR hostel_id = ?", *actor.HostelID)
	default:
		q = q.Where("hostel_id IS NULL")
	}

	var all []models.Notice
	if err := q.Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	out := all[:0]
	for _, n := range all {
		if n.VisibleTo(actor.Role) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *NoticeService) Update(ctx context.Context, actor Actor, id uint, in NoticeInput) (*models.Notice, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(actor, n) {
		return nil, ErrNotAllowed
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title", "is required")
	}
	priority, ok := models.ParsePriority(string(in.Priority))
	if !ok {
		return nil, invalid("priority", "unknown priority %q", in.Priority)
	}
	audience, err := in.audience()
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(n).Updates(map[string]interface{}{
		"title":      in.Title,
		"content":    strings.TrimSpace(in.Content),
		"priority":   priority,
		"audience":   audience,
		"expires_at": in.ExpiresAt,
	}).Error; err != nil {
		return nil, fmt.Errorf("update notice %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *NoticeService) Delete(ctx context.Context, actor Actor, id uint) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.canEdit(actor, n) {
		return ErrNotAllowed
	}
	if err := s.DB.WithContext(ctx).Delete(n).Error; err != nil {
		return fmt.Errorf("delete notice %d: %w", id, err)
	}
	return nil
}

func (s *NoticeService) canEdit(actor Actor, n *models.Notice) bool {
	if actor.IsAdmin() {
		return true
	}
	return n.HostelID != nil && actor.Manages(*n.HostelID)
}
