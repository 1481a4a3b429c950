package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hostel-backend/models"
)

type MaintenanceService struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{DB: db, now: time.Now}
}

type MaintenanceInput struct {
	HostelID    uint            `json:"hostelId"`
	RoomID      *uint           `json:"roomId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
}

func (s *MaintenanceService) Create(ctx context.Context, actor Actor, in MaintenanceInput) (*models.MaintenanceRequest, error) {
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
	if in.RoomID != nil {
		var room models.Room
		if err := s.DB.WithContext(ctx).Select("id", "hostel_id").First(&room, *in.RoomID).Error; err != nil {
			return nil, notFoundOr(err, ErrRoomNotFound)
		}
		if room.HostelID != in.HostelID {
			return nil, invalid("roomId", "room %d is not in hostel %d", room.ID, in.HostelID)
		}
	}

	m := models.MaintenanceRequest{
		HostelID:    in.HostelID,
		RoomID:      in.RoomID,
		ReportedBy:  actor.ID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      models.MaintenancePending,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("create maintenance request: %w", err)
	}
	return &m, nil
}

func (s *MaintenanceService) Get(ctx context.Context, id uint) (*models.MaintenanceRequest, error) {
	var m models.MaintenanceRequest
	if err := s.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFoundOr(err, ErrMaintenanceNotFound)
	}
	return &m, nil
}

type MaintenanceFilter struct {
	HostelID *uint
	RoomID   *uint
	Status   models.MaintenanceStatus
	Page
}

func (s *MaintenanceService) List(ctx context.Context, actor Actor, f MaintenanceFilter) ([]models.MaintenanceRequest, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.MaintenanceRequest{})
	if actor.IsResidentLike() {
		q = q.Where("reported_by = ?", actor.ID)
	} else {
		q = actor.hostelScope(q, "hostel_id")
	}
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count maintenance requests: %w", err)
	}
	var list []models.MaintenanceRequest
	if err := f.Page.apply(q).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list maintenance requests: %w", err)
	}
	return list, total, nil
}

func (s *MaintenanceService) SetStatus(ctx context.Context, actor Actor, id uint, status models.MaintenanceStatus) (*models.MaintenanceRequest, error) {
	if _, ok := models.ParseMaintenanceStatus(string(status)); !ok {
		return nil, invalid("status", "unknown status %q", status)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Manages(m.HostelID) && actor.Role != models.RoleStaff {
		return nil, ErrNotAllowed
	}

	updates := map[string]interface{}{"status": status}
	if status == models.MaintenanceCompleted {
		updates["completed_at"] = s.now()
	} else {
		updates["completed_at"] = nil
	}
	if err := s.DB.WithContext(ctx).Model(m).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update maintenance request %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *MaintenanceService) Delete(ctx context.Context, actor Actor, id uint) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Manages(m.HostelID) {
		return ErrNotAllowed
	}
	if err := s.DB.WithContext(ctx).Delete(m).Error; err != nil {
		return fmt.Errorf("delete maintenance request %d: %w", id, err)
	}
	return nil
}
