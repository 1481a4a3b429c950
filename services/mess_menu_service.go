package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/models"
)

type MessMenuService struct {
	DB *gorm.DB
}

func NewMessMenuService(db *gorm.DB) *MessMenuService {
	return &MessMenuService{DB: db}
}

type MessMenuInput struct {
	HostelID  uint           `json:"hostelId"`
	Day       string         `json:"day"`
	Breakfast string         `json:"breakfast"`
	Lunch     string         `json:"lunch"`
	Dinner    string         `json:"dinner"`
	Items     datatypes.JSON `json:"items"`
}

// Upsert writes the menu for one (hostel, day) pair.
func (s *MessMenuService) Upsert(ctx context.Context, in MessMenuInput) (*models.MessMenu, error) {
	if in.HostelID == 0 {
		return nil, invalid("hostelId", "is required")
	}
	day, ok := models.ParseWeekday(in.Day)
	if !ok {
		return nil, invalid("day", "must be a weekday name")
	}

	menu := models.MessMenu{
		HostelID:  in.HostelID,
		Day:       day,
		Breakfast: in.Breakfast,
		Lunch:     in.Lunch,
		Dinner:    in.Dinner,
		Items:     in.Items,
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hostel_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"breakfast", "lunch", "dinner", "items", "updated_at"}),
	}).Create(&menu).Error
	if err != nil {
		return nil, fmt.Errorf("upsert mess menu: %w", err)
	}

	var out models.MessMenu
	if err := s.DB.WithContext(ctx).Where("hostel_id = ? AND day = ?", in.HostelID, day).First(&out).Error; err != nil {
		return nil, fmt.Errorf("reload mess menu: %w", err)
	}
	return &out, nil
}

// Week returns the hostel's menu ordered Monday to Sunday; missing days are omitted.
func (s *MessMenuService) Week(ctx context.Context, hostelID uint) ([]models.MessMenu, error) {
	var rows []models.MessMenu
	if err := s.DB.WithContext(ctx).Where("hostel_id = ?", hostelID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load mess menu: %w", err)
	}
	byDay := make(map[string]models.MessMenu, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]models.MessMenu, 0, len(rows))
	for _, d := range models.Weekdays {
		if m, ok := byDay[d]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MessMenuService) Delete(ctx context.Context, hostelID uint, day string) error {
	d, ok := models.ParseWeekday(day)
	if !ok {
		return invalid("day", "must be a weekday name")
	}
	if err := s.DB.WithContext(ctx).Where("hostel_id = ? AND day = ?", hostelID, d).Delete(&models.MessMenu{}).Error; err != nil {
		return fmt.Errorf("delete mess menu: %w", err)
	}
	return nil
}
