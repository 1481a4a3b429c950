package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/metrics"
	"hostel-backend/models"
)

// AutomationService records the periodic cleaning and laundry rounds of each hostel.
type AutomationService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewAutomationService(db *gorm.DB, log *zap.Logger) *AutomationService {
	return &AutomationService{DB: db, log: log.Named("automation")}
}

type automationTask struct {
	kind     models.AutomationKind
	interval func(h *models.Hostel) int
	last     func(h *models.Hostel) *time.Time
	column   string
}

var automationTasks = []automationTask{
	{
		kind:     models.AutomationCleaning,
		interval: func(h *models.Hostel) int { return h.CleaningIntervalHours },
		last:     func(h *models.Hostel) *time.Time { return h.LastCleaningAt },
		column:   "last_cleaning_at",
	},
	{
		kind:     models.AutomationLaundry,
		interval: func(h *models.Hostel) int { return h.LaundryIntervalHours },
		last:     func(h *models.Hostel) *time.Time { return h.LastLaundryAt },
		column:   "last_laundry_at",
	},
}

func due(last *time.Time, intervalHours int, now time.Time) bool {
	if intervalHours <= 0 {
		return false
	}
	if last == nil {
		return true
	}
	return !last.Add(time.Duration(intervalHours) * time.Hour).After(now)
}

// Sync writes a log row for every task whose interval has elapsed at now and
// advances the hostel's last-run stamp. Running it twice with the same now
// creates nothing the second time.
func (s *AutomationService) Sync(ctx context.Context, now time.Time) ([]models.AutomationLog, error) {
	var ids []uint
	if err := s.DB.WithContext(ctx).Model(&models.Hostel{}).
		Where("cleaning_interval_hours > 0 OR laundry_interval_hours > 0").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list hostels: %w", err)
	}

	var created []models.AutomationLog
	for _, id := range ids {
		logs, err := s.syncHostel(ctx, id, now)
		if err != nil {
			return created, err
		}
		created = append(created, logs...)
	}
	if len(created) > 0 {
		s.log.Info("automation sync", zap.Int("hostels", len(ids)), zap.Int("logs", len(created)))
	}
	return created, nil
}

func (s *AutomationService) syncHostel(ctx context.Context, hostelID uint, now time.Time) ([]models.AutomationLog, error) {
	var logs []models.AutomationLog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Hostel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&h, hostelID).Error; err != nil {
			return notFoundOr(err, ErrHostelNotFound)
		}

		updates := map[string]interface{}{}
		for _, t := range automationTasks {
			hours := t.interval(&h)
			if !due(t.last(&h), hours, now) {
				continue
			}
			logs = append(logs, models.AutomationLog{
				HostelID: h.ID,
				Kind:     t.kind,
				RanAt:    now,
				Details:  fmt.Sprintf("%s round for %s (every %dh)", t.kind, h.Name, hours),
			})
			updates[t.column] = now
		}
		if len(logs) == 0 {
			return nil
		}
		if err := tx.Create(&logs).Error; err != nil {
			return fmt.Errorf("create automation logs: %w", err)
		}
		if err := tx.Model(&h).Updates(updates).Error; err != nil {
			return fmt.Errorf("advance automation stamps: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		metrics.AutomationRuns.WithLabelValues(string(l.Kind)).Inc()
	}
	return logs, nil
}

// Logs lists recent automation rows, newest first.
func (s *AutomationService) Logs(ctx context.Context, hostelID *uint, page Page) ([]models.AutomationLog, error) {
	q := s.DB.WithContext(ctx).Model(&models.AutomationLog{})
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var list []models.AutomationLog
	if err := page.apply(q).Order("ran_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list automation logs: %w", err)
	}
	return list, nil
}
