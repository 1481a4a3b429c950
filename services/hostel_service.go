package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/models"
)

type HostelService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewHostelService(db *gorm.DB, log *zap.Logger) *HostelService {
	return &HostelService{DB: db, log: log.Named("hostel")}
}

type HostelInput struct {
	Name                  string         `json:"name"`
	Address               string         `json:"address"`
	City                  string         `json:"city"`
	Phone                 string         `json:"phone"`
	Email                 string         `json:"email"`
	Capacity              int            `json:"capacity"`
	Amenities             datatypes.JSON `json:"amenities"`
	MonthlyRent           float64        `json:"monthlyRent"`
	NightlyRent           float64        `json:"nightlyRent"`
	CleaningIntervalHours int            `json:"cleaningIntervalHours"`
	LaundryIntervalHours  int            `json:"laundryIntervalHours"`
}

func (in *HostelInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if in.Capacity < 0 {
		return invalid("capacity", "must not be negative")
	}
	if in.MonthlyRent < 0 || in.NightlyRent < 0 {
		return invalid("monthlyRent", "rent must not be negative")
	}
	if in.CleaningIntervalHours < 0 || in.LaundryIntervalHours < 0 {
		return invalid("cleaningIntervalHours", "intervals must not be negative")
	}
	return nil
}

func (s *HostelService) Create(ctx context.Context, in HostelInput) (*models.Hostel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	h := models.Hostel{
		Name:                  in.Name,
		Address:               in.Address,
		City:                  in.City,
		Phone:                 in.Phone,
		Email:                 in.Email,
		Capacity:              in.Capacity,
		Amenities:             in.Amenities,
		MonthlyRent:           in.MonthlyRent,
		NightlyRent:           in.NightlyRent,
		CleaningIntervalHours: in.CleaningIntervalHours,
		LaundryIntervalHours:  in.LaundryIntervalHours,
	}
	h.SetWardenIDs(nil)
	if err := s.DB.WithContext(ctx).Create(&h).Error; err != nil {
		return nil, fmt.Errorf("create hostel: %w", err)
	}
	return &h, nil
}

func (s *HostelService) Get(ctx context.Context, id uint) (*models.Hostel, error) {
	var h models.Hostel
	if err := s.DB.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, notFoundOr(err, ErrHostelNotFound)
	}
	return &h, nil
}

func (s *HostelService) List(ctx context.Context, page Page) ([]models.Hostel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Hostel{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count hostels: %w", err)
	}
	var list []models.Hostel
	if err := page.apply(q).Order("name").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list hostels: %w", err)
	}
	return list, total, nil
}

func (s *HostelService) Update(ctx context.Context, id uint, in HostelInput) (*models.Hostel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":                    in.Name,
		"address":                 in.Address,
		"city":                    in.City,
		"phone":                   in.Phone,
		"email":                   in.Email,
		"capacity":                in.Capacity,
		"monthly_rent":            in.MonthlyRent,
		"nightly_rent":            in.NightlyRent,
		"cleaning_interval_hours": in.CleaningIntervalHours,
		"laundry_interval_hours":  in.LaundryIntervalHours,
	}
	if in.Amenities != nil {
		updates["amenities"] = in.Amenities
	}
	if err := s.DB.WithContext(ctx).Model(h).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update hostel %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Delete refuses while any room of the hostel still holds an active booking.
func (s *HostelService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Hostel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&h, id).Error; err != nil {
			return notFoundOr(err, ErrHostelNotFound)
		}
		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("hostel_id = ? AND status NOT IN ?", id, models.InactiveBookingStatuses).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active bookings for hostel %d: %w", id, err)
		}
		if active > 0 {
			return ErrHostelHasOccupants
		}
		if err := tx.Where("hostel_id = ?", id).Delete(&models.Room{}).Error; err != nil {
			return fmt.Errorf("delete rooms of hostel %d: %w", id, err)
		}
		if err := tx.Delete(&h).Error; err != nil {
			return fmt.Errorf("delete hostel %d: %w", id, err)
		}
		return nil
	})
}

// AssignWarden links a WARDEN user to the hostel on both sides.
func (s *HostelService) AssignWarden(ctx context.Context, hostelID, userID uint) (*models.Hostel, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Hostel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&h, hostelID).Error; err != nil {
			return notFoundOr(err, ErrHostelNotFound)
		}
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		if u.Role != models.RoleWarden {
			return invalid("userId", "user %d is not a warden", userID)
		}

		if err := tx.Model(&u).Update("hostel_id", hostelID).Error; err != nil {
			return fmt.Errorf("set warden hostel: %w", err)
		}
		if h.HasWarden(userID) {
			return nil
		}
		h.SetWardenIDs(append(h.WardenIDs(), userID))
		if err := tx.Model(&h).Update("wardens", h.Wardens).Error; err != nil {
			return fmt.Errorf("update hostel wardens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("warden assigned", zap.Uint("hostel_id", hostelID), zap.Uint("user_id", userID))
	return s.Get(ctx, hostelID)
}

type HostelStats struct {
	HostelID     uint    `json:"hostelId"`
	Rooms        int64   `json:"rooms"`
	Beds         int64   `json:"beds"`
	OccupiedBeds int64   `json:"occupiedBeds"`
	FreeBeds     int64   `json:"freeBeds"`
	Occupancy    float64 `json:"occupancy"`
}

func (s *HostelService) Stats(ctx context.Context, hostelID uint) (*HostelStats, error) {
	if _, err := s.Get(ctx, hostelID); err != nil {
		return nil, err
	}
	beds, err := bedUsage(s.DB.WithContext(ctx), &hostelID)
	if err != nil {
		return nil, err
	}
	return &HostelStats{
		HostelID:     hostelID,
		Rooms:        beds.Rooms,
		Beds:         beds.Beds,
		OccupiedBeds: beds.Occupied,
		FreeBeds:     beds.Beds - beds.Occupied,
		Occupancy:    beds.Percent(),
	}, nil
}

type bedCounts struct {
	Rooms    int64
	Beds     int64
	Occupied int64
}

func (b bedCounts) Percent() float64 {
	if b.Beds == 0 {
		return 0
	}
	return math.Round(float64(b.Occupied)/float64(b.Beds)*10000) / 100
}

// bedUsage counts rooms, beds, and occupied beds. A room is never counted as
// holding more occupants than its capacity.
func bedUsage(db *gorm.DB, hostelID *uint) (bedCounts, error) {
	q := db.Model(&models.Room{})
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var rooms []models.Room
	if err := q.Select("id", "capacity").Find(&rooms).Error; err != nil {
		return bedCounts{}, fmt.Errorf("load rooms: %w", err)
	}
	counts, err := activeCountsByRoom(db, hostelID)
	if err != nil {
		return bedCounts{}, err
	}

	out := bedCounts{Rooms: int64(len(rooms))}
	for _, r := range rooms {
		out.Beds += int64(r.Capacity)
		n := counts[r.ID]
		if n > int64(r.Capacity) {
			n = int64(r.Capacity)
		}
		out.Occupied += n
	}
	return out, nil
}
