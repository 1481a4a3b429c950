package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hostel-backend/models"
)

type RoomService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewRoomService(db *gorm.DB, log *zap.Logger) *RoomService {
	return &RoomService{DB: db, log: log.Named("room")}
}

type RoomInput struct {
	HostelID    uint           `json:"hostelId"`
	RoomNumber  string         `json:"roomNumber"`
	Floor       string         `json:"floor"`
	Type        string         `json:"type"`
	Capacity    int            `json:"capacity"`
	MonthlyRent float64        `json:"monthlyRent"`
	NightlyRent float64        `json:"nightlyRent"`
	Amenities   datatypes.JSON `json:"amenities"`
}

func (in *RoomInput) validate() error {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if in.HostelID == 0 {
		return invalid("hostelId", "is required")
	}
	if in.RoomNumber == "" {
		return invalid("roomNumber", "is required")
	}
	if in.Capacity < 1 {
		return invalid("capacity", "must be at least 1")
	}
	if in.MonthlyRent < 0 || in.NightlyRent < 0 {
		return invalid("monthlyRent", "rent must not be negative")
	}
	return nil
}

func (s *RoomService) Create(ctx context.Context, in RoomInput) (*models.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var hostel models.Hostel
	if err := s.DB.WithContext(ctx).Select("id").First(&hostel, in.HostelID).Error; err != nil {
		return nil, notFoundOr(err, ErrHostelNotFound)
	}

	room := models.Room{
		HostelID:    in.HostelID,
		RoomNumber:  in.RoomNumber,
		Floor:       in.Floor,
		Type:        in.Type,
		Capacity:    in.Capacity,
		Status:      models.RoomAvailable,
		MonthlyRent: in.MonthlyRent,
		NightlyRent: in.NightlyRent,
		Amenities:   in.Amenities,
	}
	if err := s.DB.WithContext(ctx).Create(&room).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("room_number_taken", fmt.Sprintf("room %s already exists in this hostel", in.RoomNumber))
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFoundOr(err, ErrRoomNotFound)
	}
	return &room, nil
}

type RoomFilter struct {
	HostelID *uint
	Status   models.RoomStatus
	Page
}

func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]models.Room, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Room{})
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	var rooms []models.Room
	if err := f.Page.apply(q).Order("hostel_id, room_number").Find(&rooms).Error; err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, total, nil
}

// RoomUpdate is a partial room edit; nil fields keep their stored value.
type RoomUpdate struct {
	HostelID    *uint          `json:"hostelId"`
	RoomNumber  *string        `json:"roomNumber"`
	Floor       *string        `json:"floor"`
	Type        *string        `json:"type"`
	Capacity    *int           `json:"capacity"`
	MonthlyRent *float64       `json:"monthlyRent"`
	NightlyRent *float64       `json:"nightlyRent"`
	Amenities   datatypes.JSON `json:"amenities"`
}

// over layers the edit on top of room and validates the merged shape.
func (u RoomUpdate) over(room *models.Room) (RoomInput, error) {
	in := RoomInput{
		HostelID:    room.HostelID,
		RoomNumber:  room.RoomNumber,
		Floor:       room.Floor,
		Type:        room.Type,
		Capacity:    room.Capacity,
		MonthlyRent: room.MonthlyRent,
		NightlyRent: room.NightlyRent,
		Amenities:   room.Amenities,
	}
	if u.HostelID != nil {
		in.HostelID = *u.HostelID
	}
	if u.RoomNumber != nil {
		in.RoomNumber = *u.RoomNumber
	}
	if u.Floor != nil {
		in.Floor = *u.Floor
	}
	if u.Type != nil {
		in.Type = *u.Type
	}
	if u.Capacity != nil {
		in.Capacity = *u.Capacity
	}
	if u.MonthlyRent != nil {
		in.MonthlyRent = *u.MonthlyRent
	}
	if u.NightlyRent != nil {
		in.NightlyRent = *u.NightlyRent
	}
	if u.Amenities != nil {
		in.Amenities = u.Amenities
	}
	if err := in.validate(); err != nil {
		return RoomInput{}, err
	}
	return in, nil
}

// Update edits a room. Capacity may not drop below the beds already taken, and
// a capacity change re-derives the status under the room lock. Moving a room to
// another hostel carries its bookings and their payments along.
func (s *RoomService) Update(ctx context.Context, id uint, u RoomUpdate) (*models.Room, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		in, err := u.over(room)
		if err != nil {
			return err
		}

		active, err := countActiveBookings(tx, room.ID)
		if err != nil {
			return err
		}
		if int64(in.Capacity) < active {
			return ErrCapacityBelowUsage
		}

		moved := in.HostelID != room.HostelID
		if moved {
			if err := tx.Select("id").First(&models.Hostel{}, in.HostelID).Error; err != nil {
				return notFoundOr(err, ErrHostelNotFound)
			}
		}

		updates := map[string]interface{}{
			"hostel_id":    in.HostelID,
			"room_number":  in.RoomNumber,
			"floor":        in.Floor,
			"type":         in.Type,
			"capacity":     in.Capacity,
			"monthly_rent": in.MonthlyRent,
			"nightly_rent": in.NightlyRent,
		}
		if in.Amenities != nil {
			updates["amenities"] = in.Amenities
		}
		if err := tx.Model(room).Updates(updates).Error; err != nil {
			if isDuplicate(err) {
				return conflict("room_number_taken", fmt.Sprintf("room %s already exists in this hostel", in.RoomNumber))
			}
			return fmt.Errorf("update room %d: %w", id, err)
		}

		if moved {
			bookings := tx.Model(&models.Booking{}).Select("id").Where("room_id = ?", room.ID)
			if err := tx.Model(&models.Payment{}).Where("booking_id IN (?)", bookings).
				Update("hostel_id", in.HostelID).Error; err != nil {
				return fmt.Errorf("move payments of room %d: %w", id, err)
			}
			if err := tx.Model(&models.Booking{}).Where("room_id = ?", room.ID).
				Update("hostel_id", in.HostelID).Error; err != nil {
				return fmt.Errorf("move bookings of room %d: %w", id, err)
			}
		}

		room.Capacity = in.Capacity
		_, err = syncRoomStatus(tx, room, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetStatus applies a manual status. AVAILABLE re-derives from occupancy, so a
// full room stays OCCUPIED; OCCUPIED itself cannot be forced.
func (s *RoomService) SetStatus(ctx context.Context, id uint, status models.RoomStatus) (*models.Room, error) {
	switch status {
	case models.RoomAvailable, models.RoomMaintenance, models.RoomCleaning:
	case models.RoomOccupied:
		return nil, invalid("status", "OCCUPIED is derived from bookings and cannot be set manually")
	default:
		return nil, invalid("status", "unknown status %q", status)
	}

	var out models.Room
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		active, err := countActiveBookings(tx, room.ID)
		if err != nil {
			return err
		}

		target := status
		if active >= int64(room.Capacity) {
			target = models.RoomOccupied
		}
		if target != room.Status {
			if err := tx.Model(room).Update("status", target).Error; err != nil {
				return fmt.Errorf("update room %d status: %w", id, err)
			}
			room.Status = target
		}
		out = *room
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("room status set", zap.Uint("room_id", id), zap.String("status", string(out.Status)))
	return &out, nil
}

func (s *RoomService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, id)
		if err != nil {
			return err
		}
		active, err := countActiveBookings(tx, room.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrRoomHasOccupants
		}
		if err := tx.Delete(room).Error; err != nil {
			return fmt.Errorf("delete room %d: %w", id, err)
		}
		return nil
	})
}

type RoomAvailability struct {
	RoomID     uint              `json:"roomId"`
	HostelID   uint              `json:"hostelId"`
	RoomNumber string            `json:"roomNumber"`
	Status     models.RoomStatus `json:"status"`
	Capacity   int               `json:"capacity"`
	Active     int64             `json:"active"`
	Free       int64             `json:"free"`
}

type roomCount struct {
	RoomID uint
	N      int64
}

// activeCountsByRoom returns room id -> active bookings in one grouped query.
func activeCountsByRoom(db *gorm.DB, hostelID *uint) (map[uint]int64, error) {
	q := db.Model(&models.Booking{}).
		Select("room_id, COUNT(*) AS n").
		Where("status NOT IN ?", models.InactiveBookingStatuses).
		Group("room_id")
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var counts []roomCount
	if err := q.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count active bookings: %w", err)
	}
	out := make(map[uint]int64, len(counts))
	for _, c := range counts {
		out[c.RoomID] = c.N
	}
	return out, nil
}

func (s *RoomService) Availability(ctx context.Context, hostelID *uint) ([]RoomAvailability, error) {
	db := s.DB.WithContext(ctx)

	q := db.Model(&models.Room{})
	if hostelID != nil {
		q = q.Where("hostel_id = ?", *hostelID)
	}
	var rooms []models.Room
	if err := q.Order("hostel_id, room_number").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	counts, err := activeCountsByRoom(db, hostelID)
	if err != nil {
		return nil, err
	}

	out := make([]RoomAvailability, 0, len(rooms))
	for _, r := range rooms {
		active := counts[r.ID]
		free := int64(r.Capacity) - active
		if free < 0 {
			free = 0
		}
		out = append(out, RoomAvailability{
			RoomID:     r.ID,
			HostelID:   r.HostelID,
			RoomNumber: r.RoomNumber,
			Status:     r.Status,
			Capacity:   r.Capacity,
			Active:     active,
			Free:       free,
		})
	}
	return out, nil
}
