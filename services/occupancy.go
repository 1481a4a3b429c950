package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/metrics"
	"hostel-backend/models"
)

// countActiveBookings counts bookings on the room that still hold a bed.
func countActiveBookings(tx *gorm.DB, roomID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.Booking{}).
		Where("room_id = ? AND status NOT IN ?", roomID, models.InactiveBookingStatuses).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count active bookings for room %d: %w", roomID, err)
	}
	return n, nil
}

// lockRoom loads the room row FOR UPDATE so capacity checks and status writes
// on the same room serialise.
func lockRoom(tx *gorm.DB, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
		return nil, notFoundOr(err, ErrRoomNotFound)
	}
	return &room, nil
}

// derivedRoomStatus is the status a room should carry for the given number of
// active bookings. MAINTENANCE and CLEANING are manual holds and only yield to a
// full room. When release is false the result never moves a room out of OCCUPIED.
func derivedRoomStatus(current models.RoomStatus, active int64, capacity int, release bool) models.RoomStatus {
	if active >= int64(capacity) {
		return models.RoomOccupied
	}
	if current == models.RoomOccupied && release {
		return models.RoomAvailable
	}
	return current
}

// syncRoomStatus recounts active bookings for a locked room and writes the derived
// status with a compare-and-swap on the status read under the lock.
func syncRoomStatus(tx *gorm.DB, room *models.Room, release bool) (int64, error) {
	active, err := countActiveBookings(tx, room.ID)
	if err != nil {
		return 0, err
	}

	target := derivedRoomStatus(room.Status, active, room.Capacity, release)
	if target == room.Status {
		return active, nil
	}

	res := tx.Model(&models.Room{}).
		Where("id = ? AND status = ?", room.ID, room.Status).
		Update("status", target)
	if res.Error != nil {
		return 0, fmt.Errorf("update room %d status: %w", room.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrRoomStatusRace
	}

	room.Status = target
	metrics.RoomStatusChanges.WithLabelValues(string(target)).Inc()
	return active, nil
}
