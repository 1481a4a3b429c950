package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-backend/models"
	"hostel-backend/utils"
)

// setupTestDB opens a private in-memory database with every table migrated.
// One connection keeps all transactions on the same sqlite handle.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedHostel(t *testing.T, db *gorm.DB, name string) *models.Hostel {
	t.Helper()
	h := &models.Hostel{Name: name, City: "Lahore"}
	require.NoError(t, db.Create(h).Error)
	return h
}

func seedRoom(t *testing.T, db *gorm.DB, hostelID uint, number string, capacity int) *models.Room {
	t.Helper()
	r := &models.Room{HostelID: hostelID, RoomNumber: number, Capacity: capacity, Status: models.RoomAvailable, MonthlyRent: 15000}
	require.NoError(t, db.Create(r).Error)
	return r
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role, hostelID *uint) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Name: "User " + email, Email: email, Role: role, HostelID: hostelID, Password: string(hash)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// seedBooking inserts a booking row directly, bypassing the capacity checks.
func seedBooking(t *testing.T, db *gorm.DB, room *models.Room, userID uint, status models.BookingStatus, checkIn time.Time, checkOut *time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ReferenceCode: "T-" + uuid.NewString(),
		UserID:        userID,
		RoomID:        room.ID,
		HostelID:      room.HostelID,
		Status:        status,
		CheckIn:       &checkIn,
		CheckOut:      checkOut,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func roomStatus(t *testing.T, db *gorm.DB, roomID uint) models.RoomStatus {
	t.Helper()
	var r models.Room
	require.NoError(t, db.First(&r, roomID).Error)
	return r.Status
}

// recordingNotifier keeps every mail handed to it.
type recordingNotifier struct {
	mu    sync.Mutex
	mails []utils.Mail
}

func (n *recordingNotifier) Notify(_ context.Context, m utils.Mail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mails = append(n.mails, m)
}

func (n *recordingNotifier) sent() []utils.Mail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]utils.Mail(nil), n.mails...)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
