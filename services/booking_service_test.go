package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hostel-backend/models"
)

func newBookingService(db *gorm.DB) (*BookingService, *recordingNotifier) {
	n := &recordingNotifier{}
	svc := NewBookingService(db, n, nopLogger())
	svc.PasswordCost = bcrypt.MinCost
	return svc, n
}

func guestBooking(roomID uint, email string) CreateBookingInput {
	return CreateBookingInput{
		RoomID:      roomID,
		Guest:       &GuestInput{Name: "Guest " + email, Email: email, Phone: "0300-1234567", GuardianName: "Parent"},
		CheckIn:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: 15000,
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreateBooking_CapacityTwoScenario(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()

	h := seedHostel(t, db, "North Block")
	room := seedRoom(t, db, h.ID, "101", 2)

	first, err := svc.Create(ctx, guestBooking(room.ID, "a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, first.Booking.Status)
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))

	second, err := svc.Create(ctx, guestBooking(room.ID, "b@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))

	_, err = svc.Create(ctx, guestBooking(room.ID, "c@example.com"))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.UpdateStatus(ctx, second.Booking.ID, models.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))

	third, err := svc.Create(ctx, guestBooking(room.ID, "c@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, third.Booking.ID)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))
}

func TestCreateBooking_ConcurrentRequestsNeverExceedCapacity(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	h := seedHostel(t, db, "East Wing")
	room := seedRoom(t, db, h.ID, "12", 2)

	const attempts = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		rejects int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := "guest" + string(rune('a'+i)) + "@example.com"
			_, err := svc.Create(context.Background(), guestBooking(room.ID, email))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrRoomFull):
				rejects++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, attempts-2, rejects)
	active, err := countActiveBookings(db, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, active)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))
}

func TestCreateBooking_RollsBackWhenPaymentInsertFails(t *testing.T) {
	db := setupTestDB(t)
	svc, notifier := newBookingService(db)
	h := seedHostel(t, db, "South Block")
	room := seedRoom(t, db, h.ID, "1", 1)

	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:fail_payments", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			_ = tx.AddError(errors.New("injected payment failure"))
		}
	}))

	in := guestBooking(room.ID, "rollback@example.com")
	in.SecurityDeposit = 5000
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected payment failure")

	assert.Zero(t, countRows(t, db, &models.Booking{}))
	assert.Zero(t, countRows(t, db, &models.Payment{}))
	assert.Zero(t, countRows(t, db, &models.User{}))
	assert.Zero(t, countRows(t, db, &models.ResidentProfile{}))
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))
	assert.Empty(t, notifier.sent())
}

func TestCreateBooking_ResolvesExistingUserByEmail(t *testing.T) {
	db := setupTestDB(t)
	svc, notifier := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "West Block")
	roomA := seedRoom(t, db, h.ID, "A1", 1)
	roomB := seedRoom(t, db, h.ID, "B1", 1)

	first, err := svc.Create(ctx, guestBooking(roomA.ID, "Jane.Doe@Example.com"))
	require.NoError(t, err)
	assert.True(t, first.NewUser)
	assert.NotEmpty(t, first.TemporaryPassword)
	assert.Equal(t, "jane.doe@example.com", first.Booking.User.Email)
	assert.True(t, first.Booking.User.MustChangePassword)

	in := guestBooking(roomB.ID, "  jane.doe@example.com ")
	in.Guest.Phone = "0311-7654321"
	second, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.NewUser)
	assert.Empty(t, second.TemporaryPassword)
	assert.Equal(t, first.Booking.UserID, second.Booking.UserID)

	assert.EqualValues(t, 1, countRows(t, db, &models.User{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.ResidentProfile{}))

	var u models.User
	require.NoError(t, db.First(&u, first.Booking.UserID).Error)
	assert.Equal(t, "0311-7654321", u.Phone)
	assert.Equal(t, models.RoleGuest, u.Role)

	mails := notifier.sent()
	require.Len(t, mails, 2)
	assert.Contains(t, mails[0].Text, first.TemporaryPassword)
	assert.NotContains(t, mails[1].Text, first.TemporaryPassword)
}

func TestCreateBooking_EmailOfDeactivatedAccount(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "East Block")
	room := seedRoom(t, db, h.ID, "E1", 2)
	gone := seedUser(t, db, "gone@example.com", models.RoleGuest, nil)
	require.NoError(t, db.Delete(gone).Error)

	_, err := svc.Create(ctx, guestBooking(room.ID, "gone@example.com"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "deactivated")
	assert.EqualValues(t, 0, countRows(t, db, &models.Booking{}))
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))
}

func TestClaimExisting_ReusesAccountProvisionedConcurrently(t *testing.T) {
	db := setupTestDB(t)
	other := seedUser(t, db, "race@example.com", models.RoleGuest, nil)

	g := &GuestInput{Name: "Race Winner", Email: "race@example.com", Phone: "0300-0000000", GuardianName: "Parent"}
	var got *models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		got, err = claimExisting(tx, g)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	var u models.User
	require.NoError(t, db.First(&u, other.ID).Error)
	assert.Equal(t, "Race Winner", u.Name)
	assert.Equal(t, "0300-0000000", u.Phone)
	assert.EqualValues(t, 1, countRows(t, db, &models.ResidentProfile{}))
}

func TestCreateBooking_WritesInitialPayments(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	h := seedHostel(t, db, "Annex")
	room := seedRoom(t, db, h.ID, "7", 3)
	resident := seedUser(t, db, "resident@example.com", models.RoleResident, &h.ID)

	in := CreateBookingInput{
		RoomID:          room.ID,
		UserID:          &resident.ID,
		CheckIn:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:     20000,
		SecurityDeposit: 10000,
		PaymentStatus:   models.PaymentPaid,
	}
	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.NewUser)
	assert.True(t, strings.HasPrefix(res.Booking.ReferenceCode, "BK-"))
	assert.Equal(t, h.ID, res.Booking.HostelID)

	require.Len(t, res.Payments, 2)
	assert.Equal(t, models.PaymentRent, res.Payments[0].Type)
	assert.Equal(t, 20000.0, res.Payments[0].Amount)
	assert.Equal(t, models.PaymentSecurityDeposit, res.Payments[1].Type)
	for _, p := range res.Payments {
		assert.Equal(t, models.PaymentPaid, p.Status)
		assert.NotNil(t, p.PaidAt)
		assert.Equal(t, resident.ID, p.UserID)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	h := seedHostel(t, db, "Validation")
	room := seedRoom(t, db, h.ID, "1", 1)

	checkOut := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]CreateBookingInput{
		"missing room":      {Guest: &GuestInput{Name: "x", Email: "x@example.com"}, CheckIn: time.Now()},
		"missing occupant":  {RoomID: room.ID, CheckIn: time.Now()},
		"bad email":         {RoomID: room.ID, Guest: &GuestInput{Name: "x", Email: "nope"}, CheckIn: time.Now()},
		"missing check in":  {RoomID: room.ID, Guest: &GuestInput{Name: "x", Email: "x@example.com"}},
		"check out first":   {RoomID: room.ID, Guest: &GuestInput{Name: "x", Email: "x@example.com"}, CheckIn: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), CheckOut: &checkOut},
		"negative amount":   {RoomID: room.ID, Guest: &GuestInput{Name: "x", Email: "x@example.com"}, CheckIn: time.Now(), TotalAmount: -1},
		"unknown pay state": {RoomID: room.ID, Guest: &GuestInput{Name: "x", Email: "x@example.com"}, CheckIn: time.Now(), PaymentStatus: "SOMEDAY"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err := svc.Create(context.Background(), guestBooking(9999, "ghost@example.com"))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "Transit")
	room := seedRoom(t, db, h.ID, "5", 1)

	res, err := svc.Create(ctx, guestBooking(room.ID, "t@example.com"))
	require.NoError(t, err)
	id := res.Booking.ID
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))

	b, err := svc.UpdateStatus(ctx, id, models.BookingPending)
	require.NoError(t, err, "same status is a no-op")
	assert.Equal(t, models.BookingPending, b.Status)

	_, err = svc.UpdateStatus(ctx, id, models.BookingCheckedOut)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, id, "LOST")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	b, err = svc.UpdateStatus(ctx, id, models.BookingCheckedIn)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCheckedIn, b.Status)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))

	b, err = svc.UpdateStatus(ctx, id, models.BookingCheckedOut)
	require.NoError(t, err)
	assert.NotNil(t, b.CheckOut)
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))

	_, err = svc.UpdateStatus(ctx, id, models.BookingCheckedIn)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, 4242, models.BookingCancelled)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdateStatus_CancelVoidsPendingPayments(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "Cancel")
	room := seedRoom(t, db, h.ID, "9", 1)

	in := guestBooking(room.ID, "cancel@example.com")
	in.SecurityDeposit = 3000
	res, err := svc.Create(ctx, in)
	require.NoError(t, err)

	b, err := svc.UpdateStatus(ctx, res.Booking.ID, models.BookingCancelled)
	require.NoError(t, err)
	require.Len(t, b.Payments, 2)
	for _, p := range b.Payments {
		assert.Equal(t, models.PaymentCancelled, p.Status)
	}
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))
}

func TestUpdateStatus_ManualHoldSurvivesRelease(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "Hold")
	room := seedRoom(t, db, h.ID, "3", 2)
	require.NoError(t, db.Model(room).Update("status", models.RoomMaintenance).Error)

	res, err := svc.Create(ctx, guestBooking(room.ID, "hold@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoomMaintenance, roomStatus(t, db, room.ID))

	_, err = svc.UpdateStatus(ctx, res.Booking.ID, models.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.RoomMaintenance, roomStatus(t, db, room.ID))
}

func TestDeleteBooking_ReleasesBed(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h := seedHostel(t, db, "Delete")
	room := seedRoom(t, db, h.ID, "2", 1)

	res, err := svc.Create(ctx, guestBooking(room.ID, "del@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, roomStatus(t, db, room.ID))

	require.NoError(t, svc.Delete(ctx, res.Booking.ID))
	assert.Equal(t, models.RoomAvailable, roomStatus(t, db, room.ID))

	_, err = svc.Get(ctx, res.Booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListBookings_Filters(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newBookingService(db)
	ctx := context.Background()
	h1 := seedHostel(t, db, "One")
	h2 := seedHostel(t, db, "Two")
	r1 := seedRoom(t, db, h1.ID, "1", 4)
	r2 := seedRoom(t, db, h2.ID, "1", 4)

	for _, email := range []string{"p@example.com", "q@example.com"} {
		_, err := svc.Create(ctx, guestBooking(r1.ID, email))
		require.NoError(t, err)
	}
	other, err := svc.Create(ctx, guestBooking(r2.ID, "r@example.com"))
	require.NoError(t, err)

	list, total, err := svc.List(ctx, BookingFilter{HostelID: &h1.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = svc.List(ctx, BookingFilter{UserID: &other.Booking.UserID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, r2.ID, list[0].RoomID)

	_, total, err = svc.List(ctx, BookingFilter{Status: models.BookingCancelled})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDerivedRoomStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  models.RoomStatus
		active   int64
		capacity int
		release  bool
		want     models.RoomStatus
	}{
		{"fills up", models.RoomAvailable, 2, 2, false, models.RoomOccupied},
		{"still room", models.RoomAvailable, 1, 2, false, models.RoomAvailable},
		{"create never downgrades", models.RoomOccupied, 1, 2, false, models.RoomOccupied},
		{"release frees bed", models.RoomOccupied, 1, 2, true, models.RoomAvailable},
		{"maintenance hold kept", models.RoomMaintenance, 1, 2, true, models.RoomMaintenance},
		{"cleaning yields to full room", models.RoomCleaning, 3, 3, false, models.RoomOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, derivedRoomStatus(tt.current, tt.active, tt.capacity, tt.release))
		})
	}
}
