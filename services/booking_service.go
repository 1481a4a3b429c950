package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/metrics"
	"hostel-backend/models"
	"hostel-backend/utils"
)

// BookingService owns booking creation and the room occupancy rules around it.
type BookingService struct {
	DB       *gorm.DB
	Notifier Notifier

	// TxTimeout bounds the booking transactions; zero means no extra deadline.
	TxTimeout time.Duration
	// LoginURL is linked from confirmation emails.
	LoginURL string
	// PasswordCost is the bcrypt cost for provisioned accounts.
	PasswordCost int

	log *zap.Logger
	now func() time.Time
}

func NewBookingService(db *gorm.DB, notifier Notifier, log *zap.Logger) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{
		DB:           db,
		Notifier:     notifier,
		TxTimeout:    10 * time.Second,
		PasswordCost: bcrypt.DefaultCost,
		log:          log.Named("booking"),
		now:          time.Now,
	}
}

// GuestInput describes a prospective occupant without an account id.
type GuestInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CNIC          string `json:"cnic"`
	Address       string `json:"address"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
}

type CreateBookingInput struct {
	RoomID          uint
	UserID          *uint
	Guest           *GuestInput
	CheckIn         time.Time
	CheckOut        *time.Time
	TotalAmount     float64
	SecurityDeposit float64
	PaymentStatus   models.PaymentStatus
	Notes           string
}

func (in *CreateBookingInput) validate() error {
	if in.RoomID == 0 {
		return invalid("roomId", "is required")
	}
	if in.UserID == nil {
		if in.Guest == nil {
			return invalid("guest", "either userId or guest details are required")
		}
		in.Guest.Name = strings.TrimSpace(in.Guest.Name)
		in.Guest.Email = utils.NormalizeEmail(in.Guest.Email)
		if in.Guest.Name == "" {
			return invalid("guest.name", "is required")
		}
		if in.Guest.Email == "" || !strings.Contains(in.Guest.Email, "@") {
			return invalid("guest.email", "a valid email is required")
		}
	}
	if in.CheckIn.IsZero() {
		return invalid("checkIn", "is required")
	}
	if in.CheckOut != nil && in.CheckOut.Before(in.CheckIn) {
		return invalid("checkOut", "must not be before checkIn")
	}
	if in.TotalAmount < 0 {
		return invalid("totalAmount", "must not be negative")
	}
	if in.SecurityDeposit < 0 {
		return invalid("securityDeposit", "must not be negative")
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = models.PaymentPending
	} else if _, ok := models.ParsePaymentStatus(string(in.PaymentStatus)); !ok {
		return invalid("paymentStatus", "unknown status %q", in.PaymentStatus)
	}
	return nil
}

type BookingResult struct {
	Booking  models.Booking   `json:"booking"`
	Payments []models.Payment `json:"payments"`
	NewUser  bool             `json:"newUser"`
	// TemporaryPassword is only set when the booking provisioned the account.
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

func (s *BookingService) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.TxTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.TxTimeout)
}

// Create checks capacity, resolves or provisions the occupant, and writes the
// booking, its initial payments and the room status in one transaction.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := s.txContext(ctx)
	defer cancel()

	now := s.now()
	var (
		result BookingResult
		hostel models.Hostel
	)

	err := s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, in.RoomID)
		if err != nil {
			return err
		}

		active, err := countActiveBookings(tx, room.ID)
		if err != nil {
			return err
		}
		if active >= int64(room.Capacity) {
			metrics.CapacityRejections.Inc()
			return ErrRoomFull
		}

		user, tempPassword, err := s.resolveUser(tx, in)
		if err != nil {
			return err
		}

		ref, err := utils.GenerateReferenceCode(now)
		if err != nil {
			return fmt.Errorf("generate reference code: %w", err)
		}

		booking := models.Booking{
			ReferenceCode:   ref,
			UserID:          user.ID,
			RoomID:          room.ID,
			HostelID:        room.HostelID,
			Status:          models.BookingPending,
			CheckIn:         ptrTime(in.CheckIn),
			CheckOut:        in.CheckOut,
			TotalAmount:     in.TotalAmount,
			SecurityDeposit: in.SecurityDeposit,
			Notes:           strings.TrimSpace(in.Notes),
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		payments := []models.Payment{initialPayment(booking, models.PaymentRent, in.TotalAmount, in.PaymentStatus, now)}
		if in.SecurityDeposit > 0 {
			payments = append(payments, initialPayment(booking, models.PaymentSecurityDeposit, in.SecurityDeposit, in.PaymentStatus, now))
		}
		if err := tx.Create(&payments).Error; err != nil {
			return fmt.Errorf("create payments: %w", err)
		}

		if _, err := syncRoomStatus(tx, room, false); err != nil {
			return err
		}

		if err := tx.Select("id", "name").First(&hostel, room.HostelID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load hostel %d: %w", room.HostelID, err)
		}

		booking.User = user
		booking.Room = room
		result = BookingResult{
			Booking:           booking,
			Payments:          payments,
			NewUser:           tempPassword != "",
			TemporaryPassword: tempPassword,
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.log.Info("booking created",
		zap.Uint("booking_id", result.Booking.ID),
		zap.Uint("room_id", result.Booking.RoomID),
		zap.Bool("new_user", result.NewUser))

	s.Notifier.Notify(ctx, utils.BookingConfirmationMail(utils.BookingMailData{
		GuestName:         result.Booking.User.Name,
		Email:             result.Booking.User.Email,
		HostelName:        hostel.Name,
		RoomNumber:        result.Booking.Room.RoomNumber,
		ReferenceCode:     result.Booking.ReferenceCode,
		CheckIn:           in.CheckIn.Format("2006-01-02"),
		TotalAmount:       in.TotalAmount,
		SecurityDeposit:   in.SecurityDeposit,
		TemporaryPassword: result.TemporaryPassword,
		LoginURL:          s.LoginURL,
	}))

	return &result, nil
}

func initialPayment(b models.Booking, typ models.PaymentType, amount float64, status models.PaymentStatus, now time.Time) models.Payment {
	p := models.Payment{
		BookingID: ptrUint(b.ID),
		UserID:    b.UserID,
		HostelID:  ptrUint(b.HostelID),
		Amount:    amount,
		Type:      typ,
		Status:    status,
		DueDate:   b.CheckIn,
	}
	if status == models.PaymentPaid {
		p.PaidAt = ptrTime(now)
	}
	return p
}

// resolveUser finds the occupant by id or email, or provisions a GUEST account.
// The returned password is non-empty only for a freshly created user.
func (s *BookingService) resolveUser(tx *gorm.DB, in CreateBookingInput) (*models.User, string, error) {
	var user models.User

	if in.UserID != nil {
		if err := tx.First(&user, *in.UserID).Error; err != nil {
			return nil, "", notFoundOr(err, ErrUserNotFound)
		}
		return &user, "", nil
	}

	g := in.Guest
	err := tx.Where("LOWER(email) = ?", g.Email).First(&user).Error
	switch {
	case err == nil:
		if err := refreshGuest(tx, &user, g); err != nil {
			return nil, "", err
		}
		return &user, "", nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		password, err := utils.GenerateTemporaryPassword()
		if err != nil {
			return nil, "", fmt.Errorf("generate temporary password: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.PasswordCost)
		if err != nil {
			return nil, "", fmt.Errorf("hash temporary password: %w", err)
		}
		user = models.User{
			Name:               g.Name,
			Email:              g.Email,
			Phone:              g.Phone,
			CNIC:               g.CNIC,
			Address:            g.Address,
			Role:               models.RoleGuest,
			Password:           string(hash),
			MustChangePassword: true,
		}
		// the savepoint keeps the outer transaction usable after a unique violation
		err = tx.Transaction(func(inner *gorm.DB) error { return inner.Create(&user).Error })
		if isDuplicate(err) {
			existing, err := claimExisting(tx, g)
			if err != nil {
				return nil, "", err
			}
			return existing, "", nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("create user: %w", err)
		}
		if err := upsertResidentProfile(tx, user.ID, g); err != nil {
			return nil, "", err
		}
		return &user, password, nil

	default:
		return nil, "", fmt.Errorf("look up user by email: %w", err)
	}
}

// refreshGuest copies the submitted guest details onto an existing account.
func refreshGuest(tx *gorm.DB, user *models.User, g *GuestInput) error {
	updates := map[string]interface{}{"name": g.Name}
	if g.Phone != "" {
		updates["phone"] = g.Phone
	}
	if g.CNIC != "" {
		updates["cnic"] = g.CNIC
	}
	if g.Address != "" {
		updates["address"] = g.Address
	}
	if err := tx.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	return upsertResidentProfile(tx, user.ID, g)
}

// claimExisting runs after an insert hit the unique email index. Either another
// booking provisioned the guest first, and that account is reused, or the email
// sits on a soft-deleted account.
func claimExisting(tx *gorm.DB, g *GuestInput) (*models.User, error) {
	var user models.User
	err := tx.Unscoped().Where("LOWER(email) = ?", g.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, conflict("email_taken", "email is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if user.DeletedAt.Valid {
		return nil, conflict("email_taken", "email belongs to a deactivated account")
	}
	if err := refreshGuest(tx, &user, g); err != nil {
		return nil, err
	}
	return &user, nil
}

func upsertResidentProfile(tx *gorm.DB, userID uint, g *GuestInput) error {
	var profile models.ResidentProfile
	err := tx.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.ResidentProfile{
			UserID:        userID,
			GuardianName:  g.GuardianName,
			GuardianPhone: g.GuardianPhone,
			Address:       g.Address,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create resident profile: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load resident profile: %w", err)
	}

	updates := map[string]interface{}{}
	if g.GuardianName != "" {
		updates["guardian_name"] = g.GuardianName
	}
	if g.GuardianPhone != "" {
		updates["guardian_phone"] = g.GuardianPhone
	}
	if g.Address != "" {
		updates["address"] = g.Address
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&profile).Updates(updates).Error; err != nil {
		return fmt.Errorf("update resident profile: %w", err)
	}
	return nil
}

var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCheckedIn, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCheckedIn, models.BookingCancelled},
	models.BookingCheckedIn: {models.BookingCheckedOut},
}

func canTransition(from, to models.BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves a booking to a new status and re-derives the room status
// in the same transaction, holding the room lock across the recount.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uint, status models.BookingStatus) (*models.Booking, error) {
	if _, ok := models.ParseBookingStatus(string(status)); !ok {
		return nil, invalid("status", "unknown status %q", status)
	}

	txCtx, cancel := s.txContext(ctx)
	defer cancel()

	var booking models.Booking
	err := s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, bookingID).Error; err != nil {
			return notFoundOr(err, ErrBookingNotFound)
		}
		if booking.Status == status {
			return nil
		}
		if !canTransition(booking.Status, status) {
			return ErrInvalidTransition
		}
		return s.applyTransition(tx, &booking, status)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking status changed", zap.Uint("booking_id", booking.ID), zap.String("status", string(booking.Status)))
	return s.Get(ctx, booking.ID)
}

func (s *BookingService) applyTransition(tx *gorm.DB, booking *models.Booking, status models.BookingStatus) error {
	room, err := lockRoom(tx, booking.RoomID)
	if err != nil && !errors.Is(err, ErrRoomNotFound) {
		return err
	}

	now := s.now()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.BookingCheckedIn:
		if booking.CheckIn == nil {
			updates["check_in"] = now
		}
	case models.BookingCheckedOut:
		updates["check_out"] = now
	}
	if err := tx.Model(booking).Updates(updates).Error; err != nil {
		return fmt.Errorf("update booking %d: %w", booking.ID, err)
	}

	if status == models.BookingCancelled {
		if err := tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.PaymentPending).
			Update("status", models.PaymentCancelled).Error; err != nil {
			return fmt.Errorf("cancel pending payments of booking %d: %w", booking.ID, err)
		}
	}

	// a deleted room has nothing left to release
	if room == nil {
		return nil
	}
	_, err = syncRoomStatus(tx, room, true)
	return err
}

// RoomHostel names the hostel a room belongs to.
func (s *BookingService) RoomHostel(ctx context.Context, roomID uint) (uint, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Select("id", "hostel_id").First(&room, roomID).Error; err != nil {
		return 0, notFoundOr(err, ErrRoomNotFound)
	}
	return room.HostelID, nil
}

func (s *BookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	err := s.DB.WithContext(ctx).
		Preload("User").
		Preload("Room").
		Preload("Payments").
		First(&b, id).Error
	if err != nil {
		return nil, notFoundOr(err, ErrBookingNotFound)
	}
	return &b, nil
}

type BookingFilter struct {
	HostelID *uint
	RoomID   *uint
	UserID   *uint
	Status   models.BookingStatus
	Page
}

func (s *BookingService) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	var list []models.Booking
	if err := f.Page.apply(q).
		Preload("User").
		Preload("Room").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return list, total, nil
}

type UpdateBookingInput struct {
	CheckIn         *time.Time
	CheckOut        *time.Time
	TotalAmount     *float64
	SecurityDeposit *float64
	Notes           *string
}

// Update edits the non-occupancy fields of a booking.
func (s *BookingService) Update(ctx context.Context, id uint, in UpdateBookingInput) (*models.Booking, error) {
	var b models.Booking
	if err := s.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFoundOr(err, ErrBookingNotFound)
	}

	updates := map[string]interface{}{}
	checkIn := b.CheckIn
	if in.CheckIn != nil {
		checkIn = in.CheckIn
		updates["check_in"] = *in.CheckIn
	}
	if in.CheckOut != nil {
		if checkIn != nil && in.CheckOut.Before(*checkIn) {
			return nil, invalid("checkOut", "must not be before checkIn")
		}
		updates["check_out"] = *in.CheckOut
	}
	if in.TotalAmount != nil {
		if *in.TotalAmount < 0 {
			return nil, invalid("totalAmount", "must not be negative")
		}
		updates["total_amount"] = *in.TotalAmount
	}
	if in.SecurityDeposit != nil {
		if *in.SecurityDeposit < 0 {
			return nil, invalid("securityDeposit", "must not be negative")
		}
		updates["security_deposit"] = *in.SecurityDeposit
	}
	if in.Notes != nil {
		updates["notes"] = strings.TrimSpace(*in.Notes)
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&b).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update booking %d: %w", id, err)
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a booking; an active one is cancelled first so its bed is released.
func (s *BookingService) Delete(ctx context.Context, id uint) error {
	txCtx, cancel := s.txContext(ctx)
	defer cancel()

	return s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, id).Error; err != nil {
			return notFoundOr(err, ErrBookingNotFound)
		}
		if booking.Status.IsActive() {
			if err := s.applyTransition(tx, &booking, models.BookingCancelled); err != nil {
				return err
			}
		}
		if err := tx.Delete(&booking).Error; err != nil {
			return fmt.Errorf("delete booking %d: %w", id, err)
		}
		return nil
	})
}
