package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/models"
	"hostel-backend/utils"
)

// PaymentService manages charges. A payment's lifecycle is independent of its booking.
type PaymentService struct {
	DB       *gorm.DB
	Notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentService(db *gorm.DB, notifier Notifier, log *zap.Logger) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PaymentService{DB: db, Notifier: notifier, log: log.Named("payment"), now: time.Now}
}

type PaymentInput struct {
	BookingID *uint                `json:"bookingId"`
	UserID    uint                 `json:"userId"`
	Amount    float64              `json:"amount"`
	Type      models.PaymentType   `json:"type"`
	Status    models.PaymentStatus `json:"status"`
	Method    string               `json:"method"`
	DueDate   *time.Time           `json:"dueDate"`
	Notes     string               `json:"notes"`
}

func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	if in.Amount <= 0 {
		return nil, invalid("amount", "must be positive")
	}
	if in.Type == "" {
		in.Type = models.PaymentOther
	} else if _, ok := models.ParsePaymentType(string(in.Type)); !ok {
		return nil, invalid("type", "unknown payment type %q", in.Type)
	}
	if in.Status == "" {
		in.Status = models.PaymentPending
	} else if _, ok := models.ParsePaymentStatus(string(in.Status)); !ok {
		return nil, invalid("status", "unknown status %q", in.Status)
	}

	db := s.DB.WithContext(ctx)
	p := models.Payment{
		BookingID: in.BookingID,
		UserID:    in.UserID,
		Amount:    in.Amount,
		Type:      in.Type,
		Status:    in.Status,
		Method:    strings.TrimSpace(in.Method),
		DueDate:   in.DueDate,
		Notes:     strings.TrimSpace(in.Notes),
	}

	userID, hostelID, err := paymentOwner(db, in)
	if err != nil {
		return nil, err
	}
	p.UserID, p.HostelID = userID, hostelID
	if p.Status == models.PaymentPaid {
		p.PaidAt = ptrTime(s.now())
	}

	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &p, nil
}

// Owner resolves who a new payment is charged to and the hostel it books under.
func (s *PaymentService) Owner(ctx context.Context, in PaymentInput) (uint, *uint, error) {
	return paymentOwner(s.DB.WithContext(ctx), in)
}

// paymentOwner prefers the booking's user and hostel over the payload's userId.
func paymentOwner(db *gorm.DB, in PaymentInput) (uint, *uint, error) {
	if in.BookingID != nil {
		var b models.Booking
		if err := db.Select("id", "user_id", "hostel_id").First(&b, *in.BookingID).Error; err != nil {
			return 0, nil, notFoundOr(err, ErrBookingNotFound)
		}
		return b.UserID, ptrUint(b.HostelID), nil
	}
	if in.UserID == 0 {
		return 0, nil, invalid("userId", "userId or bookingId is required")
	}
	var u models.User
	if err := db.Select("id", "hostel_id").First(&u, in.UserID).Error; err != nil {
		return 0, nil, notFoundOr(err, ErrUserNotFound)
	}
	return u.ID, u.HostelID, nil
}

func (s *PaymentService) Get(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.DB.WithContext(ctx).Preload("User").First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, ErrPaymentNotFound)
	}
	return &p, nil
}

type PaymentFilter struct {
	HostelID  *uint
	UserID    *uint
	BookingID *uint
	Status    models.PaymentStatus
	Type      models.PaymentType
	From, To  *time.Time
	Page
}

func (s *PaymentService) List(ctx context.Context, f PaymentFilter) ([]models.Payment, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Payment{})
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.BookingID != nil {
		q = q.Where("booking_id = ?", *f.BookingID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	var list []models.Payment
	if err := f.Page.apply(q).Preload("User").Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return list, total, nil
}

// UpdateStatus changes a payment's status. Moving to PAID stamps PaidAt and
// queues a receipt.
func (s *PaymentService) UpdateStatus(ctx context.Context, id uint, status models.PaymentStatus, method string) (*models.Payment, error) {
	if _, ok := models.ParsePaymentStatus(string(status)); !ok {
		return nil, invalid("status", "unknown status %q", status)
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	updates := map[string]interface{}{"status": status}
	if m := strings.TrimSpace(method); m != "" {
		updates["method"] = m
	}
	if status == models.PaymentPaid {
		updates["paid_at"] = s.now()
	}
	if err := s.DB.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update payment %d: %w", id, err)
	}

	p, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == models.PaymentPaid && p.User != nil {
		s.Notifier.Notify(ctx, utils.PaymentReceiptMail(p.User.Name, p.User.Email, p.ID, p.Amount, string(p.Type), utils.FormatDate(p.PaidAt)))
	}
	s.log.Info("payment status changed", zap.Uint("payment_id", id), zap.String("status", string(status)))
	return p, nil
}

func (s *PaymentService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Payment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete payment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
