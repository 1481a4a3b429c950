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

	"hostel-backend/models"
	"hostel-backend/utils"
)

type UserService struct {
	DB           *gorm.DB
	Notifier     Notifier
	LoginURL     string
	PasswordCost int
	log          *zap.Logger
}

func NewUserService(db *gorm.DB, notifier Notifier, log *zap.Logger) *UserService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UserService{DB: db, Notifier: notifier, PasswordCost: bcrypt.DefaultCost, log: log.Named("user")}
}

type UserInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	CNIC     string  `json:"cnic"`
	Address  string  `json:"address"`
	Role     string  `json:"role"`
	HostelID *uint   `json:"hostelId"`
	Password *string `json:"password"`

	GuardianName     string `json:"guardianName"`
	GuardianPhone    string `json:"guardianPhone"`
	EmergencyContact string `json:"emergencyContact"`

	Designation string     `json:"designation"`
	BaseSalary  float64    `json:"baseSalary"`
	JoinedAt    *time.Time `json:"joinedAt"`
}

type CreatedUser struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword,omitempty"`
}

// Create provisions an account of any role. Without a password a temporary one
// is generated and must be rotated at first login.
func (s *UserService) Create(ctx context.Context, in UserInput) (*CreatedUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, invalid("email", "a valid email is required")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, invalid("role", "unknown role %q", in.Role)
	}

	password, temporary := "", ""
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		password = *in.Password
	} else {
		p, err := utils.GenerateTemporaryPassword()
		if err != nil {
			return nil, fmt.Errorf("generate temporary password: %w", err)
		}
		password, temporary = p, p
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		Name:               in.Name,
		Email:              in.Email,
		Phone:              strings.TrimSpace(in.Phone),
		CNIC:               strings.TrimSpace(in.CNIC),
		Address:            strings.TrimSpace(in.Address),
		Role:               role,
		HostelID:           in.HostelID,
		Password:           string(hash),
		MustChangePassword: temporary != "",
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			if isDuplicate(err) {
				return conflict("email_taken", "email is already registered")
			}
			return fmt.Errorf("create user: %w", err)
		}
		return s.saveProfile(tx, &u, in)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, utils.WelcomeMail(u.Name, u.Email, temporary, s.LoginURL))
	s.log.Info("user created", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))

	out, err := s.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &CreatedUser{User: out, TemporaryPassword: temporary}, nil
}

// saveProfile upserts the role-specific profile row.
func (s *UserService) saveProfile(tx *gorm.DB, u *models.User, in UserInput) error {
	switch u.Role {
	case models.RoleResident, models.RoleGuest:
		if in.GuardianName == "" && in.GuardianPhone == "" && in.EmergencyContact == "" {
			return nil
		}
		var p models.ResidentProfile
		err := tx.Where("user_id = ?", u.ID).First(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load resident profile: %w", err)
		}
		p.UserID = u.ID
		p.GuardianName = in.GuardianName
		p.GuardianPhone = in.GuardianPhone
		p.EmergencyContact = in.EmergencyContact
		p.Address = u.Address
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("save resident profile: %w", err)
		}
	case models.RoleStaff, models.RoleWarden:
		if in.Designation == "" && in.BaseSalary == 0 && in.JoinedAt == nil {
			return nil
		}
		if in.BaseSalary < 0 {
			return invalid("baseSalary", "must not be negative")
		}
		var p models.StaffProfile
		err := tx.Where("user_id = ?", u.ID).First(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load staff profile: %w", err)
		}
		p.UserID = u.ID
		p.Designation = in.Designation
		p.BaseSalary = in.BaseSalary
		if in.JoinedAt != nil {
			p.JoinedAt = in.JoinedAt
		}
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("save staff profile: %w", err)
		}
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).
		Preload("ResidentProfile").
		Preload("StaffProfile").
		First(&u, id).Error
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &u, nil
}

type UserFilter struct {
	Role     models.Role
	HostelID *uint
	Search   string
	Page
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var list []models.User
	if err := f.Page.apply(q).Order("name").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return list, total, nil
}

// Update edits a user. Role and hostel changes are only honoured for admins.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, in UserInput) (*models.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrNotAllowed
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
		u.Name = name
	}
	if in.Phone != "" {
		updates["phone"] = strings.TrimSpace(in.Phone)
	}
	if in.CNIC != "" {
		updates["cnic"] = strings.TrimSpace(in.CNIC)
	}
	if in.Address != "" {
		updates["address"] = strings.TrimSpace(in.Address)
		u.Address = strings.TrimSpace(in.Address)
	}
	if actor.IsAdmin() {
		if in.Email != "" {
			updates["email"] = utils.NormalizeEmail(in.Email)
		}
		if in.Role != "" {
			role, ok := models.ParseRole(in.Role)
			if !ok {
				return nil, invalid("role", "unknown role %q", in.Role)
			}
			updates["role"] = role
			u.Role = role
		}
		if in.HostelID != nil {
			updates["hostel_id"] = *in.HostelID
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.User{ID: id}).Updates(updates).Error; err != nil {
				if isDuplicate(err) {
					return conflict("email_taken", "email is already registered")
				}
				return fmt.Errorf("update user %d: %w", id, err)
			}
		}
		return s.saveProfile(tx, u, in)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a user who holds no active booking and revokes their sessions.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("user_id = ? AND status NOT IN ?", id, models.InactiveBookingStatuses).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count bookings of user %d: %w", id, err)
		}
		if active > 0 {
			return conflict("user_has_bookings", "user has active bookings")
		}
		if err := tx.Model(&models.Session{}).
			Where("user_id = ? AND revoked_at IS NULL", id).
			Update("revoked_at", time.Now()).Error; err != nil {
			return fmt.Errorf("revoke sessions of user %d: %w", id, err)
		}
		if err := tx.Delete(&u).Error; err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		return nil
	})
}
