package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
	// lastSeenEvery throttles session LastSeenAt writes.
	lastSeenEvery = time.Minute
)

type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	SessionTTL   time.Duration
	FrontendURL  string
	PasswordCost int
}

// AuthService issues and validates sessions. The caller's role always comes
// from the stored user behind a live session.
type AuthService struct {
	DB       *gorm.DB
	Notifier Notifier
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, notifier Notifier, cfg AuthConfig, log *zap.Logger) *AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	return &AuthService{DB: db, Notifier: notifier, cfg: cfg, log: log.Named("auth"), now: time.Now}
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLength {
		return invalid("password", "must be at least %d characters", minPasswordLength)
	}
	return nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register is self sign-up; only GUEST and RESIDENT accounts can be created this way.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, invalid("email", "a valid email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := models.RoleGuest
	if in.Role != "" {
		r, ok := models.ParseRole(in.Role)
		if !ok || (r != models.RoleGuest && r != models.RoleResident) {
			return nil, invalid("role", "self registration is limited to GUEST or RESIDENT")
		}
		role = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     role,
		Password: string(hash),
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("email_taken", "email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

type LoginResult struct {
	Token              string       `json:"token"`
	ExpiresAt          time.Time    `json:"expiresAt"`
	User               *models.User `json:"user"`
	MustChangePassword bool         `json:"mustChangePassword"`
}

func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ip string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var u models.User
	if err := s.DB.WithContext(ctx).Where("LOWER(email) = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		s.log.Info("login failed", zap.String("email", utils.MaskEmail(email)), zap.String("ip", ip))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := models.Session{
		UserID:     u.ID,
		TokenID:    utils.NewRequestID(),
		UserAgent:  truncate(userAgent, 255),
		IP:         truncate(ip, 64),
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
		LastSeenAt: &now,
	}
	if err := s.DB.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := utils.IssueToken(u.ID, string(u.Role), u.HostelID, sess.TokenID, s.cfg.JWTIssuer, s.cfg.JWTSecret, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("login", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: &u, MustChangePassword: u.MustChangePassword}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Principal is the authenticated caller behind a request.
type Principal struct {
	Actor
	SessionID          uint
	MustChangePassword bool
}

// Authenticate resolves a bearer token to its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := utils.ParseToken(token, s.cfg.JWTSecret, s.cfg.JWTIssuer)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	db := s.DB.WithContext(ctx)
	var sess models.Session
	if err := db.Where("token_id = ?", claims.ID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	now := s.now()
	if sess.UserID != userID || !sess.Active(now) {
		return nil, ErrInvalidToken
	}

	var u models.User
	if err := db.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if sess.LastSeenAt == nil || now.Sub(*sess.LastSeenAt) >= lastSeenEvery {
		if err := db.Model(&sess).Update("last_seen_at", now).Error; err != nil {
			s.log.Warn("touch session", zap.Uint("session_id", sess.ID), zap.Error(err))
		}
	}

	return &Principal{
		Actor:              Actor{ID: u.ID, Role: u.Role, HostelID: u.HostelID},
		SessionID:          sess.ID,
		MustChangePassword: u.MustChangePassword,
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, userID).Error; err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return invalid("currentPassword", "is incorrect")
	}
	if current == next {
		return invalid("newPassword", "must differ from the current password")
	}
	return s.setPassword(ctx, &u, next)
}

func (s *AuthService) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.DB.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"password":             string(hash),
		"must_change_password": false,
		"reset_token":          nil,
		"reset_token_expires":  nil,
	}).Error
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword stores a one-hour reset token and mails the link. Unknown
// addresses succeed silently so the endpoint does not reveal accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return invalid("email", "is required")
	}
	var u models.User
	if err := s.DB.WithContext(ctx).Where("LOWER(email) = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"reset_token":         hashResetToken(token),
		"reset_token_expires": s.now().Add(resetTokenTTL),
	}).Error; err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password?token=" + token
	s.Notifier.Notify(ctx, utils.PasswordResetMail(u.Name, u.Email, link))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	var u models.User
	if err := s.DB.WithContext(ctx).Where("reset_token = ?", hashResetToken(token)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.ResetTokenExpires == nil || s.now().After(*u.ResetTokenExpires) {
		return ErrInvalidToken
	}
	if err := s.setPassword(ctx, &u, password); err != nil {
		return err
	}
	// a reset signs out every device
	return s.revokeAll(ctx, u.ID)
}

func (s *AuthService) revokeAll(ctx context.Context, userID uint) error {
	err := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// ListSessions returns the user's unrevoked, unexpired sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID uint) ([]models.Session, error) {
	var list []models.Session
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, s.now()).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("revoke session %d: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Logout revokes the session behind the current token.
func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	return s.RevokeSession(ctx, p.ID, p.SessionID)
}

// RevokeOthers signs out every other device of the user.
func (s *AuthService) RevokeOthers(ctx context.Context, p *Principal) error {
	err := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND id <> ? AND revoked_at IS NULL", p.ID, p.SessionID).
		Update("revoked_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}
