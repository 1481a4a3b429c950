package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hostel-backend/models"
)

func newAuthService(db *gorm.DB) (*AuthService, *recordingNotifier) {
	n := &recordingNotifier{}
	svc := NewAuthService(db, n, AuthConfig{
		JWTSecret:    "test-secret",
		JWTIssuer:    "hostel-test",
		SessionTTL:   time.Hour,
		FrontendURL:  "http://localhost:3000/",
		PasswordCost: bcrypt.MinCost,
	}, nopLogger())
	return svc, n
}

func TestAuth_RegisterLoginAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ali", Email: " Ali@Example.com ", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, u.Role)
	assert.Equal(t, "ali@example.com", u.Email)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ali", Email: "ali@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Login(ctx, "ali@example.com", "wrong-password", "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "longenough", "ua", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, "ALI@example.com", "longenough", "test-agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.MustChangePassword)

	p, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, models.RoleGuest, p.Role)
	assert.NotZero(t, p.SessionID)

	_, err = svc.Authenticate(ctx, res.Token+"x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, p))
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, svc.Logout(ctx, p), ErrSessionNotFound)
}

func TestAuth_RegisterRejectsPrivilegedRoles(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)

	for _, role := range []string{"ADMIN", "warden", "STAFF", "king"} {
		_, err := svc.Register(context.Background(), RegisterInput{Name: "X", Email: role + "@example.com", Password: "longenough", Role: role})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, role)
	}

	_, err := svc.Register(context.Background(), RegisterInput{Name: "X", Email: "short@example.com", Password: "short"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	u, err := svc.Register(context.Background(), RegisterInput{Name: "R", Email: "r@example.com", Password: "longenough", Role: "resident"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, u.Role)
}

func TestAuth_RoleComesFromStoredUser(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)
	ctx := context.Background()
	u := seedUser(t, db, "promoted@example.com", models.RoleStaff, nil)

	res, err := svc.Login(ctx, u.Email, "password123", "", "")
	require.NoError(t, err)

	require.NoError(t, db.Model(u).Update("role", models.RoleWarden).Error)
	p, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleWarden, p.Role)
}

func TestAuth_SessionExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)
	ctx := context.Background()
	seedUser(t, db, "exp@example.com", models.RoleResident, nil)

	res, err := svc.Login(ctx, "exp@example.com", "password123", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_ChangePasswordClearsRotationFlag(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)
	ctx := context.Background()
	u := seedUser(t, db, "rotate@example.com", models.RoleGuest, nil)
	require.NoError(t, db.Model(u).Update("must_change_password", true).Error)

	res, err := svc.Login(ctx, u.Email, "password123", "", "")
	require.NoError(t, err)
	assert.True(t, res.MustChangePassword)

	var verr *ValidationError
	assert.ErrorAs(t, svc.ChangePassword(ctx, u.ID, "not-it", "brand-new-pass"), &verr)
	assert.ErrorAs(t, svc.ChangePassword(ctx, u.ID, "password123", "password123"), &verr)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "brand-new-pass"))
	p, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, p.MustChangePassword)

	_, err = svc.Login(ctx, u.Email, "brand-new-pass", "", "")
	assert.NoError(t, err)
}

var resetTokenPattern = regexp.MustCompile(`reset-password\?token=([0-9a-f]+)`)

func TestAuth_ForgotAndResetPassword(t *testing.T) {
	db := setupTestDB(t)
	svc, notifier := newAuthService(db)
	ctx := context.Background()
	u := seedUser(t, db, "forgot@example.com", models.RoleResident, nil)

	session, err := svc.Login(ctx, u.Email, "password123", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, notifier.sent())

	require.NoError(t, svc.ForgotPassword(ctx, "FORGOT@example.com"))
	mails := notifier.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, u.Email, mails[0].To)
	m := resetTokenPattern.FindStringSubmatch(mails[0].Text)
	require.Len(t, m, 2)
	token := m[1]
	assert.Contains(t, mails[0].Text, "http://localhost:3000/reset-password?token=")

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	require.NotNil(t, stored.ResetToken)
	assert.NotEqual(t, token, *stored.ResetToken, "only the hash is stored")

	assert.ErrorIs(t, svc.ResetPassword(ctx, "deadbeef", "another-pass"), ErrInvalidToken)

	require.NoError(t, svc.ResetPassword(ctx, token, "another-pass"))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken, "reset signs out every session")

	_, err = svc.Login(ctx, u.Email, "another-pass", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "third-pass!"), ErrInvalidToken, "token is single use")
}

func TestAuth_ResetTokenExpires(t *testing.T) {
	db := setupTestDB(t)
	svc, notifier := newAuthService(db)
	ctx := context.Background()
	seedUser(t, db, "late@example.com", models.RoleResident, nil)

	require.NoError(t, svc.ForgotPassword(ctx, "late@example.com"))
	m := resetTokenPattern.FindStringSubmatch(notifier.sent()[0].Text)
	require.Len(t, m, 2)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, svc.ResetPassword(ctx, m[1], "too-late-pass"), ErrInvalidToken)
}

func TestAuth_Sessions(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAuthService(db)
	ctx := context.Background()
	u := seedUser(t, db, "multi@example.com", models.RoleResident, nil)

	laptop, err := svc.Login(ctx, u.Email, "password123", "laptop", "")
	require.NoError(t, err)
	phone, err := svc.Login(ctx, u.Email, "password123", "phone", "")
	require.NoError(t, err)

	list, err := svc.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	p, err := svc.Authenticate(ctx, laptop.Token)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeOthers(ctx, p))

	_, err = svc.Authenticate(ctx, phone.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Authenticate(ctx, laptop.Token)
	assert.NoError(t, err)

	other := seedUser(t, db, "other@example.com", models.RoleResident, nil)
	assert.ErrorIs(t, svc.RevokeSession(ctx, other.ID, p.SessionID), ErrSessionNotFound)

	list, err = svc.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "laptop", list[0].UserAgent)
}
