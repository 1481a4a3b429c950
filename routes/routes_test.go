package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-backend/controllers"
	"hostel-backend/middleware"
	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, utils.Mail) {}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func (a apiClient) call(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (a apiClient) login(email, password string) services.LoginResult {
	a.t.Helper()
	code, env := a.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code, env.Error)
	var res services.LoginResult
	require.NoError(a.t, json.Unmarshal(env.Data, &res))
	return res
}

func newTestAPI(t *testing.T) (apiClient, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Name: "Admin", Email: "admin@hostel.local", Password: string(hash), Role: models.RoleAdmin,
	}).Error)

	log := zap.NewNop()
	n := discardNotifier{}
	authSvc := services.NewAuthService(db, n, services.AuthConfig{
		JWTSecret:    "routes-secret",
		JWTIssuer:    "hostel-test",
		SessionTTL:   time.Hour,
		FrontendURL:  "http://localhost:3000",
		PasswordCost: bcrypt.MinCost,
	}, log)
	userSvc := services.NewUserService(db, n, log)
	bookingSvc := services.NewBookingService(db, n, log)

	router := SetupRouter(Options{
		DB:            db,
		Log:           log,
		Authenticator: authSvc,
		AuthLimiter:   middleware.NewRateLimiter(100, 100),
		CORSOrigins:   []string{"http://localhost:3000"},
	}, Controllers{
		Auth:        controllers.NewAuthController(authSvc, userSvc),
		Users:       controllers.NewUserController(userSvc),
		Hostels:     controllers.NewHostelController(services.NewHostelService(db, log)),
		Rooms:       controllers.NewRoomController(services.NewRoomService(db, log)),
		Bookings:    controllers.NewBookingController(bookingSvc),
		Payments:    controllers.NewPaymentController(services.NewPaymentService(db, n, log)),
		Payroll:     controllers.NewPayrollController(services.NewPayrollService(db, n, log)),
		Expenses:    controllers.NewExpenseController(services.NewExpenseService(db, log)),
		Complaints:  controllers.NewComplaintController(services.NewComplaintService(db)),
		Leave:       controllers.NewLeaveController(services.NewLeaveService(db)),
		Maintenance: controllers.NewMaintenanceController(services.NewMaintenanceService(db)),
		MessMenu:    controllers.NewMessMenuController(services.NewMessMenuService(db)),
		Notices:     controllers.NewNoticeController(services.NewNoticeService(db)),
		Reports:     controllers.NewReportController(services.NewReportService(db), services.NewAutomationService(db, log)),
	})
	return apiClient{t: t, router: router}, db
}

func TestHealthAndMetrics(t *testing.T) {
	api, _ := newTestAPI(t)

	code, _ := api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestBookingFlowOverHTTP(t *testing.T) {
	api, db := newTestAPI(t)
	admin := api.login("admin@hostel.local", "admin-pass")

	code, env := api.call(http.MethodPost, "/api/hostels", admin.Token, gin.H{"name": "North Wing", "city": "Lahore"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var hostel models.Hostel
	require.NoError(t, json.Unmarshal(env.Data, &hostel))

	code, env = api.call(http.MethodPost, "/api/rooms", admin.Token, gin.H{
		"hostelId": hostel.ID, "roomNumber": "101", "capacity": 1, "monthlyRent": 15000,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var room models.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))

	code, env = api.call(http.MethodPost, "/api/bookings", admin.Token, gin.H{
		"roomId": room.ID, "name": "Hina", "email": "Hina@Example.com",
		"checkIn": "2026-11-01", "totalAmount": 15000,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var created services.BookingResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.NewUser)
	require.NotEmpty(t, created.TemporaryPassword)

	code, env = api.call(http.MethodPost, "/api/bookings", admin.Token, gin.H{
		"roomId": room.ID, "name": "Sana", "email": "sana@example.com", "checkIn": "2026-11-01",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	var stored models.Room
	require.NoError(t, db.First(&stored, room.ID).Error)
	assert.Equal(t, models.RoomOccupied, stored.Status)

	code, _ = api.call(http.MethodPost, "/api/bookings", admin.Token, gin.H{"roomId": room.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	// the provisioned guest must rotate the temporary password first
	guest := api.login("hina@example.com", created.TemporaryPassword)
	assert.True(t, guest.MustChangePassword)

	code, env = api.call(http.MethodGet, "/api/bookings", guest.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "password_change_required", env.Error)

	code, _ = api.call(http.MethodGet, "/api/user/me", guest.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.call(http.MethodPost, "/api/auth/change-password", guest.Token, gin.H{
		"currentPassword": created.TemporaryPassword, "newPassword": "my-own-password",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = api.call(http.MethodGet, "/api/bookings", guest.Token, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var list struct {
		Items []models.Booking `json:"items"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)

	code, _ = api.call(http.MethodPost, "/api/hostels", guest.Token, gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.call(http.MethodGet, "/api/reports/summary", guest.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.call(http.MethodGet, "/api/reports/summary", admin.Token, nil)
	assert.Equal(t, http.StatusOK, code, env.Error)

	code, _ = api.call(http.MethodPost, "/api/auth/logout", guest.Token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.call(http.MethodGet, "/api/user/me", guest.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func seedAccount(t *testing.T, db *gorm.DB, email string, role models.Role, hostelID *uint) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Name: email, Email: email, Password: string(hash), Role: role, HostelID: hostelID}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestWardenCannotWriteOutsideOwnHostel(t *testing.T) {
	api, db := newTestAPI(t)

	hostelA := &models.Hostel{Name: "A Block", City: "Lahore"}
	hostelB := &models.Hostel{Name: "B Block", City: "Lahore"}
	require.NoError(t, db.Create(hostelA).Error)
	require.NoError(t, db.Create(hostelB).Error)
	roomA := &models.Room{HostelID: hostelA.ID, RoomNumber: "A1", Capacity: 2, Status: models.RoomAvailable}
	roomB := &models.Room{HostelID: hostelB.ID, RoomNumber: "B1", Capacity: 2, Status: models.RoomAvailable}
	require.NoError(t, db.Create(roomA).Error)
	require.NoError(t, db.Create(roomB).Error)

	resident := seedAccount(t, db, "resident-a@example.com", models.RoleResident, &hostelA.ID)
	checkIn := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	bookingA := &models.Booking{
		ReferenceCode: "BK-A", UserID: resident.ID, RoomID: roomA.ID, HostelID: hostelA.ID,
		Status: models.BookingPending, CheckIn: &checkIn,
	}
	require.NoError(t, db.Create(bookingA).Error)
	paymentA := &models.Payment{BookingID: &bookingA.ID, UserID: resident.ID, HostelID: &hostelA.ID, Amount: 5000}
	require.NoError(t, db.Create(paymentA).Error)
	staffA := seedAccount(t, db, "staff-a@example.com", models.RoleStaff, &hostelA.ID)
	salaryA := &models.Salary{StaffID: staffA.ID, HostelID: &hostelA.ID, Month: "2026-10", BasicSalary: 30000, NetAmount: 30000}
	require.NoError(t, db.Create(salaryA).Error)

	seedAccount(t, db, "warden-b@example.com", models.RoleWarden, &hostelB.ID)
	warden := api.login("warden-b@example.com", "secret-pass").Token

	forbidden := []struct {
		name, method, path string
		body               interface{}
	}{
		{"cancel booking", http.MethodPatch, fmt.Sprintf("/api/bookings/%d/status", bookingA.ID), gin.H{"status": "CANCELLED"}},
		{"edit booking", http.MethodPut, fmt.Sprintf("/api/bookings/%d", bookingA.ID), gin.H{"notes": "moved"}},
		{"delete booking", http.MethodDelete, fmt.Sprintf("/api/bookings/%d", bookingA.ID), nil},
		{"book foreign room", http.MethodPost, "/api/bookings", gin.H{
			"roomId": roomA.ID, "name": "Intruder", "email": "intruder@example.com", "checkIn": "2026-11-02",
		}},
		{"charge foreign booking", http.MethodPost, "/api/payments", gin.H{"bookingId": bookingA.ID, "amount": 100}},
		{"settle foreign payment", http.MethodPatch, fmt.Sprintf("/api/payments/%d/status", paymentA.ID), gin.H{"status": "PAID"}},
		{"pay foreign salary", http.MethodPost, fmt.Sprintf("/api/salaries/%d/pay", salaryA.ID), nil},
		{"edit foreign salary", http.MethodPut, fmt.Sprintf("/api/salaries/%d", salaryA.ID), gin.H{"basicSalary": 1}},
		{"delete foreign salary", http.MethodDelete, fmt.Sprintf("/api/salaries/%d", salaryA.ID), nil},
		{"salary for foreign staff", http.MethodPost, "/api/salaries", gin.H{"staffId": staffA.ID, "month": "2026-11", "basicSalary": 1}},
		{"generate foreign payroll", http.MethodPost, "/api/salaries/generate", gin.H{"month": "2026-11", "hostelId": hostelA.ID}},
		{"edit foreign room", http.MethodPut, fmt.Sprintf("/api/rooms/%d", roomA.ID), gin.H{"capacity": 3}},
		{"move room into foreign hostel", http.MethodPut, fmt.Sprintf("/api/rooms/%d", roomB.ID), gin.H{"hostelId": hostelA.ID}},
	}
	for _, tc := range forbidden {
		t.Run(tc.name, func(t *testing.T) {
			code, env := api.call(tc.method, tc.path, warden, tc.body)
			assert.Equal(t, http.StatusForbidden, code, env.Error)
		})
	}

	var stored models.Booking
	require.NoError(t, db.First(&stored, bookingA.ID).Error)
	assert.Equal(t, models.BookingPending, stored.Status)
	assert.EqualValues(t, 1, countOf(t, db, &models.Booking{}))
	var salary models.Salary
	require.NoError(t, db.First(&salary, salaryA.ID).Error)
	assert.Equal(t, models.SalaryPending, salary.Status)
	var room models.Room
	require.NoError(t, db.First(&room, roomB.ID).Error)
	assert.Equal(t, hostelB.ID, room.HostelID)

	// the same warden still runs their own hostel
	code, env := api.call(http.MethodPost, "/api/bookings", warden, gin.H{
		"roomId": roomB.ID, "name": "Local", "email": "local@example.com", "checkIn": "2026-11-02",
	})
	assert.Equal(t, http.StatusCreated, code, env.Error)
	code, env = api.call(http.MethodPut, fmt.Sprintf("/api/rooms/%d", roomB.ID), warden, gin.H{"capacity": 3})
	assert.Equal(t, http.StatusOK, code, env.Error)
	code, env = api.call(http.MethodPost, "/api/salaries/generate", warden, gin.H{"month": "2026-11"})
	assert.Equal(t, http.StatusCreated, code, env.Error)

	admin := api.login("admin@hostel.local", "admin-pass").Token
	code, env = api.call(http.MethodPatch, fmt.Sprintf("/api/bookings/%d/status", bookingA.ID), admin, gin.H{"status": "CANCELLED"})
	assert.Equal(t, http.StatusOK, code, env.Error)
}

func countOf(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
