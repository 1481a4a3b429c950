package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/controllers"
	"hostel-backend/metrics"
	"hostel-backend/middleware"
	"hostel-backend/models"
)

// Controllers groups every handler set mounted under /api.
type Controllers struct {
	Auth        *controllers.AuthController
	Users       *controllers.UserController
	Hostels     *controllers.HostelController
	Rooms       *controllers.RoomController
	Bookings    *controllers.BookingController
	Payments    *controllers.PaymentController
	Payroll     *controllers.PayrollController
	Expenses    *controllers.ExpenseController
	Complaints  *controllers.ComplaintController
	Leave       *controllers.LeaveController
	Maintenance *controllers.MaintenanceController
	MessMenu    *controllers.MessMenuController
	Notices     *controllers.NoticeController
	Reports     *controllers.ReportController
}

type Options struct {
	DB            *gorm.DB
	Log           *zap.Logger
	Authenticator middleware.Authenticator
	AuthLimiter   *middleware.RateLimiter
	CORSOrigins   []string
}

var (
	admins   = []models.Role{models.RoleAdmin}
	managers = []models.Role{models.RoleAdmin, models.RoleWarden}
	staff    = []models.Role{models.RoleAdmin, models.RoleWarden, models.RoleStaff}
)

func corsConfig(origins []string) cors.Config {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}

func SetupRouter(opts Options, ctl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(opts.Log),
		middleware.Logger(),
		middleware.Recovery(),
		metrics.Middleware(),
		cors.New(corsConfig(opts.CORSOrigins)),
	)

	r.GET("/health", health(opts.DB))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	public := api.Group("/auth")
	if opts.AuthLimiter != nil {
		public.Use(opts.AuthLimiter.Middleware())
	}
	{
		public.POST("/login", ctl.Auth.Login)
		public.POST("/register", ctl.Auth.Register)
		public.POST("/forgot", ctl.Auth.ForgotPassword)
		public.POST("/reset", ctl.Auth.ResetPassword)
	}

	protected := api.Group("")
	protected.Use(
		middleware.Authenticate(opts.Authenticator),
		middleware.RequirePasswordRotated("/api/auth", "/api/user/"),
	)

	auth := protected.Group("/auth")
	{
		auth.POST("/change-password", ctl.Auth.ChangePassword)
		auth.POST("/logout", ctl.Auth.Logout)
	}

	me := protected.Group("/user")
	{
		me.GET("/me", ctl.Auth.Me)
		me.PUT("/me", ctl.Auth.UpdateMe)
		me.GET("/sessions", ctl.Auth.GetSessions)
		me.DELETE("/sessions/:id", ctl.Auth.RevokeSession)
		me.POST("/sessions/revoke-others", ctl.Auth.RevokeOtherSessions)
	}

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(managers...), ctl.Users.GetUsers)
		users.GET("/:id", middleware.RequireRoles(managers...), ctl.Users.GetUser)
		users.POST("", middleware.RequireRoles(admins...), ctl.Users.CreateUser)
		users.PUT("/:id", middleware.RequireRoles(admins...), ctl.Users.UpdateUser)
		users.DELETE("/:id", middleware.RequireRoles(admins...), ctl.Users.DeleteUser)
	}

	hostels := protected.Group("/hostels")
	{
		hostels.GET("", ctl.Hostels.GetHostels)
		hostels.GET("/:id", ctl.Hostels.GetHostel)
		hostels.GET("/:id/stats", middleware.RequireRoles(managers...), ctl.Hostels.GetStats)
		hostels.POST("", middleware.RequireRoles(admins...), ctl.Hostels.CreateHostel)
		hostels.PUT("/:id", middleware.RequireRoles(admins...), ctl.Hostels.UpdateHostel)
		hostels.DELETE("/:id", middleware.RequireRoles(admins...), ctl.Hostels.DeleteHostel)
		hostels.POST("/:id/wardens", middleware.RequireRoles(admins...), ctl.Hostels.AssignWarden)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", ctl.Rooms.GetRooms)
		// must stay ahead of /:id
		rooms.GET("/availability", ctl.Rooms.GetAvailability)
		rooms.GET("/:id", ctl.Rooms.GetRoom)
		rooms.POST("", middleware.RequireRoles(managers...), ctl.Rooms.CreateRoom)
		rooms.PUT("/:id", middleware.RequireRoles(managers...), ctl.Rooms.UpdateRoom)
		rooms.PATCH("/:id/status", middleware.RequireRoles(staff...), ctl.Rooms.SetRoomStatus)
		rooms.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Rooms.DeleteRoom)
	}

	bookings := protected.Group("/bookings")
	{
		bookings.GET("", ctl.Bookings.GetBookings)
		bookings.GET("/:id", ctl.Bookings.GetBooking)
		bookings.POST("", middleware.RequireRoles(managers...), ctl.Bookings.CreateBooking)
		bookings.PUT("/:id", middleware.RequireRoles(managers...), ctl.Bookings.UpdateBooking)
		bookings.PATCH("/:id/status", middleware.RequireRoles(managers...), ctl.Bookings.UpdateBookingStatus)
		bookings.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Bookings.DeleteBooking)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", ctl.Payments.GetPayments)
		payments.GET("/:id", ctl.Payments.GetPayment)
		payments.POST("", middleware.RequireRoles(managers...), ctl.Payments.CreatePayment)
		payments.PATCH("/:id/status", middleware.RequireRoles(managers...), ctl.Payments.UpdatePaymentStatus)
		payments.DELETE("/:id", middleware.RequireRoles(admins...), ctl.Payments.DeletePayment)
	}

	salaries := protected.Group("/salaries")
	{
		salaries.GET("", middleware.RequireRoles(staff...), ctl.Payroll.GetSalaries)
		salaries.GET("/:id", middleware.RequireRoles(staff...), ctl.Payroll.GetSalary)
		salaries.POST("", middleware.RequireRoles(managers...), ctl.Payroll.CreateSalary)
		salaries.POST("/generate", middleware.RequireRoles(managers...), ctl.Payroll.GenerateSalaries)
		salaries.PUT("/:id", middleware.RequireRoles(managers...), ctl.Payroll.UpdateSalary)
		salaries.POST("/:id/pay", middleware.RequireRoles(managers...), ctl.Payroll.PaySalary)
		salaries.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Payroll.DeleteSalary)
	}

	wardenSalary := protected.Group("/warden-salary")
	{
		wardenSalary.GET("", middleware.RequireRoles(managers...), ctl.Payroll.GetWardenPayments)
		wardenSalary.POST("", middleware.RequireRoles(admins...), ctl.Payroll.CreateWardenPayment)
		wardenSalary.PUT("/:id", middleware.RequireRoles(admins...), ctl.Payroll.UpdateWardenPayment)
		wardenSalary.POST("/:id/pay", middleware.RequireRoles(admins...), ctl.Payroll.PayWarden)
		wardenSalary.DELETE("/:id", middleware.RequireRoles(admins...), ctl.Payroll.DeleteWardenPayment)
	}

	expenses := protected.Group("/expenses", middleware.RequireRoles(staff...))
	{
		expenses.GET("", ctl.Expenses.GetExpenses)
		expenses.GET("/export", middleware.RequireRoles(managers...), ctl.Expenses.ExportExpenses)
		expenses.POST("", ctl.Expenses.CreateExpense)
		expenses.PUT("/:id", middleware.RequireRoles(managers...), ctl.Expenses.UpdateExpense)
		expenses.PATCH("/:id/status", middleware.RequireRoles(managers...), ctl.Expenses.SetExpenseStatus)
		expenses.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Expenses.DeleteExpense)
	}

	complaints := protected.Group("/complaints")
	{
		complaints.GET("", ctl.Complaints.GetComplaints)
		complaints.GET("/:id", ctl.Complaints.GetComplaint)
		complaints.POST("", ctl.Complaints.CreateComplaint)
		complaints.PUT("/:id", middleware.RequireRoles(staff...), ctl.Complaints.UpdateComplaint)
		complaints.DELETE("/:id", ctl.Complaints.DeleteComplaint)
	}

	leave := protected.Group("/leave")
	{
		leave.GET("", ctl.Leave.GetLeaves)
		leave.POST("", ctl.Leave.CreateLeave)
		leave.POST("/:id/review", middleware.RequireRoles(managers...), ctl.Leave.ReviewLeave)
		leave.POST("/:id/cancel", ctl.Leave.CancelLeave)
	}

	maintenance := protected.Group("/maintenance")
	{
		maintenance.GET("", ctl.Maintenance.GetRequests)
		maintenance.POST("", ctl.Maintenance.CreateRequest)
		maintenance.PATCH("/:id/status", middleware.RequireRoles(staff...), ctl.Maintenance.SetStatus)
		maintenance.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Maintenance.DeleteRequest)
	}

	menu := protected.Group("/mess-menu")
	{
		menu.GET("", ctl.MessMenu.GetMenu)
		menu.PUT("", middleware.RequireRoles(staff...), ctl.MessMenu.UpsertMenu)
		menu.DELETE("/:hostelId/:day", middleware.RequireRoles(managers...), ctl.MessMenu.DeleteMenu)
	}

	notices := protected.Group("/notices")
	{
		notices.GET("", ctl.Notices.GetNotices)
		notices.POST("", middleware.RequireRoles(managers...), ctl.Notices.CreateNotice)
		notices.PUT("/:id", middleware.RequireRoles(managers...), ctl.Notices.UpdateNotice)
		notices.DELETE("/:id", middleware.RequireRoles(managers...), ctl.Notices.DeleteNotice)
	}

	reports := protected.Group("/reports", middleware.RequireRoles(managers...))
	{
		reports.GET("/summary", ctl.Reports.GetSummary)
		reports.GET("/trend", ctl.Reports.GetTrend)
		reports.GET("/hostels", middleware.RequireRoles(admins...), ctl.Reports.GetHostelBreakdown)
		reports.GET("/export", ctl.Reports.ExportReport)
	}

	automation := protected.Group("/automation", middleware.RequireRoles(managers...))
	{
		automation.POST("/sync", middleware.RequireRoles(admins...), ctl.Reports.SyncAutomation)
		automation.GET("/logs", ctl.Reports.GetAutomationLogs)
	}

	return r
}
