package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/config"
	"hostel-backend/controllers"
	"hostel-backend/middleware"
	"hostel-backend/notify"
	"hostel-backend/routes"
	"hostel-backend/services"
	"hostel-backend/utils"
)

func notificationQueue(app config.App, log *zap.Logger) notify.Queue {
	if app.NotifyQueue == "redis" {
		log.Info("notification queue: redis", zap.String("addr", app.RedisAddr))
		return notify.NewRedisQueue(notify.NewRedisClient(app.RedisAddr), app.RedisKey, log)
	}
	return notify.NewInMemory(256)
}

func serve(app config.App, log *zap.Logger, db *gorm.DB) error {
	if app.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer := utils.NewSMTPMailer(utils.SMTPSettings{
		Host:     app.SMTP.Host,
		Port:     app.SMTP.Port,
		Username: app.SMTP.Username,
		Password: app.SMTP.Password,
		FromName: app.SMTP.FromName,
	}, log.Named("mail"))
	dispatcher := notify.NewDispatcher(notificationQueue(app, log), mailer, log)
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			log.Error("notification worker stopped", zap.Error(err))
		}
	}()

	loginURL := app.FrontendURL + "/login"

	authSvc := services.NewAuthService(db, dispatcher, services.AuthConfig{
		JWTSecret:   app.JWTSecret,
		JWTIssuer:   app.JWTIssuer,
		SessionTTL:  app.SessionTTL,
		FrontendURL: app.FrontendURL,
	}, log)
	userSvc := services.NewUserService(db, dispatcher, log)
	userSvc.LoginURL = loginURL
	bookingSvc := services.NewBookingService(db, dispatcher, log)
	bookingSvc.LoginURL = loginURL
	bookingSvc.TxTimeout = app.TxTimeout
	automationSvc := services.NewAutomationService(db, log)

	ctl := routes.Controllers{
		Auth:        controllers.NewAuthController(authSvc, userSvc),
		Users:       controllers.NewUserController(userSvc),
		Hostels:     controllers.NewHostelController(services.NewHostelService(db, log)),
		Rooms:       controllers.NewRoomController(services.NewRoomService(db, log)),
		Bookings:    controllers.NewBookingController(bookingSvc),
		Payments:    controllers.NewPaymentController(services.NewPaymentService(db, dispatcher, log)),
		Payroll:     controllers.NewPayrollController(services.NewPayrollService(db, dispatcher, log)),
		Expenses:    controllers.NewExpenseController(services.NewExpenseService(db, log)),
		Complaints:  controllers.NewComplaintController(services.NewComplaintService(db)),
		Leave:       controllers.NewLeaveController(services.NewLeaveService(db)),
		Maintenance: controllers.NewMaintenanceController(services.NewMaintenanceService(db)),
		MessMenu:    controllers.NewMessMenuController(services.NewMessMenuService(db)),
		Notices:     controllers.NewNoticeController(services.NewNoticeService(db)),
		Reports:     controllers.NewReportController(services.NewReportService(db), automationSvc),
	}

	limiter := middleware.NewRateLimiter(app.RateLimitRPS, app.RateLimitBurst)
	limiter.StartCleanup(ctx, 5*time.Minute)

	router := routes.SetupRouter(routes.Options{
		DB:            db,
		Log:           log,
		Authenticator: authSvc,
		AuthLimiter:   limiter,
		CORSOrigins:   app.CORSOrigins,
	}, ctl)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(app.AutomationSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := automationSvc.Sync(runCtx, time.Now()); err != nil {
			log.Error("automation sync failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := ":" + app.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received, shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
