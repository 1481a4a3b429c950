package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-backend/models"
	"hostel-backend/utils"
)

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "hostel_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

func resolvePostgresDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if raw != "" {
		return raw, nil
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOrDefault("DB_HOST", "127.0.0.1"),
		envOrDefault("DB_PORT", "5432"),
		envOrDefault("DB_USER", "postgres"),
		envOrDefault("DB_PASS", ""),
		envOrDefault("DB_NAME", "hostel_db"),
		envOrDefault("DB_SSLMODE", "disable"),
	), nil
}

func dialector(app App) (gorm.Dialector, error) {
	switch app.DBDriver {
	case "mysql", "":
		dsn, err := resolveMySQLDSN()
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		dsn, err := resolvePostgresDSN()
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(app.DBPath), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", app.DBDriver)
}

// ConnectDatabase opens the configured database with gorm logging routed through zap.
func ConnectDatabase(app App, log *zap.Logger) (*gorm.DB, error) {
	d, err := dialector(app)
	if err != nil {
		return nil, err
	}

	level := logger.Info
	if app.Production() {
		level = logger.Warn
	}
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !app.Production(),
		},
	)

	db, err := gorm.Open(d, &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if app.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// SeedDatabase ensures an ADMIN account exists. When ADMIN_PASSWORD is unset a
// random one is generated, written once to console (never to the log), and must
// be rotated on first login.
func SeedDatabase(db *gorm.DB, log *zap.Logger, console io.Writer) error {
	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		log.Info("admin already seeded")
		return nil
	}

	email := envOrDefault("ADMIN_EMAIL", "admin@hostel.local")
	password := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
	mustChange := false
	if password == "" {
		generated, err := utils.GenerateTemporaryPassword()
		if err != nil {
			return err
		}
		password = generated
		mustChange = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Name:               "Administrator",
		Email:              email,
		Role:               models.RoleAdmin,
		Password:           string(hash),
		MustChangePassword: mustChange,
	}
	if err := db.Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("seed admin: %s already exists with another role", email)
		}
		return fmt.Errorf("seed admin: %w", err)
	}

	if mustChange {
		log.Warn("default admin seeded with a generated password; change it on first login",
			zap.String("email", email))
		if _, err := fmt.Fprintf(console, "admin %s temporary password: %s\n", email, password); err != nil {
			return fmt.Errorf("print admin password: %w", err)
		}
	} else {
		log.Info("default admin seeded", zap.String("email", email))
	}
	return nil
}
