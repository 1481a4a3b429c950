package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App is the runtime configuration, read from the environment (and .env when present).
type App struct {
	Env      string
	Port     string
	LogLevel string

	DBDriver  string // mysql | postgres | sqlite
	DBPath    string // sqlite only
	TxTimeout time.Duration

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	CORSOrigins []string
	FrontendURL string

	SMTP SMTP

	NotifyQueue string // memory | redis
	RedisAddr   string
	RedisKey    string

	AutomationSchedule string

	RateLimitRPS   float64
	RateLimitBurst int
}

type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// Configured reports whether real delivery is possible.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.Port != "" && s.Username != "" && s.Password != ""
}

// Load reads .env (optional) and the environment.
func Load() App {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	return App{
		Env:      envOrDefault("APP_ENV", "development"),
		Port:     envOrDefault("PORT", "8080"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBDriver:  strings.ToLower(envOrDefault("DB_DRIVER", "mysql")),
		DBPath:    envOrDefault("DB_PATH", "hostel.db"),
		TxTimeout: durationEnv("DB_TX_TIMEOUT", 10*time.Second),

		JWTSecret:  envOrDefault("JWT_SECRET", "dev-signing-secret-change"),
		JWTIssuer:  envOrDefault("JWT_ISSUER", "hostel-backend"),
		SessionTTL: durationEnv("SESSION_TTL", 24*time.Hour),

		CORSOrigins: parseList(os.Getenv("CORS_ORIGINS")),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),

		SMTP: SMTP{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:     strings.TrimSpace(os.Getenv("SMTP_PORT")),
			Username: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
			Password: os.Getenv("SMTP_PASSWORD"),
			FromName: envOrDefault("SMTP_FROM_NAME", "Hostel Management"),
		},

		NotifyQueue: strings.ToLower(envOrDefault("NOTIFY_QUEUE", "memory")),
		RedisAddr:   envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisKey:    envOrDefault("REDIS_NOTIFY_KEY", "hostel:notifications"),

		AutomationSchedule: envOrDefault("AUTOMATION_SCHEDULE", "@every 15m"),

		RateLimitRPS:   floatEnv("RATE_LIMIT_RPS", 5),
		RateLimitBurst: intEnv("RATE_LIMIT_BURST", 10),
	}
}

func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("invalid int for %s: %v, using fallback %d", key, err, fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Printf("invalid float for %s: %v, using fallback %v", key, err, fallback)
			return fallback
		}
		return f
	}
	return fallback
}
