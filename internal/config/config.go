package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	AppBaseURL  string
	AdminAPIKey string

	// Deletion lifecycle durations. All overridable via env so nothing
	// about the workflow is hardcoded.
	TokenTTL       time.Duration
	GracePeriod    time.Duration
	ReminderLead   time.Duration
	ReminderBuffer time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "studyhub"),

		AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:3000"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		TokenTTL:       getDurationEnv("DELETION_TOKEN_TTL", 24*time.Hour),
		GracePeriod:    getDurationEnv("DELETION_GRACE_PERIOD", 7*24*time.Hour),
		ReminderLead:   getDurationEnv("REMINDER_LEAD", 24*time.Hour),
		ReminderBuffer: getDurationEnv("REMINDER_BUFFER", 2*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@studyhub.app"),
	}

	log.Println("✅ Config loaded")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  Invalid duration for %s (%q), using default %s", key, v, fallback)
		return fallback
	}
	return d
}
