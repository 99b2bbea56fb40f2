package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	JWTSecret string

	// Timezone interprets calendar days for the sweep and the module clock.
	Timezone string

	// GraceMinutes is how long after a module's start a check-in is still valid.
	GraceMinutes  int
	SweepInterval time.Duration

	IdentityBaseURL string
	IdentityToken   string

	// SeedHorizonDays is how far ahead reservation slots are pre-created.
	SeedHorizonDays int
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASS"),
		DBName:     getEnv("DB_NAME", "campus_reserve"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "12345"),

		Timezone: getEnv("TIMEZONE", "America/Santiago"),

		IdentityBaseURL: os.Getenv("IDENTITY_BASE_URL"),
		IdentityToken:   os.Getenv("IDENTITY_TOKEN"),
	}

	var err error
	cfg.GraceMinutes, err = strconv.Atoi(getEnv("CHECKIN_GRACE_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKIN_GRACE_MINUTES: %w", err)
	}

	cfg.SweepInterval, err = time.ParseDuration(getEnv("SWEEP_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	cfg.SeedHorizonDays, err = strconv.Atoi(getEnv("SEED_HORIZON_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_HORIZON_DAYS: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
