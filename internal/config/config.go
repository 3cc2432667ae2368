package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	DATABASE_URL   string
	JWT_SECRET     string
	REFRESH_SECRET string
	BASE_URL       string
	SMTP_HOST      string
	SMTP_PORT      string
	SMTP_USER      string
	SMTP_PASSWORD  string
	MAIL_FROM      string
	KAFKA_ADDRESS  string
	LOG_LEVEL      string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DATABASE_URL:   os.Getenv("DATABASE_URL"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		BASE_URL:       os.Getenv("BASE_URL"),
		SMTP_HOST:      os.Getenv("SMTP_HOST"),
		SMTP_PORT:      os.Getenv("SMTP_PORT"),
		SMTP_USER:      os.Getenv("SMTP_USER"),
		SMTP_PASSWORD:  os.Getenv("SMTP_PASSWORD"),
		MAIL_FROM:      os.Getenv("MAIL_FROM"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		LOG_LEVEL:      os.Getenv("LOG_LEVEL"),
		AccessTTL:      durationEnv("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL:     durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}

	return config, nil
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, falling back to %s", name, raw, fallback)
		return fallback
	}
	return d
}
