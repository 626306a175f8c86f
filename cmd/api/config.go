package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/cache"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/esolat"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/notifier"
)

const defaultTimezone = "Asia/Kuala_Lumpur"

type config struct {
	Port            string
	DatabaseURL     string
	Redis           cache.RedisConfig
	VAPID           notifier.VAPIDConfig
	FrontendBaseURL string
	CORSOrigins     string
	Timezone        string
	Location        *time.Location
	ESolatURL       string
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig(getenv func(string) string) (*config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := &config{
		Port:            env("PORT", "8080"),
		DatabaseURL:     getenv("DATABASE_URL"),
		FrontendBaseURL: env("FRONTEND_BASE_URL", "http://localhost:5500"),
		CORSOrigins:     env("CORS_ORIGINS", "*"),
		Timezone:        env("TIMEZONE", defaultTimezone),
		ESolatURL:       env("ESOLAT_URL", esolat.DefaultURL),
		JWTSecret:       getenv("JWT_SECRET"),
		JWTIssuer:       env("JWT_ISSUER", "fasting-tracker"),
		VAPID: notifier.VAPIDConfig{
			PublicKey:  getenv("VAPID_PUBLIC_KEY"),
			PrivateKey: getenv("VAPID_PRIVATE_KEY"),
			Subject:    env("VAPID_SUBJECT", "mailto:admin@example.com"),
		},
		Redis: cache.RedisConfig{
			URL:      getenv("REDIS_URL"),
			Host:     getenv("REDIS_HOST"),
			Port:     env("REDIS_PORT", "6379"),
			Password: getenv("REDIS_PASSWORD"),
		},
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getenv("DB_USER"), getenv("DB_PASSWORD"),
			env("DB_HOST", "localhost"), env("DB_PORT", "5432"), env("DB_NAME", "fasting"))
	}

	if cfg.VAPID.PublicKey == "" || cfg.VAPID.PrivateKey == "" {
		return nil, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.TokenTTL, err = tokenTTL(getenv); err != nil {
		return nil, err
	}

	if db := getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q", db)
		}
		cfg.Redis.DB = n
	}

	return cfg, nil
}

func tokenTTL(getenv func(string) string) (time.Duration, error) {
	raw := getenv("JWT_TTL_HOURS")
	if raw == "" {
		return 24 * time.Hour, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("invalid JWT_TTL_HOURS %q", raw)
	}
	return time.Duration(hours) * time.Hour, nil
}
