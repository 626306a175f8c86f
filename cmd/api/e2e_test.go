package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/syaqirshaq/fasting-tracker/internal/adapters/handler/http"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/repository"
	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
	"github.com/syaqirshaq/fasting-tracker/internal/core/workers"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig(t *testing.T) {
	base := map[string]string{
		"VAPID_PUBLIC_KEY":  "pub",
		"VAPID_PRIVATE_KEY": "priv",
	}

	t.Run("Success: Defaults", func(t *testing.T) {
		cfg, err := loadConfig(mapEnv(base))

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Location.String())
		assert.Equal(t, "mailto:admin@example.com", cfg.VAPID.Subject)
		assert.Equal(t, "http://localhost:5500", cfg.FrontendBaseURL)
		assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
		assert.Contains(t, cfg.DatabaseURL, "@localhost:5432/fasting")
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("Success: Overrides", func(t *testing.T) {
		env := map[string]string{
			"VAPID_PUBLIC_KEY":  "pub",
			"VAPID_PRIVATE_KEY": "priv",
			"DATABASE_URL":      "postgres://u:p@db:5432/x",
			"REDIS_HOST":        "cache",
			"REDIS_DB":          "3",
			"TIMEZONE":          "UTC",
			"JWT_TTL_HOURS":     "2",
		}

		cfg, err := loadConfig(mapEnv(env))

		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, 3, cfg.Redis.DB)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	})

	t.Run("Fail: VAPID keys are required", func(t *testing.T) {
		_, err := loadConfig(mapEnv(map[string]string{"VAPID_PUBLIC_KEY": "pub"}))
		assert.ErrorContains(t, err, "VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set")
	})

	t.Run("Fail: Bad values", func(t *testing.T) {
		for key, value := range map[string]string{
			"TIMEZONE":      "Mars/Olympus",
			"JWT_TTL_HOURS": "-1",
			"REDIS_DB":      "one",
		} {
			env := map[string]string{"VAPID_PUBLIC_KEY": "pub", "VAPID_PRIVATE_KEY": "priv", key: value}
			_, err := loadConfig(mapEnv(env))
			assert.Error(t, err, key)
		}
	})
}

type recordingSender struct{ payloads []domain.PushPayload }

func (s *recordingSender) SendBatch(ctx context.Context, subs []*domain.SubscriptionRecord, p domain.PushPayload) domain.SendReport {
	s.payloads = append(s.payloads, p)
	return domain.SendReport{Success: len(subs)}
}

type fixedSource struct{}

func (fixedSource) Fetch(ctx context.Context, year int) (*domain.RamadanWindow, error) {
	return &domain.RamadanWindow{StartDate: "2026-02-18", EndDate: "2026-03-19"}, nil
}

func setupTestDB(t *testing.T) *sqlx.DB {
	_ = godotenv.Load("../../.env")

	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		dsn = "postgres://" + getEnv("DB_USER", "fasting_user") + ":" + getEnv("DB_PASSWORD", "secret") +
			"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") + "/" +
			getEnv("DB_NAME", "fasting_db") + "?sslmode=disable"
	}

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		t.Skipf("Skipping E2E test (Postgres down): %v", err)
	}
	require.NoError(t, repository.MigratePostgres(context.Background(), db))
	return db
}

func TestEndToEnd_SubscriptionLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := setupTestDB(t)
	defer db.Close()

	_, err := db.Exec("TRUNCATE TABLE push_subscriptions, ramadan_window_cache")
	require.NoError(t, err)

	subRepo := repository.NewPostgresSubscriptionRepository(db)
	windowSvc := services.NewWindowService(repository.NewPostgresWindowRepository(db), fixedSource{}, time.UTC)
	sender := &recordingSender{}
	reminders := workers.NewReminderWorker(subRepo, windowSvc, sender, "https://app.example", time.UTC)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		ConfigHandler:       adapterHTTP.NewConfigHandler(domain.RemoteConfig{VAPIDPublicKey: "pub"}),
		SubscriptionHandler: adapterHTTP.NewSubscriptionHandler(services.NewSubscriptionService(subRepo)),
		WindowHandler:       adapterHTTP.NewWindowHandler(windowSvc),
		AdminHandler:        adapterHTTP.NewAdminHandler(reminders),
		TokenService:        services.NewTokenService("e2e", "e2e", time.Hour),
		DB:                  db,
		StartTime:           time.Now(),
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("1. Subscribe", func(t *testing.T) {
		w := post("/api/subscribe", `{"subscription":{"endpoint":"https://push.example/e2e","keys":{"p256dh":"k","auth":"a"}}}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("2. Reminder goes out before the answer", func(t *testing.T) {
		morning := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
		_, sent := reminders.RunCheckinJob(ctx, morning)
		assert.True(t, sent)
	})

	t.Run("3. Check in", func(t *testing.T) {
		w := post("/api/checkin", `{"endpoint":"https://push.example/e2e","date":"2026-02-20","status":"not_fasting"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("4. No reminder after the answer", func(t *testing.T) {
		afternoon := time.Date(2026, 2, 20, 14, 0, 0, 0, time.UTC)
		_, sent := reminders.RunCheckinJob(ctx, afternoon)
		assert.False(t, sent)
		assert.Len(t, sender.payloads, 1)
	})

	t.Run("5. Ramadan window is cached in Postgres", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ramadan-window", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		cached, err := repository.NewPostgresWindowRepository(db).Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, "2026-03-19", cached.EndDate)
	})
}
