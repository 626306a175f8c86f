package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	webpush "github.com/SherClockHolmes/webpush-go"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/cache"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/esolat"
	adapterHTTP "github.com/syaqirshaq/fasting-tracker/internal/adapters/handler/http"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/handler/http/middleware"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/notifier"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/repository"
	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
	"github.com/syaqirshaq/fasting-tracker/internal/core/workers"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "vapid":
			generateVAPID()
			return
		case "token":
			issueToken(os.Args[2:])
			return
		}
	}

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Critical: %v", err)
	}
}

func run(cfg *config) error {
	startTime := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.MigratePostgres(ctx, db); err != nil {
		return err
	}
	log.Println("Database connected successfully.")

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, running without cache and rate limit: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Println("Redis connected successfully.")
		}
	}

	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		cfg.JWTSecret = hex.EncodeToString(secret)
		log.Println("Warning: JWT_SECRET not set, using a random secret for this run.")
	}

	subRepo := repository.NewPostgresSubscriptionRepository(db)
	var windowCache domain.WindowCache = repository.NewPostgresWindowRepository(db)
	if rdb != nil {
		windowCache = repository.NewCachedWindowRepository(windowCache, rdb)
	}

	source := esolat.NewSource(cfg.ESolatURL, nil)
	windowService := services.NewWindowService(windowCache, source, cfg.Location)
	subscriptionService := services.NewSubscriptionService(subRepo)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	sender := notifier.NewWebPushSender(subRepo, cfg.VAPID, &http.Client{Timeout: 30 * time.Second})
	reminders := workers.NewReminderWorker(subRepo, windowService, sender, cfg.FrontendBaseURL, cfg.Location)
	reminders.Start(ctx)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		ConfigHandler: adapterHTTP.NewConfigHandler(domain.RemoteConfig{
			Timezone:        cfg.Timezone,
			VAPIDPublicKey:  cfg.VAPID.PublicKey,
			FrontendBaseURL: cfg.FrontendBaseURL,
		}),
		SubscriptionHandler: adapterHTTP.NewSubscriptionHandler(subscriptionService),
		WindowHandler:       adapterHTTP.NewWindowHandler(windowService),
		AdminHandler:        adapterHTTP.NewAdminHandler(reminders),
		TokenService:        tokenService,
		DB:                  db,
		Redis:               rdb,
		AllowedOrigins:      middleware.ParseOrigins(cfg.CORSOrigins),
		StartTime:           startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Fasting tracker backend running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("Server stopped gracefully.")
	return nil
}

func generateVAPID() {
	private, public, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", public, private)
}

func issueToken(args []string) {
	operator := "operator"
	if len(args) > 0 {
		operator = args[0]
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("Critical: JWT_SECRET must be set to issue tokens")
	}

	ttl, err := tokenTTL(os.Getenv)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	token, err := services.NewTokenService(secret, getEnv("JWT_ISSUER", "fasting-tracker"), ttl).GenerateToken(operator)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}
	fmt.Println(token)
}
