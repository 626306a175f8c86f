package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/handler/http/middleware"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
)

type RouterDependencies struct {
	ConfigHandler       *ConfigHandler
	SubscriptionHandler *SubscriptionHandler
	WindowHandler       *WindowHandler
	AdminHandler        *AdminHandler
	TokenService        *services.TokenService
	DB                  *sqlx.DB
	Redis               *redis.Client
	AllowedOrigins      []string
	StartTime           time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(deps.AllowedOrigins))

	if deps.Redis != nil {
		limiter := middleware.NewRateLimiter(deps.Redis, DefaultRateLimit, DefaultRateLimitWindow, "/health")
		router.Use(limiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		dbStatus := "connected"
		if deps.DB == nil || deps.DB.PingContext(c.Request.Context()) != nil {
			dbStatus = "unreachable"
		}

		// Redis is optional, so its absence does not fail the check.
		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := http.StatusOK
		status := "ok"
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = http.StatusServiceUnavailable
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"ok":       statusCode == http.StatusOK,
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	api := router.Group("/api")

	deps.ConfigHandler.RegisterRoutes(api)
	deps.SubscriptionHandler.RegisterRoutes(api)
	deps.WindowHandler.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.OperatorAuth(deps.TokenService))
	{
		deps.AdminHandler.RegisterRoutes(protected)
	}

	return router
}
