package api

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/mfalicoff/kosync/docs"
	"github.com/mfalicoff/kosync/internal/api/handler"
	"github.com/mfalicoff/kosync/internal/api/metrics"
	"github.com/mfalicoff/kosync/internal/api/middleware"
	"github.com/mfalicoff/kosync/internal/core/service"
	mongodb "github.com/mfalicoff/kosync/internal/infrastructure/db/mongo"
	redisdb "github.com/mfalicoff/kosync/internal/infrastructure/db/redis"
)

// Options carries the decisions the router needs from configuration.
type Options struct {
	RegistrationEnabled bool
	TrustedProxies      []string
}

// NewRouter builds and returns the Echo instance with all routes registered.
// The redis client is optional; without it the failed-auth throttle and its
// readiness check are disabled.
func NewRouter(opts Options, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.ClientIP(opts.TrustedProxies))
	e.Use(requestLogger(log, len(opts.TrustedProxies) > 0))
	e.Use(echoprometheus.NewMiddleware("kosync"))

	// --- Dependencies ---
	repo := mongodb.NewUserRepository(db)
	authService := service.NewAuthService(repo, log)
	syncService := service.NewSyncService(repo, log)
	userService := service.NewUserService(repo, opts.RegistrationEnabled, log)

	metrics.RegisterDocumentGauge(func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		total, err := repo.TotalDocumentCount(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("document count unavailable")
			return 0
		}
		return float64(total)
	})

	var throttle middleware.Throttle
	if rdb != nil {
		throttle = redisdb.NewAuthThrottle(rdb)
	}
	authenticated := middleware.Auth(authService, throttle, log)
	adminOnly := middleware.RequireAdmin()

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)
	userHandler := handler.NewUserHandler(userService)
	syncHandler := handler.NewSyncHandler(syncService)
	manageHandler := handler.NewManageHandler(userService)

	// --- Anonymous routes ---
	e.GET("/", healthHandler.Index)
	e.GET("/healthcheck", healthHandler.HealthCheck)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)
	e.POST("/users/create", userHandler.Register)

	// --- Device protocol (authenticated policy) ---
	e.GET("/users/auth", userHandler.CheckAuth, authenticated)
	e.PUT("/syncs/progress", syncHandler.UpdateProgress, authenticated)
	e.GET("/syncs/progress/:documentHash", syncHandler.GetProgress, authenticated)

	// --- Management surface (administrator policy) ---
	manage := e.Group("/manage", authenticated, adminOnly)
	manage.GET("/users", manageHandler.ListUsers)
	manage.POST("/users", manageHandler.CreateUser)
	manage.DELETE("/users", manageHandler.DeleteUser)
	manage.PUT("/users/active", manageHandler.SetActive)
	manage.PUT("/users/password", manageHandler.SetPassword)
	manage.GET("/users/documents", manageHandler.ListDocuments)
	manage.DELETE("/users/documents", manageHandler.DeleteDocument)

	return e
}

// requestLogger emits one structured line per request. When trusted proxies
// are configured, requests arriving from any other address are marked with a
// trailing "*" on the client IP, matching the log attribution contract.
func requestLogger(log zerolog.Logger, proxiesConfigured bool) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ip := middleware.ClientIPFromContext(c)
			if proxiesConfigured && !middleware.TrustedProxyFromContext(c) {
				ip += "*"
			}

			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error()
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("client_ip", ip).
				Msg("request")
			return nil
		},
	})
}
