package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/config"
	"github.com/kmutua/feedback-gateway/internal/http/middleware"
	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/service/directory"
	"github.com/kmutua/feedback-gateway/internal/service/greeting"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	customersRepo := repository.NewCustomersRepository(mysqlDB)
	feedbackRepo := repository.NewFeedbackRepository(mysqlDB)
	notificationsRepo := repository.NewNotificationsRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	chNotificationsRepo := repository.NewCHNotificationsRepository(clickhouseDB)

	// services
	directorySvc := directory.New(customersRepo)
	greetingSvc := greeting.New(mysqlDB, notificationsRepo, outboxRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/", statusHandler())
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	secretMW := middleware.WebhookSecretMiddleware(cfg.HTTP.WebhookSecret)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     cfg.RateLimit.RPS,
		KeyPrefix:      "rl:src:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// Daraja callbacks
	mp := e.Group("/mpesa", secretMW)
	mp.POST("/confirmation", paymentConfirmationHandler(directorySvc, greetingSvc))
	mp.POST("/validation", paymentValidationHandler())

	// feedback + reports
	v1 := e.Group("/v1")
	v1.POST("/feedback", storeFeedbackHandler(directorySvc, feedbackRepo), rlMW)
	v1.GET("/customers", listCustomersHandler(customersRepo))
	v1.GET("/reports/notifications", listNotificationsHandler(chNotificationsRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func statusHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "The API is working",
			"status":  "online",
			"version": "1.0.0",
		})
	}
}
