package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/library-seat-api/api/swagger"
	"github.com/noah-isme/library-seat-api/internal/backend"
	"github.com/noah-isme/library-seat-api/internal/events"
	"github.com/noah-isme/library-seat-api/internal/handler"
	"github.com/noah-isme/library-seat-api/internal/repository"
	"github.com/noah-isme/library-seat-api/internal/service"
	"github.com/noah-isme/library-seat-api/pkg/cache"
	"github.com/noah-isme/library-seat-api/pkg/config"
	"github.com/noah-isme/library-seat-api/pkg/database"
	"github.com/noah-isme/library-seat-api/pkg/jobs"
	"github.com/noah-isme/library-seat-api/pkg/logger"
)

// @title Library Seat Admin API
// @version 1.0.0
// @description Derived seating chart and booking approval workflow for the library admin dashboard.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	checks := []handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Seating.LocksEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and seat locks", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}

	var db *sqlx.DB
	if cfg.Audit.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Warn("postgres unavailable, assignment audit disabled", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
			checks = append(checks, handler.ReadinessCheck{Name: "postgres", Check: db.PingContext})
		}
	}

	backendClient := backend.NewClient(backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		ServiceToken: cfg.Backend.ServiceToken,
	}, nil, metrics, logr)

	cacheRepo := repository.NewCacheRepository(redisClient, "library-seat", logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	chartSvc := service.NewChartService(backendClient, cacheSvc, metrics, logr, service.ChartConfig{
		StudentLimit: cfg.Backend.StudentLimit,
		CacheTTL:     cfg.Cache.TTL,
	})

	var locks *repository.SeatLockRepository
	if cfg.Seating.LocksEnabled && redisClient != nil {
		locks = repository.NewSeatLockRepository(redisClient, "library-seat:lock")
	}

	var audits *repository.AuditRepository
	if db != nil {
		audits = repository.NewAuditRepository(db)
		if err := audits.EnsureSchema(ctx); err != nil {
			logr.Warn("failed to prepare audit table, assignment audit disabled", zap.Error(err))
			audits = nil
		}
	}

	var eventSvc *service.EventService
	if cfg.Events.Enabled {
		publisher := events.NewAMQPPublisher(cfg.Events.AMQPURL, logr)
		defer publisher.Close() //nolint:errcheck
		eventSvc = service.NewEventService(publisher, metrics, logr, service.EventConfig{
			Topic: cfg.Events.Queue,
			Queue: jobs.QueueConfig{
				Workers:    cfg.Events.Workers,
				MaxRetries: cfg.Events.MaxRetries,
				RetryDelay: cfg.Events.RetryDelay,
			},
		})
		eventSvc.Start(ctx)
		defer eventSvc.Stop()
	}

	approvalSvc := service.NewApprovalService(
		backendClient,
		chartSvc,
		optionalLocker(locks),
		optionalAudit(audits),
		optionalEvents(eventSvc),
		metrics,
		validator.New(),
		logr,
		service.ApprovalConfig{LockTTL: cfg.Seating.LockTTL},
	)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := newRouter(cfg, logr, routerDeps{
		auth:     authSvc,
		metrics:  metrics,
		seats:    handler.NewSeatHandler(chartSvc),
		bookings: handler.NewBookingHandler(approvalSvc),
		health:   handler.NewMetricsHandler(metrics, checks...),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}

// The optional* helpers keep typed nil pointers out of the service's interfaces.

func optionalLocker(r *repository.SeatLockRepository) service.SeatLocker {
	if r == nil {
		return nil
	}
	return r
}

func optionalAudit(r *repository.AuditRepository) service.AuditStore {
	if r == nil {
		return nil
	}
	return r
}

func optionalEvents(s *service.EventService) service.SeatEventSink {
	if s == nil {
		return nil
	}
	return s
}
