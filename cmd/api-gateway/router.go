package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/library-seat-api/internal/handler"
	"github.com/noah-isme/library-seat-api/internal/middleware"
	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/service"
	"github.com/noah-isme/library-seat-api/pkg/config"
	"github.com/noah-isme/library-seat-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/library-seat-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/library-seat-api/pkg/middleware/requestid"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type routerDeps struct {
	auth     tokenValidator
	metrics  *service.MetricsService
	seats    *handler.SeatHandler
	bookings *handler.BookingHandler
	health   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.auth), middleware.RBAC(models.RoleAdmin))
	{
		api.GET("/stats", deps.seats.Stats)

		seats := api.Group("/seats")
		seats.GET("/chart", deps.seats.Chart)
		seats.GET("/chart/export", deps.seats.Export)
		seats.GET("/preferred", deps.seats.PreferredSeat)

		bookings := api.Group("/bookings")
		bookings.GET("", deps.bookings.List)
		bookings.GET("/audits", deps.bookings.Audits)
		bookings.POST("/bulk-assign", deps.bookings.BulkAssign)
		bookings.POST("/:id/approve", deps.bookings.Approve)
		bookings.POST("/:id/reject", deps.bookings.Reject)
	}

	return r
}
