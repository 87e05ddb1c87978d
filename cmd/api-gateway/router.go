package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/labgate-api/api/swagger"
	"github.com/noah-isme/labgate-api/internal/handler"
	"github.com/noah-isme/labgate-api/internal/middleware"
	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/internal/service"
	"github.com/noah-isme/labgate-api/pkg/config"
	"github.com/noah-isme/labgate-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/labgate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/labgate-api/pkg/middleware/requestid"
)

type routes struct {
	credentials *handler.CredentialHandler
	scanner     *handler.ScanHandler
	attendance  *handler.AttendanceHandler
	exports     *handler.ExportHandler
	health      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, auth *service.AuthService, h routes) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// signed tokens authorise downloads on their own
	api.GET("/attendance/exports/download/:token", h.exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	me := secured.Group("/me/credential")
	me.POST("", h.credentials.Bind)
	me.GET("", h.credentials.Current)
	me.DELETE("", h.credentials.Unbind)
	me.GET("/qr.png", h.credentials.QRCode)
	me.POST("/refresh", h.credentials.Refresh)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleElevated))

	admin.GET("/scanner/controller/status", h.scanner.ControllerStatus)
	admin.POST("/scanner/:device/scans", h.scanner.Scan)
	admin.POST("/scanner/:device/signal/retry", h.scanner.RetrySignal)

	admin.GET("/attendance", h.attendance.List)
	admin.POST("/attendance/:id/close", h.attendance.Close)
	admin.POST("/sessions/:id/close", h.attendance.CloseSession)

	admin.POST("/attendance/exports", h.exports.Create)
	admin.GET("/attendance/exports/:id", h.exports.Status)

	return r
}
