package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/handler"
	"github.com/noah-isme/cohort-admin-api/internal/middleware"
	"github.com/noah-isme/cohort-admin-api/internal/models"
	"github.com/noah-isme/cohort-admin-api/pkg/config"
	"github.com/noah-isme/cohort-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cohort-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cohort-admin-api/pkg/middleware/requestid"
)

// NewRouter builds the HTTP surface. db backs the readiness probe and may be nil in tests.
func NewRouter(cfg *config.Config, svc *Services, db handler.Pinger, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.Metrics))

	metricsHandler := handler.NewMetricsHandler(svc.Metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cohortHandler := handler.NewCohortHandler(svc.Cohorts, svc.Exports, svc.Deletes)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(svc.Auth))
	api.Use(middleware.RequireRoles(models.RoleSiteAdmin, models.RoleManager, models.RoleTeacher))

	cohorts := api.Group("/cohorts")
	cohorts.GET("", cohortHandler.List)
	cohorts.GET("/export", cohortHandler.Export)
	cohorts.POST("/delete/request", cohortHandler.RequestDelete)
	cohorts.POST("/delete/confirm", cohortHandler.ConfirmDelete)
	cohorts.GET("/:id", cohortHandler.Get)
	cohorts.GET("/:id/counts", cohortHandler.Counts)
	cohorts.GET("/:id/members", cohortHandler.Members)
	cohorts.GET("/:id/courses", cohortHandler.Courses)

	return r
}
