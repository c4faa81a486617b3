package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/cohort-admin-api/api/swagger"
	"github.com/noah-isme/cohort-admin-api/internal/app"
	"github.com/noah-isme/cohort-admin-api/internal/service"
	"github.com/noah-isme/cohort-admin-api/pkg/config"
	"github.com/noah-isme/cohort-admin-api/pkg/database"
	"github.com/noah-isme/cohort-admin-api/pkg/kvstore"
	"github.com/noah-isme/cohort-admin-api/pkg/logger"
)

// @title Cohort Admin API
// @version 1.0.0
// @description Administration of site and category cohorts: listings, rosters, enrolled courses and bulk deletion.
// @BasePath /api/v1
// @schemes http
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

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cohorts.ReplayGuardEnable {
		redisClient, err = kvstore.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("replay guard enabled but redis unavailable", zap.Error(err))
		}
		defer redisClient.Close()
	} else {
		logr.Warn("replay guard disabled; confirmation tokens are reusable until expiry")
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	svc := app.NewServices(cfg, db, redisClient, metrics, logr)
	r := app.NewRouter(cfg, svc, db, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
