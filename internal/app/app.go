package app

import (
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/repository"
	"github.com/noah-isme/cohort-admin-api/internal/service"
	"github.com/noah-isme/cohort-admin-api/pkg/config"
	"github.com/noah-isme/cohort-admin-api/pkg/token"
)

// Services bundles the wired service layer shared by the API server and the CLI.
type Services struct {
	Auth    *service.AuthService
	Authz   *service.AuthzService
	Cohorts *service.CohortService
	Deletes *service.CohortDeleteService
	Exports *service.ExportService
	Metrics *service.MetricsService
}

// NewServices wires repositories and services. A nil redis client disables single use confirmation tokens.
func NewServices(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()

	cohortRepo := repository.NewCohortRepository(db, cfg.Cohorts.EnrolMethod, repository.LikeSearch{})
	contextRepo := repository.NewContextRepository(db)
	capabilityRepo := repository.NewCapabilityRepository(db)

	authz := service.NewAuthzService(capabilityRepo, logger.Named("authz"))
	cohorts := service.NewCohortService(cohortRepo, contextRepo, authz, metrics, validate, logger.Named("cohorts"), service.CohortConfig{
		PageSize:         cfg.Cohorts.PageSize,
		MaxPageSize:      cfg.Cohorts.MaxPageSize,
		HiddenContextIDs: cfg.Cohorts.HiddenContextIDs,
	})

	signer := token.NewConfirmationSigner(cfg.Cohorts.ConfirmSecret, cfg.Cohorts.ConfirmTTL)
	nonces := repository.NewConfirmationRepository(redisClient)
	deletes := service.NewCohortDeleteService(cohortRepo, authz, signer, nonces, metrics, validate, logger.Named("cohort_delete"))

	return &Services{
		Auth:    service.NewAuthService(logger.Named("auth"), service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		Authz:   authz,
		Cohorts: cohorts,
		Deletes: deletes,
		Exports: service.NewExportService(cohorts, metrics, logger.Named("export"), service.ExportConfig{MaxRows: cfg.Cohorts.ExportMaxRows}),
		Metrics: metrics,
	}
}
