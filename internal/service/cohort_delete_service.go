package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/dto"
	"github.com/noah-isme/cohort-admin-api/internal/models"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
	"github.com/noah-isme/cohort-admin-api/pkg/token"
)

const (
	nothingSelectedMessage = "no cohorts selected"

	deleteOutcomeDeleted = "deleted"
	deleteOutcomeSkipped = "skipped"
	deleteOutcomeFailed  = "failed"
)

type cohortDeleteStore interface {
	FindByID(ctx context.Context, id int64) (*models.Cohort, error)
	CountMembers(ctx context.Context, cohortID int64, mode models.MemberCountMode) (int, error)
	Delete(ctx context.Context, cohortID int64) error
}

type nonceStore interface {
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

type deleteRecorder interface {
	RecordCohortDeletion(outcome string)
	RecordRejectedConfirmation(reason string)
}

// CohortDeleteService runs the two step bulk delete: a request that issues a token and a confirm that consumes it.
type CohortDeleteService struct {
	repo      cohortDeleteStore
	authz     capabilityAuthorizer
	signer    *token.ConfirmationSigner
	nonces    nonceStore
	metrics   deleteRecorder
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCohortDeleteService wires the delete workflow. A nil nonce store disables single use enforcement.
func NewCohortDeleteService(
	repo cohortDeleteStore,
	authz capabilityAuthorizer,
	signer *token.ConfirmationSigner,
	nonces nonceStore,
	metrics deleteRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *CohortDeleteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CohortDeleteService{
		repo:      repo,
		authz:     authz,
		signer:    signer,
		nonces:    nonces,
		metrics:   metrics,
		sanitizer: bluemonday.StrictPolicy(),
		validator: validate,
		logger:    logger,
	}
}

// Request summarises the selected cohorts and issues a confirmation token. Nothing is deleted.
func (s *CohortDeleteService) Request(ctx context.Context, claims *models.JWTClaims, req dto.DeleteRequest) (*dto.DeleteConfirmation, error) {
	if err := s.authorize(ctx, claims, req); err != nil {
		return nil, err
	}

	ids := token.CanonicalIDs(req.IDs)
	if len(ids) == 0 {
		return &dto.DeleteConfirmation{NothingSelected: true, Message: nothingSelectedMessage}, nil
	}

	cohorts, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(cohorts) == 0 {
		return &dto.DeleteConfirmation{NothingSelected: true, Message: nothingSelectedMessage}, nil
	}

	resolved := make([]int64, 0, len(cohorts))
	items := make([]dto.DeleteSummaryItem, 0, len(cohorts))
	for _, cohort := range cohorts {
		members, err := s.repo.CountMembers(ctx, cohort.ID, models.MemberCountAll)
		if err != nil {
			return nil, s.storeFailure(err, cohort.ID, "failed to count cohort members")
		}
		suspended, err := s.repo.CountMembers(ctx, cohort.ID, models.MemberCountSuspended)
		if err != nil {
			return nil, s.storeFailure(err, cohort.ID, "failed to count suspended members")
		}
		resolved = append(resolved, cohort.ID)
		items = append(items, dto.DeleteSummaryItem{
			ID:               cohort.ID,
			Name:             s.sanitizer.Sanitize(cohort.Name),
			MemberCount:      members,
			SuspendedMembers: suspended,
		})
	}

	confirmation, err := s.signer.Issue(claims.UserID, resolved)
	if err != nil {
		s.logger.Error("issue delete confirmation failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue confirmation")
	}
	expiresAt := confirmation.ExpiresAt

	return &dto.DeleteConfirmation{
		Message:   fmt.Sprintf("confirm deletion of %d cohort(s)", len(items)),
		IDs:       resolved,
		Items:     items,
		Token:     confirmation.Token,
		ExpiresAt: &expiresAt,
	}, nil
}

// Confirm verifies the token against the resubmitted selection and deletes each cohort that still exists.
// Deletion continues past failures; the first failure is reported in the result.
func (s *CohortDeleteService) Confirm(ctx context.Context, claims *models.JWTClaims, req dto.ConfirmDeleteRequest) (*dto.DeleteResult, error) {
	if err := s.authorize(ctx, claims, req); err != nil {
		return nil, err
	}

	ids := token.CanonicalIDs(req.IDs)
	confirmation, err := s.signer.Verify(req.Token, claims.UserID, ids)
	if err != nil {
		if errors.Is(err, token.ErrSecretMissing) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "confirmation signing is not configured")
		}
		return nil, s.reject(claims, rejectionReason(err), err)
	}

	if s.nonces != nil {
		fresh, err := s.nonces.Consume(ctx, confirmation.Nonce, s.signer.TTL())
		if err != nil {
			s.logger.Error("consume confirmation nonce failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record confirmation")
		}
		if !fresh {
			return nil, s.reject(claims, "reused", errors.New("confirmation token already used"))
		}
	}

	result := &dto.DeleteResult{DeletedIDs: []int64{}, SkippedIDs: []int64{}}
	var firstErr string
	fail := func(id int64, err error, msg string) {
		s.logger.Error(msg, zap.Int64("cohort_id", id), zap.Int64("actor_id", claims.UserID), zap.Error(err))
		s.record(deleteOutcomeFailed)
		if firstErr == "" {
			firstErr = fmt.Sprintf("%s %d", msg, id)
		}
	}

	for _, id := range ids {
		cohort, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.SkippedIDs = append(result.SkippedIDs, id)
				s.record(deleteOutcomeSkipped)
				continue
			}
			fail(id, err, "failed to load cohort")
			continue
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			fail(id, err, "failed to delete cohort")
			continue
		}
		result.DeletedIDs = append(result.DeletedIDs, id)
		s.record(deleteOutcomeDeleted)
		s.logger.Info("cohort deleted",
			zap.Int64("cohort_id", id),
			zap.String("name", cohort.Name),
			zap.Int64("actor_id", claims.UserID),
		)
	}

	result.DeletedCount = len(result.DeletedIDs)
	result.FirstError = firstErr
	result.Message = fmt.Sprintf("%d cohort(s) deleted", result.DeletedCount)
	return result, nil
}

func (s *CohortDeleteService) authorize(ctx context.Context, claims *models.JWTClaims, req interface{}) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cohort selection")
	}
	ok, err := s.authz.HasCapability(ctx, claims, models.CapabilityCohortManage, models.SystemContextID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "missing capability "+models.CapabilityCohortManage)
	}
	return nil
}

// resolve loads cohorts in id order, skipping ids that no longer exist.
func (s *CohortDeleteService) resolve(ctx context.Context, ids []int64) ([]models.Cohort, error) {
	cohorts := make([]models.Cohort, 0, len(ids))
	for _, id := range ids {
		cohort, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, s.storeFailure(err, id, "failed to load cohort")
		}
		cohorts = append(cohorts, *cohort)
	}
	return cohorts, nil
}

func (s *CohortDeleteService) storeFailure(err error, cohortID int64, msg string) error {
	s.logger.Error(msg, zap.Int64("cohort_id", cohortID), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func (s *CohortDeleteService) reject(claims *models.JWTClaims, reason string, err error) error {
	s.logger.Warn("delete confirmation rejected", zap.Int64("actor_id", claims.UserID), zap.String("reason", reason), zap.Error(err))
	if s.metrics != nil {
		s.metrics.RecordRejectedConfirmation(reason)
	}
	return appErrors.Wrap(err, appErrors.ErrReplayRejected.Code, appErrors.ErrReplayRejected.Status, appErrors.ErrReplayRejected.Message)
}

func (s *CohortDeleteService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCohortDeletion(outcome)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrActorMismatch):
		return "actor"
	case errors.Is(err, token.ErrSelectionMismatch):
		return "selection"
	case errors.Is(err, token.ErrSignature):
		return "signature"
	default:
		return "malformed"
	}
}
