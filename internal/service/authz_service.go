package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/cohort-admin-api/internal/models"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
)

type capabilityStore interface {
	HasCapability(ctx context.Context, userID int64, capability string, contextID int64) (bool, error)
}

// AuthzService answers capability checks for authenticated callers.
type AuthzService struct {
	caps   capabilityStore
	logger *zap.Logger
}

// NewAuthzService constructs the authorization collaborator.
func NewAuthzService(caps capabilityStore, logger *zap.Logger) *AuthzService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthzService{caps: caps, logger: logger}
}

// HasCapability reports whether claims grant capability in contextID. Site administrators hold every capability.
func (s *AuthzService) HasCapability(ctx context.Context, claims *models.JWTClaims, capability string, contextID int64) (bool, error) {
	if claims == nil {
		return false, nil
	}
	if claims.Role.SiteAdmin() {
		return true, nil
	}
	ok, err := s.caps.HasCapability(ctx, claims.UserID, capability, contextID)
	if err != nil {
		s.logger.Error("capability check failed", zap.Int64("user_id", claims.UserID), zap.String("capability", capability), zap.Error(err))
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check capability")
	}
	return ok, nil
}
