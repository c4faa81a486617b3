package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-admin-api/internal/models"
	appErrors "github.com/noah-isme/cohort-admin-api/pkg/errors"
)

type capabilityStoreStub struct {
	granted bool
	err     error
	calls   int
}

func (s *capabilityStoreStub) HasCapability(ctx context.Context, userID int64, capability string, contextID int64) (bool, error) {
	s.calls++
	return s.granted, s.err
}

func TestAuthzServiceSiteAdminBypassesStore(t *testing.T) {
	store := &capabilityStoreStub{}
	svc := NewAuthzService(store, nil)

	ok, err := svc.HasCapability(context.Background(), &models.JWTClaims{UserID: 1, Role: models.RoleSiteAdmin}, models.CapabilityCohortManage, models.SystemContextID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, store.calls)
}

func TestAuthzServiceDelegatesToStore(t *testing.T) {
	store := &capabilityStoreStub{granted: true}
	svc := NewAuthzService(store, nil)

	ok, err := svc.HasCapability(context.Background(), managerClaims, models.CapabilityCohortView, 14)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.calls)

	ok, err = svc.HasCapability(context.Background(), nil, models.CapabilityCohortView, 14)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthzServiceStoreFailure(t *testing.T) {
	svc := NewAuthzService(&capabilityStoreStub{err: errors.New("timeout")}, nil)

	_, err := svc.HasCapability(context.Background(), managerClaims, models.CapabilityCohortView, 1)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal))
}
