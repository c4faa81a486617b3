package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneKeepsCode(t *testing.T) {
	clone := Clone(ErrNotFound, "cohort not found")
	assert.Equal(t, "cohort not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("confirm: %w", Clone(ErrReplayRejected, "token expired"))
	assert.True(t, HasCode(wrapped, ErrReplayRejected))
	assert.False(t, HasCode(wrapped, ErrNotFound))
	assert.False(t, HasCode(sql.ErrNoRows, ErrNotFound))
	assert.False(t, HasCode(nil, ErrNotFound))
}
