package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationRepositoryConsumeOnce(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewConfirmationRepository(client)

	mock.ExpectSetNX(confirmationKeyPrefix+"abc", 1, 5*time.Minute).SetVal(true)
	mock.ExpectSetNX(confirmationKeyPrefix+"abc", 1, 5*time.Minute).SetVal(false)

	fresh, err := repo.Consume(context.Background(), "abc", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.Consume(context.Background(), "abc", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmationRepositoryConsumeError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewConfirmationRepository(client)

	mock.ExpectSetNX(confirmationKeyPrefix+"abc", 1, time.Minute).SetErr(errors.New("conn refused"))

	_, err := repo.Consume(context.Background(), "abc", time.Minute)
	assert.Error(t, err)
}

func TestConfirmationRepositoryWithoutClient(t *testing.T) {
	repo := NewConfirmationRepository(nil)
	fresh, err := repo.Consume(context.Background(), "abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}
