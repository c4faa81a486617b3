package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const confirmationKeyPrefix = "cohort:delete:nonce:"

// ConfirmationRepository remembers consumed confirmation nonces so a token works once.
type ConfirmationRepository struct {
	client *redis.Client
}

// NewConfirmationRepository constructs the repository. A nil client disables single use tracking.
func NewConfirmationRepository(client *redis.Client) *ConfirmationRepository {
	return &ConfirmationRepository{client: client}
}

// Consume marks nonce as used. It returns false when the nonce was already consumed.
func (r *ConfirmationRepository) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	fresh, err := r.client.SetNX(ctx, confirmationKeyPrefix+nonce, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis consume nonce: %w", err)
	}
	return fresh, nil
}
