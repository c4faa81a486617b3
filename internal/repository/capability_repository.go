package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CapabilityRepository answers capability grants. A grant on a context covers its descendants.
type CapabilityRepository struct {
	db *sqlx.DB
}

// NewCapabilityRepository constructs the repository.
func NewCapabilityRepository(db *sqlx.DB) *CapabilityRepository {
	return &CapabilityRepository{db: db}
}

// HasCapability reports whether userID holds capability in contextID or one of its ancestors.
func (r *CapabilityRepository) HasCapability(ctx context.Context, userID int64, capability string, contextID int64) (bool, error) {
	const query = `SELECT 1 FROM role_capabilities rc
JOIN contexts granted ON granted.id = rc.context_id
JOIN contexts target ON target.id = $3
WHERE rc.user_id = $1 AND rc.capability = $2
AND (target.path = granted.path OR target.path LIKE granted.path || '/%')
LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, capability, contextID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check capability %s: %w", capability, err)
	}
	return true, nil
}
