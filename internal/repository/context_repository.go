package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cohort-admin-api/internal/models"
)

// ContextRepository resolves contexts whose cohorts must stay out of listings.
type ContextRepository struct {
	db *sqlx.DB
}

// NewContextRepository constructs a context repository.
func NewContextRepository(db *sqlx.DB) *ContextRepository {
	return &ContextRepository{db: db}
}

// InvisibleContextIDs returns hidden category contexts and every context below them.
func (r *ContextRepository) InvisibleContextIDs(ctx context.Context) ([]int64, error) {
	query := fmt.Sprintf(`SELECT DISTINCT child.id FROM contexts hidden
JOIN course_categories cc ON cc.id = hidden.instance_id
JOIN contexts child ON child.path = hidden.path OR child.path LIKE hidden.path || '/%%'
WHERE hidden.context_level = %d AND cc.visible = FALSE
ORDER BY child.id`, models.ContextLevelCategory)
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list invisible contexts: %w", err)
	}
	return ids, nil
}
