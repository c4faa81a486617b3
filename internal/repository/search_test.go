package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeSearchBuild(t *testing.T) {
	predicate, args := LikeSearch{}.Build("  50%_Off ", "c", 3)
	assert.Contains(t, predicate, "LOWER(c.name) LIKE $3")
	assert.Contains(t, predicate, "LOWER(c.description) LIKE $3")
	assert.Equal(t, []interface{}{`%50\%\_off%`}, args)
}

func TestLikeSearchBlank(t *testing.T) {
	predicate, args := LikeSearch{}.Build("   ", "c", 1)
	assert.Empty(t, predicate)
	assert.Nil(t, args)
}
