package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 25, cfg.Cohorts.PageSize)
	assert.Equal(t, 100, cfg.Cohorts.MaxPageSize)
	assert.Equal(t, "cohort", cfg.Cohorts.EnrolMethod)
	assert.Equal(t, 10*time.Minute, cfg.Cohorts.ConfirmTTL)
	assert.Equal(t, 5000, cfg.Cohorts.ExportMaxRows)
	assert.True(t, cfg.Cohorts.ReplayGuardEnable)
	assert.Empty(t, cfg.Cohorts.HiddenContextIDs)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("COHORT_PAGE_SIZE", 50)
	v.Set("COHORT_MAX_PAGE_SIZE", 10)
	v.Set("COHORT_HIDDEN_CONTEXT_IDS", "12, abc, -3, 40")
	v.Set("COHORT_CONFIRM_TTL", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, 50, cfg.Cohorts.PageSize)
	assert.Equal(t, 50, cfg.Cohorts.MaxPageSize)
	assert.Equal(t, []int64{12, 40}, cfg.Cohorts.HiddenContextIDs)
	assert.Equal(t, 10*time.Minute, cfg.Cohorts.ConfirmTTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
