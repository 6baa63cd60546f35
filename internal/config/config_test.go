package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("APPRAISAL_JWT_SECRET", "secret")
	t.Setenv("APPRAISAL_SCORE_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Appraisal API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "appraisal", cfg.EventsChannel)
	require.Equal(t, 10*time.Minute, cfg.ScoreCacheTTL)
	require.Equal(t, 5*time.Minute, cfg.AnalyticsCacheTTL)
	require.Equal(t, 30, cfg.ScoringRateLimit)
	require.True(t, cfg.AutoMigrate)
	require.False(t, cfg.SeedEnabled)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
	require.False(t, cfg.IsProduction())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("APPRAISAL_JWT_SECRET", "secret")
	t.Setenv("APPRAISAL_APP_PORT", ":9090")
	t.Setenv("APPRAISAL_SCORE_CACHE_TTL", "90s")
	t.Setenv("APPRAISAL_NATS_URL", "nats://localhost:4222")
	t.Setenv("APPRAISAL_EVENTS_CHANNEL", "staging")
	t.Setenv("APPRAISAL_APP_ENV", "Production")
	t.Setenv("APPRAISAL_CORS_ALLOW_ORIGINS", "https://appraisal.example.edu")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 90*time.Second, cfg.ScoreCacheTTL)
	require.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	require.Equal(t, "staging", cfg.EventsChannel)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "https://appraisal.example.edu", cfg.CORSAllowOrigins)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("APPRAISAL_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("APPRAISAL_JWT_SECRET", "secret")
	t.Setenv("APPRAISAL_SCORE_CACHE_TTL", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "invalid score cache ttl")
}
