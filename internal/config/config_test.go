package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "POKEAPI_BASE_URL", "CACHE_NAMESPACE", "FAVORITES_DB", "IDENTITY_SECRET",
		"LOG_LEVEL", "LOG_FORMAT", "CACHE_TTL", "SNAPSHOT_TTL", "CACHE_PURGE_INTERVAL",
		"UPSTREAM_TIMEOUT", "PROBE_TIMEOUT", "FANOUT_LIMIT", "SEARCH_LIMIT", "SNAPSHOT_SIZE",
		"MAX_PAGE_LIMIT", "CACHE_RESET_STATS_ON_FLUSH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, time.Hour, cfg.CacheTTL)
	require.Equal(t, 2*time.Hour, cfg.SnapshotTTL)
	require.Equal(t, 20, cfg.SearchLimit)
	require.False(t, cfg.ResetStatsOnFlush)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("POKEAPI_BASE_URL", "http://localhost:9000/api/v2/")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("SNAPSHOT_TTL", "1d")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("FANOUT_LIMIT", "4")
	t.Setenv("CACHE_RESET_STATS_ON_FLUSH", "true")
	t.Setenv("FAVORITES_DB", "favorites.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "http://localhost:9000/api/v2", cfg.UpstreamBaseURL)
	require.Equal(t, 90*time.Minute, cfg.CacheTTL)
	require.Equal(t, 24*time.Hour, cfg.SnapshotTTL)
	require.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, 4, cfg.FanoutLimit)
	require.True(t, cfg.ResetStatsOnFlush)
	require.Equal(t, "favorites.db", cfg.FavoritesDB)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":                  "soon",
		"SNAPSHOT_TTL":               "0s",
		"FANOUT_LIMIT":               "0",
		"SEARCH_LIMIT":               "many",
		"CACHE_RESET_STATS_ON_FLUSH": "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}
