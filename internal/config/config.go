// Package config resolves service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
)

// DefaultUpstreamURL is the public catalog API.
const DefaultUpstreamURL = "https://pokeapi.co/api/v2"

// Config holds every tunable of the service.
type Config struct {
	Port            string
	UpstreamBaseURL string

	CacheTTL          time.Duration
	SnapshotTTL       time.Duration
	CacheNamespace    string
	ResetStatsOnFlush bool
	PurgeInterval     time.Duration

	UpstreamTimeout time.Duration
	ProbeTimeout    time.Duration

	FanoutLimit  int
	SearchLimit  int
	SnapshotSize int
	MaxPageLimit int

	FavoritesDB    string
	IdentitySecret string

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:            "5000",
		UpstreamBaseURL: DefaultUpstreamURL,
		CacheTTL:        time.Hour,
		SnapshotTTL:     2 * time.Hour,
		PurgeInterval:   10 * time.Minute,
		UpstreamTimeout: 10 * time.Second,
		ProbeTimeout:    2 * time.Second,
		FanoutLimit:     10,
		SearchLimit:     20,
		SnapshotSize:    1500,
		MaxPageLimit:    100,
		IdentitySecret:  "development-insecure-secret-change-me",
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration for %s", key)
	}
	if d <= 0 {
		return 0, errors.Newf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid integer for %s", key)
	}
	if n < 1 {
		return 0, errors.Newf("%s must be at least 1, got %d", key, n)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "invalid boolean for %s", key)
	}
	return b, nil
}

// Load reads the environment on top of Default.
func Load() (Config, error) {
	cfg := Default()
	var err error

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.UpstreamBaseURL = strings.TrimRight(getEnv("POKEAPI_BASE_URL", cfg.UpstreamBaseURL), "/")
	cfg.CacheNamespace = getEnv("CACHE_NAMESPACE", cfg.CacheNamespace)
	cfg.FavoritesDB = getEnv("FAVORITES_DB", cfg.FavoritesDB)
	cfg.IdentitySecret = getEnv("IDENTITY_SECRET", cfg.IdentitySecret)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CACHE_TTL", &cfg.CacheTTL},
		{"SNAPSHOT_TTL", &cfg.SnapshotTTL},
		{"CACHE_PURGE_INTERVAL", &cfg.PurgeInterval},
		{"UPSTREAM_TIMEOUT", &cfg.UpstreamTimeout},
		{"PROBE_TIMEOUT", &cfg.ProbeTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, *d.dst); err != nil {
			return Config{}, err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"FANOUT_LIMIT", &cfg.FanoutLimit},
		{"SEARCH_LIMIT", &cfg.SearchLimit},
		{"SNAPSHOT_SIZE", &cfg.SnapshotSize},
		{"MAX_PAGE_LIMIT", &cfg.MaxPageLimit},
	}
	for _, n := range ints {
		if *n.dst, err = getInt(n.key, *n.dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.ResetStatsOnFlush, err = getBool("CACHE_RESET_STATS_ON_FLUSH", cfg.ResetStatsOnFlush); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
