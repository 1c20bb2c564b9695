// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and environment on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the rating store.
	ShardCount int `koanf:"shard_count"`

	// SessionLimit caps a voter's comparisons per category per UTC day.
	SessionLimit int `koanf:"session_limit"`

	// ExplorationRate is the probability of serving an exploratory matchup
	// instead of an uncertainty-driven one.
	ExplorationRate float64 `koanf:"exploration_rate"`

	// RecencyWindowHours is how long a judged pair stays excluded from a
	// voter's selection.
	RecencyWindowHours int `koanf:"recency_window_hours"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// StatsRefreshSeconds sets the system metrics refresh cadence.
	StatsRefreshSeconds int `koanf:"stats_refresh_seconds"`

	// Rating engine tuning. Zero values fall back to the engine defaults.
	InitialScore         float64 `koanf:"initial_score"`
	InitialUncertainty   float64 `koanf:"initial_uncertainty"`
	InitialKFactor       float64 `koanf:"initial_k_factor"`
	MinKFactor           float64 `koanf:"min_k_factor"`
	UncertaintyDecay     float64 `koanf:"uncertainty_decay"`
	UncertaintyFloor     float64 `koanf:"uncertainty_floor"`
	UncertaintyThreshold float64 `koanf:"uncertainty_threshold"`
	BootstrapThreshold   int     `koanf:"bootstrap_threshold"`
	MaxComparisonCount   int     `koanf:"max_comparison_count"`
}

// New creates a Config with service defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ShardCount:          8,
		SessionLimit:        5,
		ExplorationRate:     0.3,
		RecencyWindowHours:  24,
		MaxLeaderboardLimit: 100,
		StatsRefreshSeconds: 30,

		InitialScore:         1500,
		InitialUncertainty:   350,
		InitialKFactor:       40,
		MinKFactor:           16,
		UncertaintyDecay:     0.95,
		UncertaintyFloor:     50,
		UncertaintyThreshold: 100,
		BootstrapThreshold:   5,
		MaxComparisonCount:   12,
	}
}
