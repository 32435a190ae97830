// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and the environment.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/rank"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// APIKey, when set, is required in x-api-key on rank registration.
	APIKey string `koanf:"api_key"`

	// TierValues maps tier names to their base skill value.
	TierValues map[string]int `koanf:"tier_values"`

	// UnknownTierValue is the floor for tiers not on the scale.
	UnknownTierValue int `koanf:"unknown_tier_value"`

	// DivisionBonus is added once per division step above IV.
	DivisionBonus int `koanf:"division_bonus"`

	// MaxPowerDifference is the acceptable total-skill gap between teams.
	MaxPowerDifference int `koanf:"max_power_difference"`

	// CandidatePolicy is "threshold" or "unfiltered".
	CandidatePolicy string `koanf:"candidate_policy"`

	// SelectionMode is "seeded" or "uniform".
	SelectionMode string `koanf:"selection_mode"`

	// MaxParticipants bounds the eligible group; enumeration grows as C(N, N/2).
	MaxParticipants int `koanf:"max_participants"`

	// RankAPIURL is the rank service base URL used by teamctl.
	RankAPIURL string `koanf:"rank_api_url"`

	// RankAPIKey is sent as x-api-key when teamctl registers ranks.
	RankAPIKey string `koanf:"rank_api_key"`

	// RankAPITimeoutMS bounds a single rank API request.
	RankAPITimeoutMS int `koanf:"rank_api_timeout_ms"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsDeployment, when set, is attached as a constant "deployment" label.
	MetricsDeployment string `koanf:"metrics_deployment"`

	// MetricsLatencyBuckets overrides the latency histogram buckets (ms).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// metricNamePart matches a Prometheus namespace or subsystem.
var metricNamePart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		TierValues:         rank.DefaultTierValues(),
		UnknownTierValue:   0,
		DivisionBonus:      1,
		MaxPowerDifference: 2,
		CandidatePolicy:    string(balance.PolicyThreshold),
		SelectionMode:      string(balance.ModeSeeded),
		MaxParticipants:    16,
		RankAPIURL:         "http://localhost:9080",
		RankAPITimeoutMS:   5000,
		MetricsNamespace:   "rankteam",
		MetricsSubsystem:   "balancer",
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DivisionBonus < 0:
		return fmt.Errorf("%w: division_bonus must not be negative", ErrInvalidConfig)
	case c.UnknownTierValue < 0:
		return fmt.Errorf("%w: unknown_tier_value must not be negative", ErrInvalidConfig)
	case c.MaxPowerDifference < 0:
		return fmt.Errorf("%w: max_power_difference must not be negative", ErrInvalidConfig)
	case c.MaxParticipants < 2:
		return fmt.Errorf("%w: max_participants must be at least 2", ErrInvalidConfig)
	case c.RankAPITimeoutMS <= 0:
		return fmt.Errorf("%w: rank_api_timeout_ms must be positive", ErrInvalidConfig)
	}
	for name, v := range c.TierValues {
		if _, err := rank.ParseTier(name); err != nil {
			return fmt.Errorf("%w: tier_values: %w", ErrInvalidConfig, err)
		}
		if v < 0 {
			return fmt.Errorf("%w: tier_values[%s] must not be negative", ErrInvalidConfig, name)
		}
	}
	if !metricNamePart.MatchString(c.MetricsNamespace) || !metricNamePart.MatchString(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_namespace and metrics_subsystem must be metric name parts", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be increasing", ErrInvalidConfig)
		}
	}
	if _, err := balance.ParsePolicy(c.CandidatePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := balance.ParseMode(c.SelectionMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Scorer builds the rank scorer described by the configuration.
func (c *Config) Scorer() *rank.Scorer {
	return rank.NewScorer(
		rank.WithTierValues(c.TierValues),
		rank.WithDivisionBonus(c.DivisionBonus),
		rank.WithUnknownTierValue(c.UnknownTierValue),
	)
}
