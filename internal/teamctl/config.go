package teamctl

import (
	"time"

	"github.com/okian/rankteam/internal/config"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/rank"
)

// Config holds what the commands need to reach the rank service and balance locally.
type Config struct {
	BaseURL string        // rank service base URL
	APIKey  string        // sent as x-api-key on registration
	Timeout time.Duration // per-request timeout

	Scorer             *rank.Scorer
	MaxPowerDifference int
	Policy             balance.Policy
	Mode               balance.Mode
	MaxParticipants    int
}

// FromConfig derives a Config from the process configuration. Policy and
// mode fall back to their defaults when cfg did not pass Validate.
func FromConfig(cfg *config.Config) *Config {
	policy, err := balance.ParsePolicy(cfg.CandidatePolicy)
	if err != nil {
		policy = balance.PolicyThreshold
	}
	mode, err := balance.ParseMode(cfg.SelectionMode)
	if err != nil {
		mode = balance.ModeSeeded
	}
	return &Config{
		BaseURL:            cfg.RankAPIURL,
		APIKey:             cfg.RankAPIKey,
		Timeout:            time.Duration(cfg.RankAPITimeoutMS) * time.Millisecond,
		Scorer:             cfg.Scorer(),
		MaxPowerDifference: cfg.MaxPowerDifference,
		Policy:             policy,
		Mode:               mode,
		MaxParticipants:    cfg.MaxParticipants,
	}
}
