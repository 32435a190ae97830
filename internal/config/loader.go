package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces every environment key.
const envPrefix = "RANKTEAM_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RANKTEAM_CONFIG is set
//  3. env (prefix RANKTEAM_)
//
// Nested tier values are addressed as RANKTEAM_TIER_VALUES.GOLD=16.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// RANKTEAM_MAX_POWER_DIFFERENCE -> max_power_difference. Underscores are
	// kept to match the koanf tags; "." separates nested map keys.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		key, sub, nested := strings.Cut(s, ".")
		if nested {
			return strings.ToLower(key) + "." + strings.ToUpper(sub)
		}
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Tier values are merged by canonical name after decoding so "gold" in a
	// file overrides the default "GOLD" instead of sitting next to it.
	cfg := *base
	cfg.TierValues = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.TierValues = mergeTierValues(base.TierValues, cfg.TierValues)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeTierValues overlays loaded onto defaults with upper-cased keys.
func mergeTierValues(defaults, loaded map[string]int) map[string]int {
	out := make(map[string]int, len(defaults)+len(loaded))
	for name, v := range defaults {
		out[strings.ToUpper(name)] = v
	}
	for name, v := range loaded {
		out[strings.ToUpper(strings.TrimSpace(name))] = v
	}
	return out
}
