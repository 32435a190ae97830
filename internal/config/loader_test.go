package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rankteam/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxPowerDifference, convey.ShouldEqual, 2)
				convey.So(cfg.DivisionBonus, convey.ShouldEqual, 1)
				convey.So(cfg.TierValues["CHALLENGER"], convey.ShouldEqual, 36)
				convey.So(cfg.SelectionMode, convey.ShouldEqual, "seeded")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKTEAM_ADDR", ":8080")
			_ = os.Setenv("RANKTEAM_MAX_POWER_DIFFERENCE", "5")
			_ = os.Setenv("RANKTEAM_DIVISION_BONUS", "25")
			_ = os.Setenv("RANKTEAM_SELECTION_MODE", "uniform")
			_ = os.Setenv("RANKTEAM_API_KEY", "secret")
			_ = os.Setenv("RANKTEAM_TIER_VALUES.GOLD", "400")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxPowerDifference, convey.ShouldEqual, 5)
				convey.So(cfg.DivisionBonus, convey.ShouldEqual, 25)
				convey.So(cfg.SelectionMode, convey.ShouldEqual, "uniform")
				convey.So(cfg.APIKey, convey.ShouldEqual, "secret")
				convey.So(cfg.TierValues["GOLD"], convey.ShouldEqual, 400)
				convey.So(cfg.TierValues["SILVER"], convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
max_power_difference: 50
division_bonus: 25
candidate_policy: unfiltered
tier_values:
  gold: 1000
  PLATINUM: 1200
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKTEAM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxPowerDifference, convey.ShouldEqual, 50)
				convey.So(cfg.DivisionBonus, convey.ShouldEqual, 25)
				convey.So(cfg.CandidatePolicy, convey.ShouldEqual, "unfiltered")
			})

			convey.Convey("And tier values should merge by canonical name", func() {
				convey.So(cfg.TierValues["GOLD"], convey.ShouldEqual, 1000)
				convey.So(cfg.TierValues["PLATINUM"], convey.ShouldEqual, 1200)
				convey.So(cfg.TierValues["IRON"], convey.ShouldEqual, 4)
				_, lower := cfg.TierValues["gold"]
				convey.So(lower, convey.ShouldBeFalse)
				convey.So(len(cfg.TierValues), convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
max_power_difference: 50
max_participants: 12
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKTEAM_CONFIG", tmpFile)
			_ = os.Setenv("RANKTEAM_ADDR", ":8080")
			_ = os.Setenv("RANKTEAM_MAX_PARTICIPANTS", "10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxParticipants, convey.ShouldEqual, 10)
				convey.So(cfg.MaxPowerDifference, convey.ShouldEqual, 50)
				convey.So(cfg.RankAPITimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.RankAPIURL, convey.ShouldEqual, "http://localhost:9080")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKTEAM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RANKTEAM_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RANKTEAM_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKTEAM_MAX_POWER_DIFFERENCE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown selection mode", func() {
			_ = os.Setenv("RANKTEAM_SELECTION_MODE", "coinflip")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
# Another comment
division_bonus: 3
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RANKTEAM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DivisionBonus, convey.ShouldEqual, 3)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RANKTEAM_CONFIG",
		"RANKTEAM_ADDR",
		"RANKTEAM_API_KEY",
		"RANKTEAM_MAX_POWER_DIFFERENCE",
		"RANKTEAM_DIVISION_BONUS",
		"RANKTEAM_SELECTION_MODE",
		"RANKTEAM_MAX_PARTICIPANTS",
		"RANKTEAM_TIER_VALUES.GOLD",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rankteam-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
