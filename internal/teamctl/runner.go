package teamctl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rankteam/internal/adapters/http/api"
	"github.com/okian/rankteam/internal/adapters/rankapi"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
	"github.com/okian/rankteam/pkg/logger"
)

// TeamArgs are the inputs of the team command.
type TeamArgs struct {
	Members string // "id:name,id:name"
	Exclude string // mentions or bare ids
	Token   string // freshness token; a UUID when empty
}

func newClient(cfg *Config) *rankapi.Client {
	return rankapi.New(cfg.BaseURL,
		rankapi.WithAPIKey(cfg.APIKey),
		rankapi.WithTimeout(cfg.Timeout),
	)
}

// Register validates the rank locally, stores it through the service and
// prints the change.
func Register(ctx context.Context, w io.Writer, cfg *Config, id, tier, division string) (rankapi.Registration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return rankapi.Registration{}, fmt.Errorf("%w: empty id", ErrInvalidMembers)
	}
	t, err := rank.ParseTier(tier)
	if err != nil {
		return rankapi.Registration{}, err
	}
	d, err := rank.ParseDivision(t, division)
	if err != nil {
		return rankapi.Registration{}, err
	}

	start := time.Now()
	reg, err := newClient(cfg).Register(ctx, model.RankRecord{ID: id, Tier: t, Division: d})
	if err != nil {
		return rankapi.Registration{}, fmt.Errorf("register %s: %w", id, err)
	}
	logger.Get().Debug(ctx, "rank registered",
		logger.String("id", id),
		logger.String("rank", FormatRank(reg.Rank)),
		logger.String("duration", time.Since(start).String()))

	if reg.Previous != nil {
		fmt.Fprintf(w, "%s: %s -> %s\n", id, FormatRank(*reg.Previous), FormatRank(reg.Rank))
	} else {
		fmt.Fprintf(w, "%s: %s\n", id, FormatRank(reg.Rank))
	}
	return reg, nil
}

// Team looks the members up remotely, balances them in-process and prints
// both teams.
func Team(ctx context.Context, w io.Writer, cfg *Config, args TeamArgs) (model.BalancingResult, error) {
	participants, err := ParseMembers(args.Members)
	if err != nil {
		return model.BalancingResult{}, err
	}

	token := args.Token
	if token == "" {
		token = uuid.NewString()
	}

	b := balance.New(newClient(cfg),
		balance.WithScorer(cfg.Scorer),
		balance.WithMaxPowerDifference(cfg.MaxPowerDifference),
		balance.WithPolicy(cfg.Policy),
		balance.WithSelector(balance.NewSelector(cfg.Mode)),
		balance.WithMaxParticipants(cfg.MaxParticipants),
	)

	res, err := b.Balance(ctx, balance.Request{
		Participants:   participants,
		Exclusions:     api.ParseMentions(args.Exclude),
		FreshnessToken: token,
	})
	if err != nil {
		return model.BalancingResult{}, err
	}

	logger.Get().Debug(ctx, "teams balanced",
		logger.String("token", token),
		logger.Int("candidates", res.Candidates),
		logger.Int("index", res.Index),
		logger.Int("powerDifference", res.PowerDifference))

	PrintResult(w, res)
	return res, nil
}

// PrintResult writes both teams, their totals and the selection summary.
func PrintResult(w io.Writer, res model.BalancingResult) {
	printTeam(w, "Team A", res.Combination.A)
	printTeam(w, "Team B", res.Combination.B)
	fmt.Fprintf(w, "Power difference: %d", res.PowerDifference)
	if !res.WithinThreshold {
		fmt.Fprint(w, " (closest available)")
	}
	fmt.Fprintf(w, "\nPicked %d of %d candidates (%d combinations)\n",
		res.Index+1, res.Candidates, res.Combinations)
	if len(res.Excluded) > 0 {
		fmt.Fprintf(w, "Excluded: %s\n", strings.Join(res.Excluded, ", "))
	}
}

func printTeam(w io.Writer, title string, t model.Team) {
	fmt.Fprintf(w, "%s (%d)\n", title, t.TotalSkill())
	for _, m := range t.Members {
		fmt.Fprintf(w, "  %-20s %-14s %3d\n", m.Name, FormatRank(model.RankRecord{Tier: m.Tier, Division: m.Division}), m.Skill)
	}
}

// FormatRank renders "GOLD II", or just the tier when it has no division.
func FormatRank(r model.RankRecord) string {
	if r.Division == rank.NoDivision {
		return string(r.Tier)
	}
	return string(r.Tier) + " " + string(r.Division)
}
