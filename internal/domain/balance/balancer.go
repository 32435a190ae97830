package balance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
	"github.com/samber/lo"
)

// Default balancing configuration constants.
const (
	defaultMaxPowerDifference = 2
	defaultMaxParticipants    = 16
	minParticipants           = 2
)

// RankLookup resolves rank records for a batch of identifiers. The result
// may omit identifiers that have no record.
type RankLookup interface {
	LookupRanks(ctx context.Context, ids []string) (map[string]model.RankRecord, error)
}

// LookupFunc adapts a function to RankLookup.
type LookupFunc func(ctx context.Context, ids []string) (map[string]model.RankRecord, error)

// LookupRanks calls f.
func (f LookupFunc) LookupRanks(ctx context.Context, ids []string) (map[string]model.RankRecord, error) {
	return f(ctx, ids)
}

// Request is one balancing call.
type Request struct {
	// Participants present for the split. Ids are trimmed; duplicate ids keep
	// the first entry.
	Participants []model.Participant
	// Exclusions are identifiers to leave out. Surrounding space is ignored.
	Exclusions []string
	// FreshnessToken varies the seeded choice between calls with the same
	// roster, e.g. a request timestamp or id.
	FreshnessToken string
}

// Option applies a configuration option to the Balancer.
type Option func(*Balancer)

// WithScorer sets the rank scorer.
func WithScorer(s *rank.Scorer) Option {
	return func(b *Balancer) {
		if s != nil {
			b.scorer = s
		}
	}
}

// WithMaxPowerDifference sets the acceptable difference threshold.
func WithMaxPowerDifference(d int) Option {
	return func(b *Balancer) {
		if d >= 0 {
			b.maxDiff = d
		}
	}
}

// WithPolicy sets the candidate policy.
func WithPolicy(p Policy) Option {
	return func(b *Balancer) {
		if p != "" {
			b.policy = p
		}
	}
}

// WithSelector sets the selection strategy.
func WithSelector(s Selector) Option {
	return func(b *Balancer) {
		if s != nil {
			b.selector = s
		}
	}
}

// WithMaxParticipants bounds the eligible group size.
func WithMaxParticipants(n int) Option {
	return func(b *Balancer) {
		if n >= minParticipants {
			b.maxParticipants = n
		}
	}
}

// Balancer composes scoring, enumeration, evaluation and selection. It holds
// no per-request state and is safe for concurrent use.
type Balancer struct {
	lookup          RankLookup
	scorer          *rank.Scorer
	maxDiff         int
	policy          Policy
	selector        Selector
	maxParticipants int
}

// New creates a Balancer over lookup.
func New(lookup RankLookup, opts ...Option) *Balancer {
	b := &Balancer{
		lookup:          lookup,
		scorer:          rank.NewScorer(),
		maxDiff:         defaultMaxPowerDifference,
		policy:          PolicyThreshold,
		selector:        NewSeededSelector(),
		maxParticipants: defaultMaxParticipants,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Balance splits the request's non-excluded participants into two teams.
func (b *Balancer) Balance(ctx context.Context, req Request) (model.BalancingResult, error) {
	trimmed := lo.Map(req.Participants, func(p model.Participant, _ int) model.Participant {
		p.ID = strings.TrimSpace(p.ID)
		return p
	})
	participants := lo.UniqBy(
		lo.Filter(trimmed, func(p model.Participant, _ int) bool { return p.ID != "" }),
		func(p model.Participant) string { return p.ID },
	)

	excludedSet := lo.SliceToMap(req.Exclusions, func(id string) (string, struct{}) {
		return strings.TrimSpace(id), struct{}{}
	})
	eligible, removed := lo.FilterReject(participants, func(p model.Participant, _ int) bool {
		_, skip := excludedSet[p.ID]
		return !skip
	})

	if len(eligible) < minParticipants {
		return model.BalancingResult{}, fmt.Errorf("%w: %d eligible", ErrInsufficientParticipants, len(eligible))
	}
	if len(eligible) > b.maxParticipants {
		return model.BalancingResult{}, fmt.Errorf("%w: %d eligible, limit %d", ErrTooManyParticipants, len(eligible), b.maxParticipants)
	}

	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	ids := lo.Map(eligible, func(p model.Participant, _ int) string { return p.ID })

	found, err := b.lookup.LookupRanks(ctx, ids)
	if err != nil {
		return model.BalancingResult{}, fmt.Errorf("%w: %w", ErrRankLookupFailed, err)
	}

	records := make(map[string]model.RankRecord, len(ids))
	scored := make([]model.ScoredParticipant, len(eligible))
	for i, p := range eligible {
		rec, ok := found[p.ID]
		if !ok {
			rec = model.Unranked(p.ID)
		}
		rec.ID = p.ID
		records[p.ID] = rec
		scored[i] = model.ScoredParticipant{
			Participant: p,
			Tier:        rec.Tier,
			Division:    rec.Division,
			Skill:       b.scorer.Score(rec.Tier, rec.Division),
		}
	}

	combos := Generate(scored)
	if len(combos) == 0 {
		return model.BalancingResult{}, ErrNoCombinations
	}

	eval := Evaluate(combos, b.maxDiff)
	cands := eval.Candidates(b.policy)

	sel, err := b.selector.Select(cands, DeriveSeed(ids, records, req.FreshnessToken))
	if err != nil {
		return model.BalancingResult{}, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}

	chosen := sel.Candidate
	return model.BalancingResult{
		Combination:     chosen.Combination,
		PowerDifference: chosen.Difference,
		Index:           sel.Index,
		Candidates:      sel.Total,
		Combinations:    len(combos),
		WithinThreshold: chosen.Difference <= b.maxDiff,
		Excluded:        lo.Map(removed, func(p model.Participant, _ int) string { return p.ID }),
	}, nil
}
