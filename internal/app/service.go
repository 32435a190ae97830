// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	repository "github.com/okian/rankteam/internal/adapters/repository"
	"github.com/okian/rankteam/internal/domain/balance"
	"github.com/okian/rankteam/internal/domain/model"
	"github.com/okian/rankteam/internal/domain/rank"
	"github.com/okian/rankteam/pkg/logger"
	"github.com/okian/rankteam/pkg/metrics"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for rank registration and team balancing.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	balancer *balance.Balancer

	// Configuration
	scorer          *rank.Scorer
	maxDiff         int
	policy          balance.Policy
	mode            balance.Mode
	selector        balance.Selector
	maxParticipants int

	// State
	started       bool
	startedAt     time.Time
	balances      atomic.Int64
	registrations atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer sets the rank scorer used by balancing.
func WithScorer(sc *rank.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithMaxPowerDifference sets the acceptable skill gap between teams.
func WithMaxPowerDifference(d int) Option {
	return func(s *Service) {
		if d >= 0 {
			s.maxDiff = d
		}
	}
}

// WithPolicy sets the candidate policy.
func WithPolicy(p balance.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithSelectionMode sets how one candidate is picked.
func WithSelectionMode(m balance.Mode) Option {
	return func(s *Service) {
		s.mode = m
	}
}

// WithSelector overrides the selector built from the selection mode.
func WithSelector(sel balance.Selector) Option {
	return func(s *Service) {
		s.selector = sel
	}
}

// WithMaxParticipants bounds the eligible group size.
func WithMaxParticipants(n int) Option {
	return func(s *Service) {
		if n >= 2 {
			s.maxParticipants = n
		}
	}
}

// WithStore uses st instead of creating an in-memory store on Start.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:          rank.NewScorer(),
		maxDiff:         2,
		policy:          balance.PolicyThreshold,
		mode:            balance.ModeSeeded,
		maxParticipants: 16,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the store and the balancer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rank service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory rank store")
	}

	selector := s.selector
	if selector == nil {
		selector = balance.NewSelector(s.mode)
	}
	s.balancer = balance.New(s.store,
		balance.WithScorer(s.scorer),
		balance.WithMaxPowerDifference(s.maxDiff),
		balance.WithPolicy(s.policy),
		balance.WithSelector(selector),
		balance.WithMaxParticipants(s.maxParticipants),
	)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "rank service started",
		logger.Int("maxPowerDifference", s.maxDiff),
		logger.String("policy", string(s.policy)),
		logger.String("selection", string(s.mode)),
		logger.Int("maxParticipants", s.maxParticipants),
	)

	return nil
}

// Stop releases the store. A stopped service can be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rank service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "rank service stopped")
}

// components returns the running store and balancer.
func (s *Service) components() (repository.Store, *balance.Balancer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.balancer, nil
}

// RegisterRank parses tier and division and upserts the identity's rank.
// Tiers without divisions ignore division; "NONE" or "" mean no division.
func (s *Service) RegisterRank(ctx context.Context, id, tier, division string) (model.Registration, error) {
	store, _, err := s.components()
	if err != nil {
		return model.Registration{}, err
	}

	t, err := rank.ParseTier(tier)
	if err != nil {
		return model.Registration{}, err
	}
	d, err := rank.ParseDivision(t, division)
	if err != nil {
		return model.Registration{}, err
	}

	rec := model.RankRecord{ID: strings.TrimSpace(id), Tier: t, Division: d}
	prev, existed, err := store.Upsert(ctx, rec)
	if err != nil {
		s.logger.Warn(ctx, "rank registration rejected", logger.String("id", id), logger.Error(err))
		return model.Registration{}, err
	}

	s.registrations.Add(1)
	metrics.RecordRankRegistration(string(t))

	out := model.Registration{Rank: rec}
	if existed {
		p := prev.RankRecord
		out.Previous = &p
	}
	s.logger.Info(ctx, "rank registered",
		logger.String("id", rec.ID),
		logger.String("tier", string(rec.Tier)),
		logger.String("division", string(rec.Division)),
		logger.Bool("replaced", existed),
	)
	return out, nil
}

// Ranks returns the registered records of ids in request order. Unknown
// identities are omitted.
func (s *Service) Ranks(ctx context.Context, ids []string) ([]model.RankRecord, error) {
	store, _, err := s.components()
	if err != nil {
		return nil, err
	}

	ids = lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) })))
	found, err := store.LookupRanks(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.RankRecord, 0, len(found))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Rank returns the registered record of id.
func (s *Service) Rank(ctx context.Context, id string) (model.RankRecord, error) {
	store, _, err := s.components()
	if err != nil {
		return model.RankRecord{}, err
	}

	e, err := store.Get(ctx, id)
	if err != nil {
		return model.RankRecord{}, err
	}
	return e.RankRecord, nil
}

// Balance splits the request's participants into two teams.
func (s *Service) Balance(ctx context.Context, req balance.Request) (model.BalancingResult, error) {
	_, b, err := s.components()
	if err != nil {
		return model.BalancingResult{}, err
	}

	ctx = logger.WithFields(ctx, logger.String("token", req.FreshnessToken))

	start := time.Now()
	res, err := b.Balance(ctx, req)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordBalance(outcome(err), latencyMs)

	if err != nil {
		fields := []logger.Field{
			logger.Int("participants", len(req.Participants)),
			logger.Int("exclusions", len(req.Exclusions)),
			logger.Error(err),
		}
		if errors.Is(err, balance.ErrRankLookupFailed) || errors.Is(err, balance.ErrNoCombinations) ||
			errors.Is(err, balance.ErrSelectionFailed) {
			metrics.RecordErrorLatency("balancer", outcome(err), latencyMs)
			s.logger.Error(ctx, "team balancing failed", fields...)
		} else {
			s.logger.Warn(ctx, "team balancing refused", fields...)
		}
		return model.BalancingResult{}, err
	}

	s.balances.Add(1)
	metrics.RecordBalanceResult(res.PowerDifference, res.Candidates, res.Combinations, res.WithinThreshold)
	s.logger.Info(ctx, "teams balanced",
		logger.Strings("teamA", res.Combination.A.IDs()),
		logger.Strings("teamB", res.Combination.B.IDs()),
		logger.Int("powerDifference", res.PowerDifference),
		logger.Int("candidates", res.Candidates),
		logger.Int("index", res.Index),
		logger.Bool("withinThreshold", res.WithinThreshold),
	)
	s.logger.Debug(ctx, "balancing detail",
		logger.Int("combinations", res.Combinations),
		logger.Strings("excluded", res.Excluded),
		logger.Float64("latencyMs", latencyMs),
	)
	return res, nil
}

// outcome maps a balancing error to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, balance.ErrInsufficientParticipants):
		return "insufficient_participants"
	case errors.Is(err, balance.ErrTooManyParticipants):
		return "too_many_participants"
	case errors.Is(err, balance.ErrRankLookupFailed):
		return "rank_lookup_failed"
	case errors.Is(err, balance.ErrNoCombinations), errors.Is(err, balance.ErrSelectionFailed):
		return "internal_invariant"
	default:
		return "error"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"maxPowerDifference": s.maxDiff,
		"candidatePolicy":    string(s.policy),
		"selectionMode":      string(s.mode),
		"maxParticipants":    s.maxParticipants,
		"balances":           s.balances.Load(),
		"registrations":      s.registrations.Load(),
	}

	if s.started {
		registered := s.store.Count(context.Background())
		stats["registeredRanks"] = registered
		stats["uptime"] = time.Since(s.startedAt).Round(time.Second).String()

		metrics.UpdateRegisteredRanks(registered)
	}

	return stats
}
