package rank

// Default scoring configuration constants.
const (
	defaultDivisionBonus    = 1
	defaultUnknownTierValue = 0
	defaultTierStep         = 4
)

// DefaultTierValues returns the base value table: four points per tier step,
// so a full division ladder (IV..I, bonus 1) stays below the next tier.
func DefaultTierValues() map[string]int {
	values := make(map[string]int, len(tierOrder))
	for i, t := range tierOrder {
		values[string(t)] = i * defaultTierStep
	}
	return values
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithTierValues replaces base values for the tiers present in values.
// Unknown tier names and negative values are ignored.
func WithTierValues(values map[string]int) Option {
	return func(s *Scorer) {
		for name, v := range values {
			t, err := ParseTier(name)
			if err != nil || v < 0 {
				continue
			}
			s.base[t] = v
		}
	}
}

// WithDivisionBonus sets the per-division-step bonus.
func WithDivisionBonus(bonus int) Option {
	return func(s *Scorer) {
		if bonus >= 0 {
			s.divisionBonus = bonus
		}
	}
}

// WithUnknownTierValue sets the floor used for tiers not on the scale.
func WithUnknownTierValue(v int) Option {
	return func(s *Scorer) {
		if v >= 0 {
			s.unknownTier = v
		}
	}
}

// Scorer maps a (tier, division) pair to a skill value. It is immutable
// after construction and safe for concurrent use.
type Scorer struct {
	base          map[Tier]int
	divisionBonus int
	unknownTier   int
}

// NewScorer creates a Scorer with the default table and applies opts.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		base:          make(map[Tier]int, len(tierOrder)),
		divisionBonus: defaultDivisionBonus,
		unknownTier:   defaultUnknownTierValue,
	}
	for name, v := range DefaultTierValues() {
		s.base[Tier(name)] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns base(tier) + ordinal(division) * divisionBonus.
// Unknown tiers score the configured floor; divisions on tiers without
// sub-ranking, and invalid divisions, contribute nothing.
func (s *Scorer) Score(t Tier, d Division) int {
	base, ok := s.base[t]
	if !ok {
		return s.unknownTier
	}
	if !t.HasDivisions() {
		return base
	}
	ord := d.Ordinal()
	if ord < 0 {
		return base
	}
	return base + ord*s.divisionBonus
}

// BaseValue returns the base value configured for t.
func (s *Scorer) BaseValue(t Tier) int {
	if v, ok := s.base[t]; ok {
		return v
	}
	return s.unknownTier
}
