// Package model contains domain models passed between layers.
package model

import "github.com/okian/rankteam/internal/domain/rank"

// Participant is a caller-supplied identity, unique within one request.
type Participant struct {
	ID   string // chat identity, e.g. a Discord user id
	Name string // display label
}

// RankRecord associates a participant identifier with a self-reported rank.
type RankRecord struct {
	ID       string
	Tier     rank.Tier
	Division rank.Division
}

// Unranked returns the record used for participants without one.
func Unranked(id string) RankRecord {
	return RankRecord{ID: id, Tier: rank.Unranked, Division: rank.NoDivision}
}

// Registration is the outcome of storing a RankRecord. Previous is nil for a
// first registration.
type Registration struct {
	Rank     RankRecord
	Previous *RankRecord
}

// ScoredParticipant joins a participant with its rank and derived skill value.
type ScoredParticipant struct {
	Participant
	Tier     rank.Tier
	Division rank.Division
	Skill    int
}

// Team is an unordered set of scored participants. Its total is always
// derived from the members and never stored.
type Team struct {
	Members []ScoredParticipant
}

// NewTeam copies members into a new Team.
func NewTeam(members []ScoredParticipant) Team {
	cp := make([]ScoredParticipant, len(members))
	copy(cp, members)
	return Team{Members: cp}
}

// TotalSkill returns the sum of the members' skill values.
func (t Team) TotalSkill() int {
	total := 0
	for _, m := range t.Members {
		total += m.Skill
	}
	return total
}

// IDs returns member identifiers in team order.
func (t Team) IDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// Combination is one 2-way partition of the eligible participants.
type Combination struct {
	A Team
	B Team
}

// PowerDifference returns |A.TotalSkill - B.TotalSkill|.
func (c Combination) PowerDifference() int {
	d := c.A.TotalSkill() - c.B.TotalSkill()
	if d < 0 {
		return -d
	}
	return d
}

// BalancingResult is the chosen combination plus selection metadata.
type BalancingResult struct {
	Combination Combination

	// PowerDifference of the chosen combination.
	PowerDifference int

	// Index of the chosen combination within the candidate list.
	Index int
	// Candidates is the number of combinations selection chose from.
	Candidates int
	// Combinations is the number of partitions enumerated.
	Combinations int
	// WithinThreshold is false when no partition met the configured maximum
	// difference and the closest one was used instead.
	WithinThreshold bool

	// Excluded lists identifiers removed before balancing, in request order.
	Excluded []string
}
