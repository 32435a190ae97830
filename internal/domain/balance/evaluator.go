package balance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/rankteam/internal/domain/model"
)

// Policy decides which combinations are handed to selection.
type Policy string

const (
	// PolicyThreshold selects among combinations within the maximum power
	// difference and falls back to the single closest one when none qualify.
	PolicyThreshold Policy = "threshold"
	// PolicyUnfiltered ignores the threshold and selects among all
	// combinations.
	PolicyUnfiltered Policy = "unfiltered"
)

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyThreshold, PolicyUnfiltered:
		return p, nil
	case "":
		return PolicyThreshold, nil
	default:
		return "", fmt.Errorf("unknown candidate policy: %q", s)
	}
}

// Candidate is a combination annotated with its power difference and its
// position in enumeration order.
type Candidate struct {
	model.Combination
	Difference int
	Seq        int
}

// Annotate computes the power difference of every combination.
func Annotate(combos []model.Combination) []Candidate {
	out := make([]Candidate, len(combos))
	for i, c := range combos {
		out[i] = Candidate{Combination: c, Difference: c.PowerDifference(), Seq: i}
	}
	return out
}

// Filter keeps candidates whose difference is at most maxDiff, preserving
// order. The result may be empty.
func Filter(cands []Candidate, maxDiff int) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Difference <= maxDiff {
			out = append(out, c)
		}
	}
	return out
}

// SortByDifference returns a copy sorted ascending by difference. Ties keep
// their relative order.
func SortByDifference(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Difference < out[j].Difference })
	return out
}

// Evaluation exposes both candidate sets: the ones within the threshold, in
// enumeration order, and every combination sorted by difference.
type Evaluation struct {
	MaxDifference int
	Eligible      []Candidate
	Ranked        []Candidate
}

// Evaluate annotates combos and splits them by maxDiff.
func Evaluate(combos []model.Combination, maxDiff int) Evaluation {
	all := Annotate(combos)
	return Evaluation{
		MaxDifference: maxDiff,
		Eligible:      Filter(all, maxDiff),
		Ranked:        SortByDifference(all),
	}
}

// Best returns the combination with the smallest difference, earliest in
// enumeration order on ties.
func (e Evaluation) Best() (Candidate, bool) {
	if len(e.Ranked) == 0 {
		return Candidate{}, false
	}
	return e.Ranked[0], true
}

// Candidates returns the list selection should choose from under p.
func (e Evaluation) Candidates(p Policy) []Candidate {
	if p == PolicyUnfiltered {
		return e.Ranked
	}
	if len(e.Eligible) > 0 {
		return e.Eligible
	}
	if best, ok := e.Best(); ok {
		return []Candidate{best}
	}
	return nil
}
