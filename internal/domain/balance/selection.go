package balance

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/rankteam/internal/domain/model"
)

// Mode names a selection strategy.
type Mode string

const (
	// ModeSeeded maps a digest of the request into a reproducible index.
	ModeSeeded Mode = "seeded"
	// ModeUniform picks uniformly at random on every call.
	ModeUniform Mode = "uniform"
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSeeded, ModeUniform:
		return m, nil
	case "":
		return ModeSeeded, nil
	default:
		return "", fmt.Errorf("unknown selection mode: %q", s)
	}
}

// Selection is the chosen candidate and where it sat in the list.
type Selection struct {
	Candidate Candidate
	Index     int
	Total     int
}

// Selector picks one candidate. Implementations return ErrNoCandidates for
// an empty list.
type Selector interface {
	Select(cands []Candidate, seed uint64) (Selection, error)
}

// SourceFunc turns a seed into a pseudo-random stream.
type SourceFunc func(seed uint64) rand.Source

// pcgStream is the fixed second PCG word; the seed supplies the first.
const pcgStream = 0x9e3779b97f4a7c15

// PCGSource is the default SourceFunc.
func PCGSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgStream)
}

// SeededSelector returns the same index for the same seed and list length.
type SeededSelector struct {
	source SourceFunc
}

// SeededOption configures a SeededSelector.
type SeededOption func(*SeededSelector)

// WithSource replaces the seed-to-stream generator.
func WithSource(fn SourceFunc) SeededOption {
	return func(s *SeededSelector) {
		if fn != nil {
			s.source = fn
		}
	}
}

// NewSeededSelector creates a SeededSelector backed by PCG.
func NewSeededSelector(opts ...SeededOption) *SeededSelector {
	s := &SeededSelector{source: PCGSource}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select takes the first value of the seeded stream modulo len(cands).
func (s *SeededSelector) Select(cands []Candidate, seed uint64) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, ErrNoCandidates
	}
	i := int(s.source(seed).Uint64() % uint64(len(cands)))
	return Selection{Candidate: cands[i], Index: i, Total: len(cands)}, nil
}

// UniformSelector ignores the seed.
type UniformSelector struct {
	intN func(n int) int
}

// UniformOption configures a UniformSelector.
type UniformOption func(*UniformSelector)

// WithIntN replaces the random index function.
func WithIntN(fn func(n int) int) UniformOption {
	return func(s *UniformSelector) {
		if fn != nil {
			s.intN = fn
		}
	}
}

// NewUniformSelector creates a UniformSelector over the global generator.
func NewUniformSelector(opts ...UniformOption) *UniformSelector {
	s := &UniformSelector{intN: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select picks an index uniformly in [0, len(cands)).
func (s *UniformSelector) Select(cands []Candidate, _ uint64) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, ErrNoCandidates
	}
	i := s.intN(len(cands))
	return Selection{Candidate: cands[i], Index: i, Total: len(cands)}, nil
}

// NewSelector returns the selector for mode.
func NewSelector(mode Mode) Selector {
	if mode == ModeUniform {
		return NewUniformSelector()
	}
	return NewSeededSelector()
}

// DeriveSeed digests the sorted participant ids, the rank assignments in id
// order, and the caller's freshness token. Input order does not matter; any
// changed id, rank or token may change the seed. Every field is length
// prefixed, so ids containing separators cannot collide.
func DeriveSeed(ids []string, records map[string]model.RankRecord, token string) uint64 {
	sortedIDs := make([]string, len(ids))
	copy(sortedIDs, ids)
	sort.Strings(sortedIDs)

	recordIDs := make([]string, 0, len(records))
	for id := range records {
		recordIDs = append(recordIDs, id)
	}
	sort.Strings(recordIDs)

	d := xxhash.New()
	var buf []byte
	writeLen := func(n int) {
		buf = binary.AppendUvarint(buf[:0], uint64(n))
		_, _ = d.Write(buf)
	}
	writeField := func(f string) {
		writeLen(len(f))
		_, _ = d.WriteString(f)
	}

	writeLen(len(sortedIDs))
	for _, id := range sortedIDs {
		writeField(id)
	}
	writeLen(len(recordIDs))
	for _, id := range recordIDs {
		r := records[id]
		writeField(id)
		writeField(string(r.Tier))
		writeField(string(r.Division))
	}
	writeField(token)
	return d.Sum64()
}
