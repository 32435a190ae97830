package balance

import "errors"

// Sentinel kinds for balancing errors. None are retried; any of them aborts
// the request without a partial assignment.
var (
	// ErrInsufficientParticipants means fewer than two participants remain
	// after exclusions.
	ErrInsufficientParticipants = errors.New("insufficient participants")
	// ErrTooManyParticipants means the eligible group exceeds the configured
	// enumeration limit.
	ErrTooManyParticipants = errors.New("too many participants")
	// ErrRankLookupFailed wraps any error returned by the RankLookup.
	ErrRankLookupFailed = errors.New("rank lookup failed")
	// ErrNoCombinations is an internal invariant violation: the insufficient
	// participants guard makes it unreachable.
	ErrNoCombinations = errors.New("no combinations generated")
	// ErrSelectionFailed wraps a selector error such as ErrNoCandidates.
	ErrSelectionFailed = errors.New("selection failed")
	// ErrNoCandidates is returned by selectors given an empty candidate list.
	ErrNoCandidates = errors.New("no candidates")
)
