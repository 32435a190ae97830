package rank

import "errors"

// Sentinel kinds for rank parsing. Scoring itself never fails.
var (
	ErrUnknownTier     = errors.New("unknown tier")
	ErrUnknownDivision = errors.New("unknown division")
)
