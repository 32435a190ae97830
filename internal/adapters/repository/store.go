// Package repository defines the rank store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/rankteam/internal/domain/model"
)

// Entry is a stored rank plus bookkeeping.
type Entry struct {
	model.RankRecord
	UpdatedAt time.Time
}

// Store provides read/write access to registered ranks. There is at most one
// record per identity.
type Store interface {
	// Upsert stores rec, replacing any existing record for the same ID.
	// It returns the replaced record and whether one existed.
	Upsert(ctx context.Context, rec model.RankRecord) (Entry, bool, error)

	// Get returns the record for id.
	// Returns ErrNotFound if the identity never registered.
	Get(ctx context.Context, id string) (Entry, error)

	// LookupRanks returns the records found for ids. Unknown identities are
	// omitted from the result rather than reported as errors.
	LookupRanks(ctx context.Context, ids []string) (map[string]model.RankRecord, error)

	// Count returns the number of registered identities.
	Count(ctx context.Context) int
}
