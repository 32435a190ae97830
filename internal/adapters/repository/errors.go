package repository

import "errors"

// Sentinel kinds for rank store errors.
var (
	ErrNotFound      = errors.New("rank not found")
	ErrInvalidRecord = errors.New("invalid rank record")
)
