package rankapi

import "errors"

// Sentinel kinds for rank API client errors.
var (
	// ErrUnavailable covers transport failures, non-2xx replies and bodies that
	// cannot be decoded.
	ErrUnavailable = errors.New("rank api unavailable")
	// ErrUnexpectedStatus is wrapped alongside ErrUnavailable for non-2xx replies.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
