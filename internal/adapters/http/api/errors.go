package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("sync already saturated")
	ErrUnknownKind  = errors.New("unknown evidence kind")
	ErrMissingTime  = errors.New("occurred_at is required")
)
