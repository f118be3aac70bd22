package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateRef = errors.New("source ref already imported")
)
