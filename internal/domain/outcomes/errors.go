package outcomes

import "errors"

// Sentinel kinds for outcome queue errors.
var (
	ErrNotFound      = errors.New("outcome not found")
	ErrTerminal      = errors.New("outcome already completed or dismissed")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrNotCompleted  = errors.New("only completed outcomes can be rated")
)
