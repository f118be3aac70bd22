package health

import "errors"

// Sentinel kinds for assessment errors. Both mean "not applicable" rather
// than failure: affected people are simply omitted from scored views.
var (
	ErrInsufficientData = errors.New("not enough evidence to estimate cadence")
	ErrCadenceTooShort  = errors.New("cadence under one day is not meaningful")
)
