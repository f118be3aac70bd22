package service

import "errors"

var (
	// ErrNotStarted is returned for operations that need a started service.
	ErrNotStarted = errors.New("service not started")

	// ErrNoManualSource is returned when hand capture is requested but no
	// manual source is configured.
	ErrNoManualSource = errors.New("no manual source configured")
)
