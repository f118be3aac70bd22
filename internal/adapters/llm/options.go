package llm

import (
	"time"

	"github.com/rapporthq/rapport/pkg/logger"
)

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithModel sets the model identifier sent to the API.
func WithModel(model string) Option {
	return func(e *Extractor) {
		if model != "" {
			e.model = model
		}
	}
}

// WithMaxNotes caps how many notes per evidence item are sent.
func WithMaxNotes(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxNotes = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}
