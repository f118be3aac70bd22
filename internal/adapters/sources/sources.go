// Package sources defines where evidence comes from. Each source hands
// back raw items for the import pipeline to dedupe, persist, and queue
// for analysis.
package sources

import (
	"context"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// Item is one fetched interaction with its attachments.
type Item struct {
	Evidence model.Evidence
	Notes    []model.Note
	People   []model.Person // referenced people, upserted before the evidence
}

// Source produces items newer than a watermark.
type Source interface {
	// Name identifies the source in logs, metrics, and sync status.
	Name() string

	// Fetch returns items that occurred at or after since.
	Fetch(ctx context.Context, since time.Time) ([]Item, error)
}
