package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// ListOutcomes returns every stored outcome, oldest first. The engine
// hydrates its in-memory state from this at startup.
func (s *Store) ListOutcomes(ctx context.Context) ([]model.Outcome, error) {
	var out []model.Outcome
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, person_id, evidence_id, cause_key, kind, title, detail,
			        status, priority_score, default_action, rating, created_at, resolved_at
			 FROM outcomes ORDER BY created_at, id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err := ctxDone(ctx); err != nil {
				return err
			}
			var o model.Outcome
			if err := scanOutcome(rows, &o); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

// InsertOutcome stores a freshly generated outcome.
func (s *Store) InsertOutcome(ctx context.Context, o model.Outcome) error {
	return observe(true, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO outcomes (id, person_id, evidence_id, cause_key, kind, title, detail,
			                       status, priority_score, default_action, rating, created_at, resolved_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.PersonID, o.EvidenceID, o.CauseKey, string(o.Kind), o.Title, o.Detail,
			string(o.Status), o.PriorityScore, string(o.DefaultAction), o.Rating,
			o.CreatedAt, o.ResolvedAt,
		)
		return err
	})
}

// UpdateOutcomeStatus writes a status transition. A nil resolvedAt clears
// the column, which only happens for non-terminal transitions.
func (s *Store) UpdateOutcomeStatus(ctx context.Context, id string, status model.OutcomeStatus, resolvedAt *time.Time) error {
	return observe(true, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE outcomes SET status = ?, resolved_at = ? WHERE id = ?`,
			string(status), resolvedAt, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpdateOutcomeRating writes the user's usefulness rating.
func (s *Store) UpdateOutcomeRating(ctx context.Context, id string, rating int) error {
	return observe(true, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE outcomes SET rating = ? WHERE id = ?`, rating, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanOutcome(row rowScanner, o *model.Outcome) error {
	var kind, status, action string
	var resolved sql.NullTime
	err := row.Scan(&o.ID, &o.PersonID, &o.EvidenceID, &o.CauseKey, &kind, &o.Title, &o.Detail,
		&status, &o.PriorityScore, &action, &o.Rating, &o.CreatedAt, &resolved)
	if err != nil {
		return err
	}
	o.Kind = model.OutcomeKind(kind)
	o.Status = model.OutcomeStatus(status)
	o.DefaultAction = model.DefaultAction(action)
	if resolved.Valid {
		t := resolved.Time
		o.ResolvedAt = &t
	}
	return nil
}
