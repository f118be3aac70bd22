package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// EvidenceFilter narrows ListEvidence results.
type EvidenceFilter struct {
	Kind     model.EvidenceKind // empty matches any kind
	Since    time.Time          // zero means no lower bound
	Until    time.Time          // zero means no upper bound
	PersonID string             // empty matches any person
}

// InsertEvidence stores one evidence item with its person links and
// attached notes in a single transaction. A non-empty SourceRef that
// already exists yields ErrDuplicateRef.
func (s *Store) InsertEvidence(ctx context.Context, ev model.Evidence, notes []model.Note) error {
	return observe(true, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO evidence (id, kind, occurred_at, ended_at, source_ref, summary, reviewed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, string(ev.Kind), ev.OccurredAt, ev.EndedAt, ev.SourceRef,
			ev.Summary, boolToInt(ev.Reviewed), ev.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRef
			}
			return err
		}

		linkStmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO evidence_people (evidence_id, person_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer linkStmt.Close()
		for _, pid := range ev.PersonIDs {
			if _, err := linkStmt.ExecContext(ctx, ev.ID, pid); err != nil {
				return err
			}
		}

		if len(notes) > 0 {
			noteStmt, err := tx.PrepareContext(ctx,
				`INSERT INTO notes (id, body, evidence_id, created_at) VALUES (?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			defer noteStmt.Close()
			for _, n := range notes {
				if _, err := noteStmt.ExecContext(ctx, n.ID, n.Body, ev.ID, n.CreatedAt); err != nil {
					return err
				}
			}
		}

		return tx.Commit()
	})
}

// SourceRefExists reports whether evidence with the given source ref is
// already stored. Empty refs are never considered present.
func (s *Store) SourceRefExists(ctx context.Context, ref string) (bool, error) {
	if ref == "" {
		return false, nil
	}
	var n int
	err := observe(false, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM evidence WHERE source_ref = ?`, ref).Scan(&n)
	})
	return n > 0, err
}

// GetEvidence fetches one evidence item by id with its person links.
func (s *Store) GetEvidence(ctx context.Context, id string) (model.Evidence, error) {
	var ev model.Evidence
	err := observe(false, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT id, kind, occurred_at, ended_at, source_ref, summary, reviewed, created_at
			 FROM evidence WHERE id = ?`, id)
		if err := scanEvidence(row, &ev); err != nil {
			return err
		}
		var err error
		ev.PersonIDs, err = s.evidencePersonIDs(ctx, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Evidence{}, ErrNotFound
	}
	return ev, err
}

// ListEvidence returns evidence matching the filter, newest first.
func (s *Store) ListEvidence(ctx context.Context, f EvidenceFilter) ([]model.Evidence, error) {
	var out []model.Evidence
	err := observe(false, func() error {
		query := `SELECT DISTINCT e.id, e.kind, e.occurred_at, e.ended_at, e.source_ref, e.summary, e.reviewed, e.created_at
		          FROM evidence e`
		args := []any{}
		if f.PersonID != "" {
			query += ` JOIN evidence_people ep ON ep.evidence_id = e.id AND ep.person_id = ?`
			args = append(args, f.PersonID)
		}
		query += ` WHERE 1=1`
		if f.Kind != "" {
			query += ` AND e.kind = ?`
			args = append(args, string(f.Kind))
		}
		if !f.Since.IsZero() {
			query += ` AND e.occurred_at >= ?`
			args = append(args, f.Since)
		}
		if !f.Until.IsZero() {
			query += ` AND e.occurred_at <= ?`
			args = append(args, f.Until)
		}
		query += ` ORDER BY e.occurred_at DESC, e.id`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err := ctxDone(ctx); err != nil {
				return err
			}
			var ev model.Evidence
			if err := scanEvidence(rows, &ev); err != nil {
				return err
			}
			out = append(out, ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return s.attachPersonIDs(ctx, out)
	})
	return out, err
}

// ListEvidenceForPerson returns all evidence linked to a person, oldest
// first, the order health assessment consumes.
func (s *Store) ListEvidenceForPerson(ctx context.Context, personID string) ([]model.Evidence, error) {
	var out []model.Evidence
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT e.id, e.kind, e.occurred_at, e.ended_at, e.source_ref, e.summary, e.reviewed, e.created_at
			 FROM evidence e
			 JOIN evidence_people ep ON ep.evidence_id = e.id
			 WHERE ep.person_id = ?
			 ORDER BY e.occurred_at, e.id`, personID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ev model.Evidence
			if err := scanEvidence(rows, &ev); err != nil {
				return err
			}
			out = append(out, ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return s.attachPersonIDs(ctx, out)
	})
	return out, err
}

// LatestEvidenceByPerson returns the most recent evidence timestamp per
// person across all people that have any evidence.
func (s *Store) LatestEvidenceByPerson(ctx context.Context) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT ep.person_id, MAX(e.occurred_at)
			 FROM evidence e
			 JOIN evidence_people ep ON ep.evidence_id = e.id
			 GROUP BY ep.person_id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var pid string
			var latest time.Time
			if err := rows.Scan(&pid, &latest); err != nil {
				return err
			}
			out[pid] = latest
		}
		return rows.Err()
	})
	return out, err
}

// ListUnreviewedEvidence returns stored evidence that analysis never
// finished with, oldest first.
func (s *Store) ListUnreviewedEvidence(ctx context.Context) ([]model.Evidence, error) {
	var out []model.Evidence
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, kind, occurred_at, ended_at, source_ref, summary, reviewed, created_at
			 FROM evidence WHERE reviewed = 0
			 ORDER BY occurred_at, id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ev model.Evidence
			if err := scanEvidence(rows, &ev); err != nil {
				return err
			}
			out = append(out, ev)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return s.attachPersonIDs(ctx, out)
	})
	return out, err
}

// MarkEvidenceReviewed flips the reviewed flag after analysis finishes.
func (s *Store) MarkEvidenceReviewed(ctx context.Context, id string) error {
	return observe(true, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE evidence SET reviewed = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListNotesForEvidence returns the notes attached to given evidence ids,
// keyed by evidence id.
func (s *Store) ListNotesForEvidence(ctx context.Context, evidenceIDs []string) (map[string][]model.Note, error) {
	out := make(map[string][]model.Note)
	if len(evidenceIDs) == 0 {
		return out, nil
	}
	err := observe(false, func() error {
		stmt, err := s.db.PrepareContext(ctx,
			`SELECT id, body, evidence_id, created_at FROM notes WHERE evidence_id = ? ORDER BY created_at, id`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, evID := range evidenceIDs {
			rows, err := stmt.QueryContext(ctx, evID)
			if err != nil {
				return err
			}
			for rows.Next() {
				var n model.Note
				if err := rows.Scan(&n.ID, &n.Body, &n.EvidenceID, &n.CreatedAt); err != nil {
					rows.Close()
					return err
				}
				out[evID] = append(out[evID], n)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return err
			}
			rows.Close()
		}
		return nil
	})
	return out, err
}

// InsertNote attaches a note to existing evidence.
func (s *Store) InsertNote(ctx context.Context, n model.Note) error {
	return observe(true, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO notes (id, body, evidence_id, created_at) VALUES (?, ?, ?, ?)`,
			n.ID, n.Body, n.EvidenceID, n.CreatedAt)
		return err
	})
}

func (s *Store) evidencePersonIDs(ctx context.Context, evidenceID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT person_id FROM evidence_people WHERE evidence_id = ? ORDER BY person_id`, evidenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) attachPersonIDs(ctx context.Context, evs []model.Evidence) error {
	for i := range evs {
		ids, err := s.evidencePersonIDs(ctx, evs[i].ID)
		if err != nil {
			return err
		}
		evs[i].PersonIDs = ids
	}
	return nil
}

func scanEvidence(row rowScanner, ev *model.Evidence) error {
	var kind string
	var ended sql.NullTime
	var reviewed int
	if err := row.Scan(&ev.ID, &kind, &ev.OccurredAt, &ended, &ev.SourceRef, &ev.Summary, &reviewed, &ev.CreatedAt); err != nil {
		return err
	}
	ev.Kind = model.EvidenceKind(kind)
	if ended.Valid {
		t := ended.Time
		ev.EndedAt = &t
	}
	ev.Reviewed = reviewed != 0
	return nil
}

// isUniqueViolation matches the constraint error text mattn/go-sqlite3
// produces for the partial unique index on source_ref.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
