package repository

import (
	"context"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// InsertInsights stores a batch of extracted insights in one transaction.
func (s *Store) InsertInsights(ctx context.Context, insights []model.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	return observe(true, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO insights (id, person_id, evidence_id, kind, body, confidence, model, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, in := range insights {
			_, err := stmt.ExecContext(ctx,
				in.ID, in.PersonID, in.EvidenceID, string(in.Kind),
				in.Body, in.Confidence, in.Model, in.CreatedAt)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// ListInsightsForPerson returns a person's insights, newest first.
func (s *Store) ListInsightsForPerson(ctx context.Context, personID string) ([]model.Insight, error) {
	var out []model.Insight
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, person_id, evidence_id, kind, body, confidence, model, created_at
			 FROM insights WHERE person_id = ?
			 ORDER BY created_at DESC, id`, personID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var in model.Insight
			var kind string
			if err := rows.Scan(&in.ID, &in.PersonID, &in.EvidenceID, &kind,
				&in.Body, &in.Confidence, &in.Model, &in.CreatedAt); err != nil {
				return err
			}
			in.Kind = model.InsightKind(kind)
			out = append(out, in)
		}
		return rows.Err()
	})
	return out, err
}

// ListRecentFactInsights returns fact insights at or above the confidence
// floor created since the cutoff, newest first.
func (s *Store) ListRecentFactInsights(ctx context.Context, since time.Time, minConfidence float64) ([]model.Insight, error) {
	var out []model.Insight
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, person_id, evidence_id, kind, body, confidence, model, created_at
			 FROM insights WHERE kind = ? AND created_at >= ? AND confidence >= ?
			 ORDER BY created_at DESC, id`,
			string(model.InsightFact), since, minConfidence)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var in model.Insight
			var kind string
			if err := rows.Scan(&in.ID, &in.PersonID, &in.EvidenceID, &kind,
				&in.Body, &in.Confidence, &in.Model, &in.CreatedAt); err != nil {
				return err
			}
			in.Kind = model.InsightKind(kind)
			out = append(out, in)
		}
		return rows.Err()
	})
	return out, err
}

// ListRecentActionItems returns action-item insights created since the
// cutoff, the pool coaching draws follow-up suggestions from.
func (s *Store) ListRecentActionItems(ctx context.Context, since time.Time) ([]model.Insight, error) {
	var out []model.Insight
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, person_id, evidence_id, kind, body, confidence, model, created_at
			 FROM insights WHERE kind = ? AND created_at >= ?
			 ORDER BY created_at DESC, id`,
			string(model.InsightActionItem), since)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var in model.Insight
			var kind string
			if err := rows.Scan(&in.ID, &in.PersonID, &in.EvidenceID, &kind,
				&in.Body, &in.Confidence, &in.Model, &in.CreatedAt); err != nil {
				return err
			}
			in.Kind = model.InsightKind(kind)
			out = append(out, in)
		}
		return rows.Err()
	})
	return out, err
}
