package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// PersonFilter narrows ListPeople results.
type PersonFilter struct {
	IncludeArchived bool
	Role            model.Role // empty matches any role
}

// UpsertPerson inserts a person or refreshes the mutable columns of an
// existing one. Roles are replaced wholesale.
func (s *Store) UpsertPerson(ctx context.Context, p model.Person) error {
	return observe(true, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO people (id, display_name, roles, archived, last_synced_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   display_name = excluded.display_name,
			   roles = excluded.roles,
			   archived = excluded.archived,
			   last_synced_at = excluded.last_synced_at`,
			p.ID, p.DisplayName, joinRoles(p.Roles), boolToInt(p.Archived),
			nullTime(p.LastSyncedAt), p.CreatedAt,
		)
		return err
	})
}

// GetPerson fetches one person by id. Returns ErrNotFound when absent.
func (s *Store) GetPerson(ctx context.Context, id string) (model.Person, error) {
	var p model.Person
	err := observe(false, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT id, display_name, roles, archived, last_synced_at, created_at
			 FROM people WHERE id = ?`, id)
		return scanPerson(row, &p)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Person{}, ErrNotFound
	}
	return p, err
}

// ListPeople returns people matching the filter, ordered by display name.
func (s *Store) ListPeople(ctx context.Context, f PersonFilter) ([]model.Person, error) {
	var out []model.Person
	err := observe(false, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, display_name, roles, archived, last_synced_at, created_at
			 FROM people
			 WHERE (? OR archived = 0)
			 ORDER BY display_name, id`,
			f.IncludeArchived,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err := ctxDone(ctx); err != nil {
				return err
			}
			var p model.Person
			if err := scanPerson(rows, &p); err != nil {
				return err
			}
			if f.Role != "" && !p.HasRole(f.Role) {
				continue
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

// ArchivePerson flips the archived flag. People are never deleted.
func (s *Store) ArchivePerson(ctx context.Context, id string) error {
	return observe(true, func() error {
		res, err := s.db.ExecContext(ctx, `UPDATE people SET archived = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TouchPersonSync updates the last-synced timestamp after an import pass.
func (s *Store) TouchPersonSync(ctx context.Context, id string, at time.Time) error {
	return observe(true, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE people SET last_synced_at = ? WHERE id = ?`, at, id)
		return err
	})
}

// CountPeople returns the number of unarchived people.
func (s *Store) CountPeople(ctx context.Context) (int, error) {
	var n int
	err := observe(false, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM people WHERE archived = 0`).Scan(&n)
	})
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner, p *model.Person) error {
	var roles string
	var archived int
	var lastSynced sql.NullTime
	if err := row.Scan(&p.ID, &p.DisplayName, &roles, &archived, &lastSynced, &p.CreatedAt); err != nil {
		return err
	}
	p.Roles = splitRoles(roles)
	p.Archived = archived != 0
	if lastSynced.Valid {
		p.LastSyncedAt = lastSynced.Time
	}
	return nil
}

func joinRoles(roles []model.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func splitRoles(s string) []model.Role {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]model.Role, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, model.Role(p))
		}
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
