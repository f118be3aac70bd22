package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rapporthq/rapport/internal/domain/model"
)

// fileItem is the on-disk shape of an exported interaction.
type fileItem struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
	SourceRef  string    `json:"source_ref"`
	Summary    string    `json:"summary"`
	PersonIDs  []string  `json:"person_ids"`
	People     []struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"display_name"`
		Roles       []string `json:"roles"`
	} `json:"people,omitempty"`
	Notes []string `json:"notes,omitempty"`
}

// FileSource reads interactions from a JSON export file. It is the bulk
// import path for calendar and mail dumps.
type FileSource struct {
	name string
	path string
	now  func() time.Time
}

// NewFileSource creates a source reading the given JSON file.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path, now: time.Now}
}

func (f *FileSource) Name() string { return f.name }

// Fetch reads the file and returns items occurring at or after since.
// A missing file is not an error; the export may not exist yet.
func (f *FileSource) Fetch(ctx context.Context, since time.Time) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading export %s: %w", f.path, err)
	}

	var raw []fileItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", f.path, err)
	}

	now := f.now()
	var out []Item
	for i, fi := range raw {
		if fi.OccurredAt.Before(since) {
			continue
		}
		ev := model.Evidence{
			Kind:       model.EvidenceKind(fi.Kind),
			OccurredAt: fi.OccurredAt,
			SourceRef:  fi.SourceRef,
			Summary:    fi.Summary,
			PersonIDs:  fi.PersonIDs,
			CreatedAt:  now,
		}
		if !fi.EndedAt.IsZero() {
			t := fi.EndedAt
			ev.EndedAt = &t
		}
		if ev.SourceRef == "" {
			// Positional fallback so re-imports of the same file dedupe.
			ev.SourceRef = fmt.Sprintf("%s:%s:%d", f.name, fi.OccurredAt.Format(time.RFC3339), i)
		}

		it := Item{Evidence: ev}
		for _, p := range fi.People {
			roles := make([]model.Role, 0, len(p.Roles))
			for _, r := range p.Roles {
				roles = append(roles, model.Role(r))
			}
			it.People = append(it.People, model.Person{
				ID:          p.ID,
				DisplayName: p.DisplayName,
				Roles:       roles,
				CreatedAt:   now,
			})
		}
		for _, body := range fi.Notes {
			it.Notes = append(it.Notes, model.Note{Body: body, CreatedAt: now})
		}
		out = append(out, it)
	}
	return out, nil
}
