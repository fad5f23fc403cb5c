package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/repository"
)

// projectRecord is the stored form of a project. Durations and timestamps are milliseconds.
type projectRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	URL       string `json:"url"`
	Interval  int64  `json:"interval"`
	Enabled   bool   `json:"enabled"`
	LastVote  *int64 `json:"lastVote"`
	VoteCount int64  `json:"voteCount"`
}

func toRecord(p *project.Project) projectRecord {
	rec := projectRecord{
		ID:        p.ID,
		Name:      p.Name,
		Username:  p.Username,
		URL:       p.URL,
		Interval:  p.Interval.Milliseconds(),
		Enabled:   p.Enabled,
		VoteCount: p.VoteCount,
	}
	if p.LastVote != nil {
		ms := p.LastVote.UnixMilli()
		rec.LastVote = &ms
	}
	return rec
}

func (r projectRecord) toProject() project.Project {
	p := project.Project{
		ID:        r.ID,
		Name:      r.Name,
		Username:  r.Username,
		URL:       r.URL,
		Interval:  time.Duration(r.Interval) * time.Millisecond,
		Enabled:   r.Enabled,
		VoteCount: r.VoteCount,
	}
	// A zero lastVote means "never voted", as does null.
	if r.LastVote != nil && *r.LastVote != 0 {
		t := time.UnixMilli(*r.LastVote)
		p.LastVote = &t
	}
	return p
}

// ProjectRepository implements project.Repository on the "projects" document.
type ProjectRepository struct {
	kv *KVStore
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{kv: NewKVStore(db)}
}

func decodeProjects(raw json.RawMessage) ([]projectRecord, error) {
	if raw == nil {
		return nil, nil
	}
	var records []projectRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: projects: %v", repository.ErrCorrupt, err)
	}
	return records, nil
}

func indexOf(records []projectRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns all projects in stored order
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	values, err := r.kv.Get(ctx, KeyProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	records, err := decodeProjects(values[KeyProjects])
	if err != nil {
		return nil, err
	}

	projects := make([]project.Project, 0, len(records))
	for _, rec := range records {
		projects = append(projects, rec.toProject())
	}
	return projects, nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create appends a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	return r.kv.Update(ctx, KeyProjects, func(current json.RawMessage) (any, bool, error) {
		records, err := decodeProjects(current)
		if err != nil {
			return nil, false, err
		}
		if indexOf(records, proj.ID) >= 0 {
			return nil, false, repository.ErrConflict
		}
		return append(records, toRecord(proj)), true, nil
	})
}

// Update replaces a stored project in place
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	return r.kv.Update(ctx, KeyProjects, func(current json.RawMessage) (any, bool, error) {
		records, err := decodeProjects(current)
		if err != nil {
			return nil, false, err
		}
		i := indexOf(records, proj.ID)
		if i < 0 {
			return nil, false, repository.ErrNotFound
		}
		records[i] = toRecord(proj)
		return records, true, nil
	})
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.kv.Update(ctx, KeyProjects, func(current json.RawMessage) (any, bool, error) {
		records, err := decodeProjects(current)
		if err != nil {
			return nil, false, err
		}
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, repository.ErrNotFound
		}
		return append(records[:i], records[i+1:]...), true, nil
	})
}

// RecordVote sets lastVote to at and increments voteCount atomically
func (r *ProjectRepository) RecordVote(ctx context.Context, id string, at time.Time) (*project.Project, error) {
	var updated project.Project
	err := r.kv.Update(ctx, KeyProjects, func(current json.RawMessage) (any, bool, error) {
		records, err := decodeProjects(current)
		if err != nil {
			return nil, false, err
		}
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, repository.ErrNotFound
		}
		ms := at.UnixMilli()
		records[i].LastVote = &ms
		records[i].VoteCount++
		updated = records[i].toProject()
		return records, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
