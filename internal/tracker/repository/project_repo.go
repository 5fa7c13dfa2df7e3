package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// stateSeed is one default state definition created alongside a new
// project.
type stateSeed struct {
	key       string
	name      string
	color     string
	isInitial bool
	isFinal   bool
}

// defaultStateSeeds are the states every new project starts with, per
// item type. Bugs get a longer pipeline than tasks and requirements.
var defaultStateSeeds = map[domain.ItemType][]stateSeed{
	domain.TypeTask: {
		{key: "backlog", name: "Backlog", color: "#8f9aa6", isInitial: true},
		{key: "in_progress", name: "In Progress", color: "#2f81f7"},
		{key: "done", name: "Done", color: "#3fb950", isFinal: true},
	},
	domain.TypeRequirement: {
		{key: "backlog", name: "Backlog", color: "#8f9aa6", isInitial: true},
		{key: "in_progress", name: "In Progress", color: "#2f81f7"},
		{key: "done", name: "Done", color: "#3fb950", isFinal: true},
	},
	domain.TypeBug: {
		{key: "open", name: "Open", color: "#f85149", isInitial: true},
		{key: "confirmed", name: "Confirmed", color: "#d29922"},
		{key: "fixed", name: "Fixed", color: "#2f81f7"},
		{key: "closed", name: "Closed", color: "#3fb950", isFinal: true},
	},
}

// ProjectRepository provides persistence operations for projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a project and seeds its default state definitions in
// one transaction. The project key acts as the allocator namespace and
// must be unique; a duplicate is a validation error.
func (r *ProjectRepository) Create(ctx context.Context, key, name string) (*domain.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create project: %w", err)
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO projects (id, key, name)
VALUES ($1, $2, $3)
RETURNING id, key, name, issue_counter, created_at, updated_at;
`
	var p domain.Project
	err = tx.QueryRowContext(ctx, insert, uuid.New().String(), key, name).
		Scan(&p.ID, &p.Key, &p.Name, &p.IssueCounter, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, domain.Invalid("key", "project key already in use")
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	const seed = `
INSERT INTO state_definitions (id, project_id, item_type, state_key, display_name, color, is_initial, is_final, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	for _, itemType := range []domain.ItemType{domain.TypeRequirement, domain.TypeTask, domain.TypeBug} {
		for i, s := range defaultStateSeeds[itemType] {
			_, err := tx.ExecContext(ctx, seed,
				uuid.New().String(), p.ID, string(itemType), s.key, s.name, s.color, s.isInitial, s.isFinal, i)
			if err != nil {
				return nil, fmt.Errorf("seed %s state %q: %w", itemType, s.key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create project: %w", err)
	}
	return &p, nil
}

// FindByID returns the project or domain.ErrNotFound.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	const q = `SELECT id, key, name, issue_counter, created_at, updated_at FROM projects WHERE id = $1;`
	var p domain.Project
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Key, &p.Name, &p.IssueCounter, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Exists reports whether a project with the given id exists.
func (r *ProjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListIDs returns the ids of all projects, oldest first. Used by the
// maintenance sweep.
func (r *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	const q = `SELECT id FROM projects ORDER BY created_at ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
