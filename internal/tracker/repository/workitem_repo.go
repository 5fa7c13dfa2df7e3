package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// workItemColumns is the canonical column list used by every read of
// the work_items table; scanWorkItem must match it.
const workItemColumns = `id, project_id, key, type, title, description, state, priority, severity,
	assignee_id, reporter_id, parent_id, requirement_id, subsystem_id, feature_module_id,
	story_points, estimate_minutes, remaining_minutes, estimated_hours, actual_hours,
	sprint_id, release_id, due_at, labels, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (*domain.WorkItem, error) {
	var w domain.WorkItem
	err := row.Scan(
		&w.ID, &w.ProjectID, &w.Key, &w.Type, &w.Title, &w.Description, &w.State, &w.Priority, &w.Severity,
		&w.AssigneeID, &w.ReporterID, &w.ParentID, &w.RequirementID, &w.SubsystemID, &w.FeatureModuleID,
		&w.StoryPoints, &w.EstimateMinutes, &w.RemainingMinutes, &w.EstimatedHours, &w.ActualHours,
		&w.SprintID, &w.ReleaseID, &w.DueAt, pq.Array(&w.Labels), &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WorkItemRepository provides persistence for work items, including
// key allocation inside the create transaction.
type WorkItemRepository struct {
	db *sql.DB
}

func NewWorkItemRepository(db *sql.DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

// Create persists item and assigns its key in one transaction. The
// counter bump is a single round-trip UPDATE ... RETURNING, so two
// concurrent creates for the same project serialize on the project row
// and can never receive the same key. A rollback leaves no gap.
func (r *WorkItemRepository) Create(ctx context.Context, item *domain.WorkItem) (*domain.WorkItem, error) {
	var out *domain.WorkItem
	err := withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin create: %w", err)
		}
		defer tx.Rollback()

		const bump = `
UPDATE projects
SET issue_counter = issue_counter + 1, updated_at = now()
WHERE id = $1
RETURNING key, issue_counter;
`
		var projectKey string
		var seq int64
		if err := tx.QueryRowContext(ctx, bump, item.ProjectID).Scan(&projectKey, &seq); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("allocate key: %w", err)
		}
		item.Key = fmt.Sprintf("%s_%d", projectKey, seq)

		const insert = `
INSERT INTO work_items (
	id, project_id, key, type, title, description, state, priority, severity,
	assignee_id, reporter_id, parent_id, requirement_id, subsystem_id, feature_module_id,
	story_points, estimate_minutes, remaining_minutes, estimated_hours, actual_hours,
	sprint_id, release_id, due_at, labels
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9,
	$10, $11, $12, $13, $14, $15,
	$16, $17, $18, $19, $20,
	$21, $22, $23, $24
)
RETURNING created_at, updated_at;
`
		err = tx.QueryRowContext(ctx, insert,
			item.ID, item.ProjectID, item.Key, item.Type, item.Title, item.Description, item.State, item.Priority, item.Severity,
			item.AssigneeID, item.ReporterID, item.ParentID, item.RequirementID, item.SubsystemID, item.FeatureModuleID,
			item.StoryPoints, item.EstimateMinutes, item.RemainingMinutes, item.EstimatedHours, item.ActualHours,
			item.SprintID, item.ReleaseID, item.DueAt, pq.Array(item.Labels),
		).Scan(&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert work item: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit create: %w", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the full mutable state of item. Key, project and
// timestamps are owned by the store; the row must exist and not be
// soft-deleted.
func (r *WorkItemRepository) Update(ctx context.Context, item *domain.WorkItem) (*domain.WorkItem, error) {
	const q = `
UPDATE work_items SET
	type = $2, title = $3, description = $4, state = $5, priority = $6, severity = $7,
	assignee_id = $8, reporter_id = $9, parent_id = $10, requirement_id = $11,
	subsystem_id = $12, feature_module_id = $13,
	story_points = $14, estimate_minutes = $15, remaining_minutes = $16,
	estimated_hours = $17, actual_hours = $18,
	sprint_id = $19, release_id = $20, due_at = $21, labels = $22,
	updated_at = now()
WHERE id = $1 AND NOT deleted
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q,
		item.ID, item.Type, item.Title, item.Description, item.State, item.Priority, item.Severity,
		item.AssigneeID, item.ReporterID, item.ParentID, item.RequirementID,
		item.SubsystemID, item.FeatureModuleID,
		item.StoryPoints, item.EstimateMinutes, item.RemainingMinutes,
		item.EstimatedHours, item.ActualHours,
		item.SprintID, item.ReleaseID, item.DueAt, pq.Array(item.Labels),
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// FindByID returns the item, or domain.ErrNotFound when it is absent
// or soft-deleted.
func (r *WorkItemRepository) FindByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	q := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1 AND NOT deleted;`
	item, err := scanWorkItem(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// List returns one page of non-deleted items matching f, newest
// update first.
func (r *WorkItemRepository) List(ctx context.Context, f domain.Filter) (*domain.Page, error) {
	conds := []string{"NOT deleted"}
	args := []any{}

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ProjectID != "" {
		add("project_id = $%d", f.ProjectID)
	}
	if f.TitleContains != "" {
		add(`title ILIKE '%%' || $%d || '%%' ESCAPE '\'`, escapeLike(f.TitleContains))
	}
	if f.State != "" {
		add("state = $%d", f.State)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.AssigneeID != "" {
		add("assignee_id = $%d", f.AssigneeID)
	}
	if f.Priority != "" {
		add("priority = $%d", f.Priority)
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQ := `SELECT COUNT(*) FROM work_items WHERE ` + where + `;`
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count work items: %w", err)
	}

	pageQ := `SELECT ` + workItemColumns + ` FROM work_items WHERE ` + where +
		` ORDER BY updated_at DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2) + `;`
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, pageQ, args...)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.WorkItem, 0, f.PageSize)
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// escapeLike neutralizes LIKE metacharacters in a user-supplied filter
// value so it matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SoftDelete marks the item deleted. Deleting an absent or already
// deleted item is an error, not a no-op.
func (r *WorkItemRepository) SoftDelete(ctx context.Context, id string) error {
	const q = `
UPDATE work_items
SET deleted = TRUE, updated_at = now()
WHERE id = $1 AND NOT deleted;
`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BackfillKeys assigns keys to historical items of a project that lack
// one, in created_at ascending order, continuing from the current
// counter. One-time repair operation; returns the number of items
// keyed.
func (r *WorkItemRepository) BackfillKeys(ctx context.Context, projectID string) (int, error) {
	var filled int
	err := withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin backfill: %w", err)
		}
		defer tx.Rollback()

		var projectKey string
		var counter int64
		const lockProject = `SELECT key, issue_counter FROM projects WHERE id = $1 FOR UPDATE;`
		if err := tx.QueryRowContext(ctx, lockProject, projectID).Scan(&projectKey, &counter); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock project: %w", err)
		}

		const pending = `
SELECT id FROM work_items
WHERE project_id = $1 AND key = ''
ORDER BY created_at ASC;
`
		rows, err := tx.QueryContext(ctx, pending, projectID)
		if err != nil {
			return fmt.Errorf("select unkeyed items: %w", err)
		}
		ids := []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			counter++
			key := fmt.Sprintf("%s_%d", projectKey, counter)
			if _, err := tx.ExecContext(ctx,
				`UPDATE work_items SET key = $2 WHERE id = $1;`, id, key); err != nil {
				return fmt.Errorf("assign key %s: %w", key, err)
			}
		}

		if len(ids) > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE projects SET issue_counter = $2, updated_at = now() WHERE id = $1;`,
				projectID, counter); err != nil {
				return fmt.Errorf("advance counter: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit backfill: %w", err)
		}
		filled = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return filled, nil
}

// RepairCounters advances any project counter that has fallen behind
// the highest issued key suffix. A lagging counter would make the next
// create collide with an existing key; keeping it ahead is cheap.
func (r *WorkItemRepository) RepairCounters(ctx context.Context) (int64, error) {
	const q = `
UPDATE projects p
SET issue_counter = m.max_seq, updated_at = now()
FROM (
	SELECT project_id, MAX(split_part(key, '_', 2)::bigint) AS max_seq
	FROM work_items
	WHERE key <> ''
	GROUP BY project_id
) m
WHERE m.project_id = p.id AND m.max_seq > p.issue_counter;
`
	result, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("repair counters: %w", err)
	}
	return result.RowsAffected()
}
