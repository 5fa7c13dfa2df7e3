package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// BoardRepository provides persistence for boards and columns and the
// transactional move of a work item into a column.
type BoardRepository struct {
	db *sql.DB
}

func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// CreateBoard inserts a board. Demoting an existing default board is a
// column-management concern the caller handles explicitly.
func (r *BoardRepository) CreateBoard(ctx context.Context, projectID, name string, isDefault bool) (*domain.Board, error) {
	const q = `
INSERT INTO boards (id, project_id, name, is_default)
VALUES ($1, $2, $3, $4)
RETURNING id, project_id, name, is_default, created_at, updated_at;
`
	var b domain.Board
	err := r.db.QueryRowContext(ctx, q, uuid.New().String(), projectID, name, isDefault).
		Scan(&b.ID, &b.ProjectID, &b.Name, &b.IsDefault, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert board: %w", err)
	}
	return &b, nil
}

// FindBoard returns the board or domain.ErrNotFound.
func (r *BoardRepository) FindBoard(ctx context.Context, id string) (*domain.Board, error) {
	const q = `SELECT id, project_id, name, is_default, created_at, updated_at FROM boards WHERE id = $1;`
	var b domain.Board
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.ProjectID, &b.Name, &b.IsDefault, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreateColumn inserts a column mapped to one state key.
func (r *BoardRepository) CreateColumn(ctx context.Context, col *domain.BoardColumn) (*domain.BoardColumn, error) {
	col.ID = uuid.New().String()
	const q = `
INSERT INTO board_columns (id, board_id, name, state_mapping, wip_limit, sort_order, color)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.db.ExecContext(ctx, q,
		col.ID, col.BoardID, col.Name, col.StateMapping, col.WIPLimit, col.SortOrder, col.Color)
	if err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	return col, nil
}

// ListColumns returns a board's columns in lane order.
func (r *BoardRepository) ListColumns(ctx context.Context, boardID string) ([]domain.BoardColumn, error) {
	const q = `
SELECT id, board_id, name, state_mapping, wip_limit, sort_order, color
FROM board_columns
WHERE board_id = $1
ORDER BY sort_order ASC;
`
	rows, err := r.db.QueryContext(ctx, q, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.BoardColumn{}
	for rows.Next() {
		var c domain.BoardColumn
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.StateMapping, &c.WIPLimit, &c.SortOrder, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ItemsInState lists the non-deleted items of a project currently in
// one state, newest update first. Feeds the kanban projection.
func (r *BoardRepository) ItemsInState(ctx context.Context, projectID, stateKey string) ([]domain.WorkItem, error) {
	q := `SELECT ` + workItemColumns + `
FROM work_items
WHERE project_id = $1 AND state = $2 AND NOT deleted
ORDER BY updated_at DESC;`

	rows, err := r.db.QueryContext(ctx, q, projectID, stateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

// Move reassigns a work item's state to the target column's mapping.
// The FOR UPDATE on the column row serializes all moves into the same
// column: a second mover blocks until the first commits, and under
// READ COMMITTED its capacity count then runs on a fresh per-statement
// snapshot that already sees the first move's write. Two concurrent
// moves into a column with one free slot therefore cannot both be
// admitted. Serialization failures surface as retryable SQLSTATEs and
// go through withRetry.
func (r *BoardRepository) Move(ctx context.Context, issueID, columnID string) (*domain.WorkItem, error) {
	var moved *domain.WorkItem
	err := withRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin move: %w", err)
		}
		defer tx.Rollback()

		const colQ = `
SELECT c.state_mapping, c.wip_limit, b.project_id
FROM board_columns c
JOIN boards b ON b.id = c.board_id
WHERE c.id = $1
FOR UPDATE OF c;
`
		var mapping string
		var wipLimit sql.NullInt64
		var boardProjectID string
		if err := tx.QueryRowContext(ctx, colQ, columnID).Scan(&mapping, &wipLimit, &boardProjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load column: %w", err)
		}

		const itemQ = `
SELECT project_id, type, state FROM work_items
WHERE id = $1 AND NOT deleted
FOR UPDATE;
`
		var itemProjectID, itemType, currentState string
		if err := tx.QueryRowContext(ctx, itemQ, issueID).Scan(&itemProjectID, &itemType, &currentState); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load work item: %w", err)
		}

		if itemProjectID != boardProjectID {
			return domain.ErrCrossProject
		}

		const validQ = `
SELECT EXISTS (
	SELECT 1 FROM state_definitions
	WHERE project_id = $1 AND item_type = $2 AND state_key = $3
);
`
		var valid bool
		if err := tx.QueryRowContext(ctx, validQ, itemProjectID, itemType, mapping).Scan(&valid); err != nil {
			return fmt.Errorf("check state mapping: %w", err)
		}
		if !valid {
			return domain.Invalid("state", fmt.Sprintf("state %q is not configured for type %q", mapping, itemType))
		}

		// Items already in the mapped state keep their slot; only an
		// actual entry into the column counts against the limit.
		if wipLimit.Valid && currentState != mapping {
			const countQ = `
SELECT COUNT(*) FROM work_items
WHERE project_id = $1 AND state = $2 AND NOT deleted;
`
			var occupied int64
			if err := tx.QueryRowContext(ctx, countQ, itemProjectID, mapping).Scan(&occupied); err != nil {
				return fmt.Errorf("count column occupancy: %w", err)
			}
			if occupied >= wipLimit.Int64 {
				return domain.ErrCapacityExceeded
			}
		}

		updQ := `
UPDATE work_items
SET state = $2, updated_at = now()
WHERE id = $1
RETURNING ` + workItemColumns + `;`
		item, err := scanWorkItem(tx.QueryRowContext(ctx, updQ, issueID, mapping))
		if err != nil {
			return fmt.Errorf("apply move: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit move: %w", err)
		}
		moved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}
