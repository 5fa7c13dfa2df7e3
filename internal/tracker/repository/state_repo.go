package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// StateRepository provides persistence for per-project state
// definitions. Mutations run in a transaction that re-verifies the
// "exactly one initial state" invariant before committing.
type StateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

const stateColumns = `id, project_id, item_type, state_key, display_name, color, is_initial, is_final, sort_order`

func scanState(row rowScanner) (*domain.StateDefinition, error) {
	var s domain.StateDefinition
	err := row.Scan(&s.ID, &s.ProjectID, &s.ItemType, &s.StateKey,
		&s.DisplayName, &s.Color, &s.IsInitial, &s.IsFinal, &s.SortOrder)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStates returns the configured states for one (project, item
// type) scope ordered by sort_order. An unconfigured scope yields an
// empty slice.
func (r *StateRepository) ListStates(ctx context.Context, projectID string, itemType domain.ItemType) ([]domain.StateDefinition, error) {
	q := `SELECT ` + stateColumns + `
FROM state_definitions
WHERE project_id = $1 AND item_type = $2
ORDER BY sort_order ASC, state_key ASC;`

	rows, err := r.db.QueryContext(ctx, q, projectID, string(itemType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StateDefinition{}
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// StateExists is the membership test used by every write path that
// sets a work-item state.
func (r *StateRepository) StateExists(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM state_definitions
	WHERE project_id = $1 AND item_type = $2 AND state_key = $3
);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, projectID, string(itemType), stateKey).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// AddState inserts a new state definition, rejecting any change that
// would leave the scope with zero or more than one initial state.
func (r *StateRepository) AddState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	return r.mutateScope(ctx, def.ProjectID, def.ItemType, func(tx *sql.Tx) error {
		def.ID = uuid.New().String()
		const q = `
INSERT INTO state_definitions (id, project_id, item_type, state_key, display_name, color, is_initial, is_final, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
		_, err := tx.ExecContext(ctx, q,
			def.ID, def.ProjectID, string(def.ItemType), def.StateKey,
			def.DisplayName, def.Color, def.IsInitial, def.IsFinal, def.SortOrder)
		return err
	}, def)
}

// UpdateState edits an existing state definition under the same
// invariant guard as AddState. The state key itself is stable and not
// editable.
func (r *StateRepository) UpdateState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	return r.mutateScope(ctx, def.ProjectID, def.ItemType, func(tx *sql.Tx) error {
		const q = `
UPDATE state_definitions
SET display_name = $4, color = $5, is_initial = $6, is_final = $7, sort_order = $8
WHERE project_id = $1 AND item_type = $2 AND state_key = $3
RETURNING id;
`
		err := tx.QueryRowContext(ctx, q,
			def.ProjectID, string(def.ItemType), def.StateKey,
			def.DisplayName, def.Color, def.IsInitial, def.IsFinal, def.SortOrder).Scan(&def.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}, def)
}

// RemoveState deletes a state definition. Removal is rejected while
// any non-deleted work item still holds the state, and when it would
// strip the scope of its initial state.
func (r *StateRepository) RemoveState(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) error {
	_, err := r.mutateScope(ctx, projectID, itemType, func(tx *sql.Tx) error {
		var inUse int
		const usage = `
SELECT COUNT(*) FROM work_items
WHERE project_id = $1 AND type = $2 AND state = $3 AND NOT deleted;
`
		if err := tx.QueryRowContext(ctx, usage, projectID, string(itemType), stateKey).Scan(&inUse); err != nil {
			return err
		}
		if inUse > 0 {
			return domain.Invalid("state_key", fmt.Sprintf("state %q is still used by %d work items", stateKey, inUse))
		}

		const del = `
DELETE FROM state_definitions
WHERE project_id = $1 AND item_type = $2 AND state_key = $3;
`
		result, err := tx.ExecContext(ctx, del, projectID, string(itemType), stateKey)
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
	}, nil)
	return err
}

// mutateScope locks the (project, item type) scope, applies fn, and
// verifies that exactly one initial state remains before committing.
func (r *StateRepository) mutateScope(ctx context.Context, projectID string, itemType domain.ItemType, fn func(*sql.Tx) error, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin state mutation: %w", err)
	}
	defer tx.Rollback()

	// Serializes concurrent admin edits of the same scope.
	const lock = `
SELECT id FROM state_definitions
WHERE project_id = $1 AND item_type = $2
FOR UPDATE;
`
	if _, err := tx.ExecContext(ctx, lock, projectID, string(itemType)); err != nil {
		return nil, fmt.Errorf("lock state scope: %w", err)
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	var initials int
	const check = `
SELECT COUNT(*) FROM state_definitions
WHERE project_id = $1 AND item_type = $2 AND is_initial;
`
	if err := tx.QueryRowContext(ctx, check, projectID, string(itemType)).Scan(&initials); err != nil {
		return nil, fmt.Errorf("verify initial states: %w", err)
	}
	if initials != 1 {
		return nil, &domain.ConfigError{Detail: fmt.Sprintf(
			"(%s, %s) would have %d initial states, want exactly 1", projectID, itemType, initials)}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit state mutation: %w", err)
	}
	return def, nil
}
