package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for the tracker tables. Statements are
// idempotent so Migrate can run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id            UUID PRIMARY KEY,
		key           TEXT NOT NULL UNIQUE CHECK (key ~ '^[A-Z0-9]+$'),
		name          TEXT NOT NULL,
		issue_counter BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS state_definitions (
		id           UUID PRIMARY KEY,
		project_id   UUID NOT NULL REFERENCES projects(id),
		item_type    TEXT NOT NULL,
		state_key    TEXT NOT NULL,
		display_name TEXT NOT NULL,
		color        TEXT NOT NULL DEFAULT '',
		is_initial   BOOLEAN NOT NULL DEFAULT FALSE,
		is_final     BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order   INT NOT NULL DEFAULT 0,
		UNIQUE (project_id, item_type, state_key)
	);`,

	`CREATE TABLE IF NOT EXISTS work_items (
		id                UUID PRIMARY KEY,
		project_id        UUID NOT NULL REFERENCES projects(id),
		key               TEXT NOT NULL CHECK (key = '' OR key ~ '^[A-Z0-9]+_[0-9]+$'),
		type              TEXT NOT NULL,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		state             TEXT NOT NULL,
		priority          TEXT NOT NULL DEFAULT '',
		severity          TEXT NOT NULL DEFAULT '',
		assignee_id       TEXT,
		reporter_id       TEXT,
		parent_id         UUID,
		requirement_id    UUID,
		subsystem_id      UUID,
		feature_module_id UUID,
		story_points      INT,
		estimate_minutes  INT,
		remaining_minutes INT,
		estimated_hours   DOUBLE PRECISION,
		actual_hours      DOUBLE PRECISION,
		sprint_id         UUID,
		release_id        UUID,
		due_at            TIMESTAMPTZ,
		labels            TEXT[] NOT NULL DEFAULT '{}',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted           BOOLEAN NOT NULL DEFAULT FALSE
	);`,

	// Keys are unique per project once assigned; the empty key marks
	// historical rows awaiting backfill.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_items_project_key
		ON work_items (project_id, key) WHERE key <> '';`,

	`CREATE INDEX IF NOT EXISTS idx_work_items_project_state
		ON work_items (project_id, state) WHERE NOT deleted;`,

	`CREATE INDEX IF NOT EXISTS idx_work_items_updated_at
		ON work_items (updated_at DESC);`,

	`CREATE TABLE IF NOT EXISTS boards (
		id         UUID PRIMARY KEY,
		project_id UUID NOT NULL REFERENCES projects(id),
		name       TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_boards_default
		ON boards (project_id) WHERE is_default;`,

	`CREATE TABLE IF NOT EXISTS board_columns (
		id            UUID PRIMARY KEY,
		board_id      UUID NOT NULL REFERENCES boards(id),
		name          TEXT NOT NULL,
		state_mapping TEXT NOT NULL,
		wip_limit     INT CHECK (wip_limit IS NULL OR wip_limit > 0),
		sort_order    INT NOT NULL DEFAULT 0,
		color         TEXT NOT NULL DEFAULT ''
	);`,
}

// Migrate applies the embedded DDL. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
