package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

func setupProjectRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewProjectRepository(db), mock, db
}

func TestProjectRepository_Create(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	t.Run("inserts the project and seeds ten default states", func(t *testing.T) {
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "key", "name", "issue_counter", "created_at", "updated_at"}).
				AddRow("proj-1", "DEMO", "Demo", int64(0), now, now))
		// 3 requirement + 3 task + 4 bug states
		for i := 0; i < 10; i++ {
			mock.ExpectExec(`INSERT INTO state_definitions`).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectCommit()

		p, err := repo.Create(context.Background(), "DEMO", "Demo")
		require.NoError(t, err)
		assert.Equal(t, "DEMO", p.Key)
	})

	t.Run("duplicate key is a validation error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), "DEMO", "Demo")
		assert.True(t, domain.IsValidation(err))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_FindByID(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM projects`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListIDs(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
