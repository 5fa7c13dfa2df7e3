package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

func setupCache(t *testing.T) (*KanbanCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewKanbanCache(client), mr
}

func sampleView(boardID string) *domain.KanbanView {
	limit := 3
	return &domain.KanbanView{
		BoardID: boardID,
		Name:    "Sprint",
		Columns: []domain.KanbanColumn{
			{ID: "col-1", Name: "Todo", StateMapping: "backlog"},
			{ID: "col-2", Name: "Done", StateMapping: "done", WIPLimit: &limit,
				Issues: []domain.WorkItem{{ID: "i1", Key: "DEMO_1", State: "done"}}},
		},
	}
}

func TestKanbanCache_PutGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "proj-1", sampleView("board-1")))

	view, err := c.Get(ctx, "board-1")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "Sprint", view.Name)
	require.Len(t, view.Columns, 2)
	require.NotNil(t, view.Columns[1].WIPLimit)
	assert.Equal(t, 3, *view.Columns[1].WIPLimit)
	assert.Equal(t, "DEMO_1", view.Columns[1].Issues[0].Key)
}

func TestKanbanCache_Miss(t *testing.T) {
	c, _ := setupCache(t)

	view, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestKanbanCache_TTL(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "proj-1", sampleView("board-1")))

	mr.FastForward(viewTTL + 1)

	view, err := c.Get(ctx, "board-1")
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestKanbanCache_InvalidateProject(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "proj-1", sampleView("board-1")))
	require.NoError(t, c.Put(ctx, "proj-1", sampleView("board-2")))
	require.NoError(t, c.Put(ctx, "proj-2", sampleView("board-3")))

	require.NoError(t, c.InvalidateProject(ctx, "proj-1"))

	for _, id := range []string{"board-1", "board-2"} {
		view, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, view, "board %s should be invalidated", id)
	}

	view, err := c.Get(ctx, "board-3")
	require.NoError(t, err)
	assert.NotNil(t, view, "other projects stay cached")

	assert.False(t, mr.Exists("kanban:project:proj-1"))
}

func TestKanbanCache_InvalidateEmptyProject(t *testing.T) {
	c, _ := setupCache(t)
	require.NoError(t, c.InvalidateProject(context.Background(), "proj-none"))
}
