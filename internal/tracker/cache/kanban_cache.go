package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

const (
	boardKeyPrefix   = "kanban:board:"   // Cached view JSON: kanban:board:{board_id}
	projectSetPrefix = "kanban:project:" // Set of cached board IDs per project: kanban:project:{project_id}
	viewTTL          = 5 * time.Minute
)

// KanbanCache keeps rendered kanban views in Redis. Reads tolerate a
// stale view up to the TTL; every write path that can change board
// contents invalidates the owning project's entries.
type KanbanCache struct {
	client *redis.Client
}

func NewKanbanCache(client *redis.Client) *KanbanCache {
	return &KanbanCache{client: client}
}

func (c *KanbanCache) boardKey(boardID string) string {
	return boardKeyPrefix + boardID
}

func (c *KanbanCache) projectSetKey(projectID string) string {
	return projectSetPrefix + projectID
}

// Get returns the cached view for a board, or (nil, nil) on a miss.
// Cache errors are returned so the caller can log and fall through to
// the database.
func (c *KanbanCache) Get(ctx context.Context, boardID string) (*domain.KanbanView, error) {
	data, err := c.client.Get(ctx, c.boardKey(boardID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var view domain.KanbanView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &view, nil
}

// Put stores a rendered view and indexes it under its project so a
// later project-wide invalidation can find it.
func (c *KanbanCache) Put(ctx context.Context, projectID string, view *domain.KanbanView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	setKey := c.projectSetKey(projectID)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.boardKey(view.BoardID), data, viewTTL)
	pipe.SAdd(ctx, setKey, view.BoardID)
	pipe.Expire(ctx, setKey, viewTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// InvalidateProject drops every cached view of the project's boards.
func (c *KanbanCache) InvalidateProject(ctx context.Context, projectID string) error {
	setKey := c.projectSetKey(projectID)
	boardIDs, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("cache members: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, id := range boardIDs {
		pipe.Del(ctx, c.boardKey(id))
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
