package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// BoardStore is the persistence surface for boards, columns and the
// transactional move.
type BoardStore interface {
	CreateBoard(ctx context.Context, projectID, name string, isDefault bool) (*domain.Board, error)
	FindBoard(ctx context.Context, id string) (*domain.Board, error)
	CreateColumn(ctx context.Context, col *domain.BoardColumn) (*domain.BoardColumn, error)
	ListColumns(ctx context.Context, boardID string) ([]domain.BoardColumn, error)
	ItemsInState(ctx context.Context, projectID, stateKey string) ([]domain.WorkItem, error)
	Move(ctx context.Context, issueID, columnID string) (*domain.WorkItem, error)
}

// ViewCache caches rendered kanban views.
type ViewCache interface {
	Get(ctx context.Context, boardID string) (*domain.KanbanView, error)
	Put(ctx context.Context, projectID string, view *domain.KanbanView) error
	InvalidateProject(ctx context.Context, projectID string) error
}

// ColumnStateChecker validates that a column's state mapping exists
// for at least one item type of the board's project.
type ColumnStateChecker interface {
	StatesFor(ctx context.Context, projectID string, itemType domain.ItemType) ([]domain.StateDefinition, error)
}

// BoardService owns boards and columns and performs the state-changing
// move against the work-item store. The capacity check and the state
// write are one transaction inside the store's Move.
type BoardService struct {
	boards BoardStore
	states ColumnStateChecker
	cache  ViewCache
}

func NewBoardService(boards BoardStore, states ColumnStateChecker, cache ViewCache) *BoardService {
	return &BoardService{boards: boards, states: states, cache: cache}
}

// CreateBoard creates a board for a project.
func (s *BoardService) CreateBoard(ctx context.Context, projectID, name string, isDefault bool) (*domain.Board, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.Invalid("name", "must not be empty")
	}
	return s.boards.CreateBoard(ctx, projectID, strings.TrimSpace(name), isDefault)
}

// AddColumn appends a column to a board. The state mapping must be a
// state key configured for at least one item type of the board's
// project; a finite WIP limit must be positive.
func (s *BoardService) AddColumn(ctx context.Context, col *domain.BoardColumn) (*domain.BoardColumn, error) {
	if strings.TrimSpace(col.Name) == "" {
		return nil, domain.Invalid("name", "must not be empty")
	}
	if col.WIPLimit != nil && *col.WIPLimit <= 0 {
		return nil, domain.Invalid("wip_limit", "must be positive when set")
	}

	board, err := s.boards.FindBoard(ctx, col.BoardID)
	if err != nil {
		return nil, err
	}

	reachable := false
	for _, t := range []domain.ItemType{domain.TypeRequirement, domain.TypeTask, domain.TypeBug} {
		states, err := s.states.StatesFor(ctx, board.ProjectID, t)
		if err != nil {
			return nil, err
		}
		for _, st := range states {
			if st.StateKey == col.StateMapping {
				reachable = true
				break
			}
		}
		if reachable {
			break
		}
	}
	if !reachable {
		return nil, domain.Invalid("state_mapping",
			fmt.Sprintf("state %q is not configured for any item type of the board's project", col.StateMapping))
	}

	return s.boards.CreateColumn(ctx, col)
}

// MoveIssue reassigns the item's state to the target column's mapping.
// Rejections: unknown item or column, cross-project target, or a full
// column (finite WIP limit reached by items not already in the state).
func (s *BoardService) MoveIssue(ctx context.Context, issueID, columnID string) (*domain.WorkItem, error) {
	item, err := s.boards.Move(ctx, issueID, columnID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, item.ProjectID)
	log.Printf("[tracker] moved key=%s to state=%s project=%s", item.Key, item.State, item.ProjectID)
	return item, nil
}

// Kanban returns the board projection: every column with the
// non-deleted project items currently in its mapped state, newest
// update first. Served from cache when fresh.
func (s *BoardService) Kanban(ctx context.Context, boardID string) (*domain.KanbanView, error) {
	if s.cache != nil {
		view, err := s.cache.Get(ctx, boardID)
		if err != nil {
			log.Printf("[tracker] kanban cache read failed board=%s error=%v", boardID, err)
		} else if view != nil {
			return view, nil
		}
	}

	board, err := s.boards.FindBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	columns, err := s.boards.ListColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}

	view := &domain.KanbanView{
		BoardID: board.ID,
		Name:    board.Name,
		Columns: make([]domain.KanbanColumn, 0, len(columns)),
	}
	for _, col := range columns {
		issues, err := s.boards.ItemsInState(ctx, board.ProjectID, col.StateMapping)
		if err != nil {
			return nil, err
		}
		view.Columns = append(view.Columns, domain.KanbanColumn{
			ID:           col.ID,
			Name:         col.Name,
			StateMapping: col.StateMapping,
			WIPLimit:     col.WIPLimit,
			Issues:       issues,
		})
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, board.ProjectID, view); err != nil {
			log.Printf("[tracker] kanban cache write failed board=%s error=%v", boardID, err)
		}
	}
	return view, nil
}

func (s *BoardService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProject(ctx, projectID); err != nil {
		log.Printf("[tracker] cache invalidation failed project=%s error=%v", projectID, err)
	}
}
