package http

import (
	"github.com/taskforge-app/taskforge-backend/internal/tracker/service"
)

// Handler bundles the dependencies for tracker HTTP endpoints.
type Handler struct {
	projects *service.ProjectService
	items    *service.WorkItemService
	boards   *service.BoardService
	registry *service.StateRegistry
}

func New(projects *service.ProjectService, items *service.WorkItemService, boards *service.BoardService, registry *service.StateRegistry) *Handler {
	return &Handler{projects: projects, items: items, boards: boards, registry: registry}
}

type createProjectReq struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type createBoardReq struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type createColumnReq struct {
	Name         string `json:"name"`
	StateMapping string `json:"state_mapping"`
	WIPLimit     *int   `json:"wip_limit"`
	SortOrder    int    `json:"sort_order"`
	Color        string `json:"color"`
}

type moveReq struct {
	IssueID  string `json:"issue_id"`
	ColumnID string `json:"column_id"`
}

type stateDefReq struct {
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	IsInitial   bool   `json:"is_initial"`
	IsFinal     bool   `json:"is_final"`
	SortOrder   int    `json:"sort_order"`
}
