package domain

import "time"

// Project is the namespace for key allocation and state configuration.
// Key is the short uppercase prefix of every work-item key and never
// changes once assigned. IssueCounter is the per-project sequence the
// allocator bumps; it is persisted so issuance survives restarts.
type Project struct {
	ID           string    `json:"id"`
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	IssueCounter int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StateDefinition is one configurable status value, scoped to a
// (project, item type) pair. StateKey is the stable machine identifier
// work items reference; DisplayName and Color are presentation only.
type StateDefinition struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	ItemType    ItemType `json:"item_type"`
	StateKey    string   `json:"state_key"`
	DisplayName string   `json:"display_name"`
	Color       string   `json:"color"`
	IsInitial   bool     `json:"is_initial"`
	IsFinal     bool     `json:"is_final"`
	SortOrder   int      `json:"sort_order"`
}

// WorkItem unifies requirement, task and bug under one record with a
// type discriminator. Severity is meaningful only when Type is bug.
// Key is the human identifier (e.g. "PROJ_17"), unique per project and
// immutable after assignment. Deleted is terminal.
type WorkItem struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Key         string   `json:"key"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	State       string   `json:"state"`
	Priority    string   `json:"priority,omitempty"`
	Severity    string   `json:"severity,omitempty"`

	AssigneeID *string `json:"assignee_id,omitempty"`
	ReporterID *string `json:"reporter_id,omitempty"`

	ParentID        *string `json:"parent_id,omitempty"`
	RequirementID   *string `json:"requirement_id,omitempty"`
	SubsystemID     *string `json:"subsystem_id,omitempty"`
	FeatureModuleID *string `json:"feature_module_id,omitempty"`

	StoryPoints      *int     `json:"story_points,omitempty"`
	EstimateMinutes  *int     `json:"estimate_minutes,omitempty"`
	RemainingMinutes *int     `json:"remaining_minutes,omitempty"`
	EstimatedHours   *float64 `json:"estimated_hours,omitempty"`
	ActualHours      *float64 `json:"actual_hours,omitempty"`

	SprintID  *string    `json:"sprint_id,omitempty"`
	ReleaseID *string    `json:"release_id,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`

	Labels []string `json:"labels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"-"`
}

// Board groups kanban columns for one project. At most one board per
// project has IsDefault set.
type Board struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardColumn maps one kanban lane to exactly one state key. A nil
// WIPLimit means unbounded.
type BoardColumn struct {
	ID           string `json:"id"`
	BoardID      string `json:"board_id"`
	Name         string `json:"name"`
	StateMapping string `json:"state_mapping"`
	WIPLimit     *int   `json:"wip_limit,omitempty"`
	SortOrder    int    `json:"sort_order"`
	Color        string `json:"color,omitempty"`
}

// KanbanColumn is one lane of the board projection with its current
// work items.
type KanbanColumn struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	StateMapping string     `json:"state_mapping"`
	WIPLimit     *int       `json:"wip_limit,omitempty"`
	Issues       []WorkItem `json:"issues"`
}

// KanbanView is the read-only board projection returned to callers.
type KanbanView struct {
	BoardID string         `json:"board_id"`
	Name    string         `json:"name"`
	Columns []KanbanColumn `json:"columns"`
}

// Page is one page of a work-item listing.
type Page struct {
	Items    []WorkItem `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Filter narrows a work-item listing. Zero values mean "no constraint";
// TitleContains is a case-insensitive substring match. Page and
// PageSize are 1-indexed and must be positive.
type Filter struct {
	ProjectID     string
	TitleContains string
	State         string
	Type          ItemType
	AssigneeID    string
	Priority      string
	Page          int
	PageSize      int
}
