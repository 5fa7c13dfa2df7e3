package domain

import "time"

// CreateWorkItemInput carries the caller-supplied fields for a new
// work item. State is optional; when empty the initial state for the
// item's type is used.
type CreateWorkItemInput struct {
	ProjectID   string   `json:"project_id"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	State       string   `json:"state"`
	Priority    string   `json:"priority"`
	Severity    string   `json:"severity"`

	AssigneeID *string `json:"assignee_id"`
	ReporterID *string `json:"reporter_id"`

	ParentID        *string `json:"parent_id"`
	RequirementID   *string `json:"requirement_id"`
	SubsystemID     *string `json:"subsystem_id"`
	FeatureModuleID *string `json:"feature_module_id"`

	StoryPoints      *int     `json:"story_points"`
	EstimateMinutes  *int     `json:"estimate_minutes"`
	RemainingMinutes *int     `json:"remaining_minutes"`
	EstimatedHours   *float64 `json:"estimated_hours"`
	ActualHours      *float64 `json:"actual_hours"`

	SprintID  *string    `json:"sprint_id"`
	ReleaseID *string    `json:"release_id"`
	DueAt     *time.Time `json:"due_at"`

	Labels []string `json:"labels"`
}

// UpdateWorkItemInput is a partial update: nil fields keep their prior
// values. Key and ProjectID are present only so attempts to change
// them can be rejected explicitly.
type UpdateWorkItemInput struct {
	Key       *string `json:"key"`
	ProjectID *string `json:"project_id"`

	Type        *ItemType `json:"type"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	State       *string   `json:"state"`
	Priority    *string   `json:"priority"`
	Severity    *string   `json:"severity"`

	AssigneeID *string `json:"assignee_id"`
	ReporterID *string `json:"reporter_id"`

	ParentID        *string `json:"parent_id"`
	RequirementID   *string `json:"requirement_id"`
	SubsystemID     *string `json:"subsystem_id"`
	FeatureModuleID *string `json:"feature_module_id"`

	StoryPoints      *int     `json:"story_points"`
	EstimateMinutes  *int     `json:"estimate_minutes"`
	RemainingMinutes *int     `json:"remaining_minutes"`
	EstimatedHours   *float64 `json:"estimated_hours"`
	ActualHours      *float64 `json:"actual_hours"`

	SprintID  *string    `json:"sprint_id"`
	ReleaseID *string    `json:"release_id"`
	DueAt     *time.Time `json:"due_at"`

	Labels []string `json:"labels"`
}
