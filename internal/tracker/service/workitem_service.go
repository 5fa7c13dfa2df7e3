package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// WorkItemStore is the persistence surface for work items.
type WorkItemStore interface {
	Create(ctx context.Context, item *domain.WorkItem) (*domain.WorkItem, error)
	Update(ctx context.Context, item *domain.WorkItem) (*domain.WorkItem, error)
	FindByID(ctx context.Context, id string) (*domain.WorkItem, error)
	List(ctx context.Context, f domain.Filter) (*domain.Page, error)
	SoftDelete(ctx context.Context, id string) error
}

// StateValidator is the slice of the state registry the work-item
// service needs.
type StateValidator interface {
	InitialState(ctx context.Context, projectID string, itemType domain.ItemType) (*domain.StateDefinition, error)
	IsValidState(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) (bool, error)
}

// BoardInvalidator drops cached board views after a write that can
// change board contents. May be nil when no cache is configured.
type BoardInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string) error
}

const maxPageSize = 200

// WorkItemService validates and orchestrates work-item operations:
// type rules, state resolution, soft deletion and pagination.
type WorkItemService struct {
	items  WorkItemStore
	states StateValidator
	cache  BoardInvalidator
}

func NewWorkItemService(items WorkItemStore, states StateValidator, cache BoardInvalidator) *WorkItemService {
	return &WorkItemService{items: items, states: states, cache: cache}
}

// Create validates the input, resolves the state (initial state of
// the type unless one was supplied) and persists the item. The key is
// allocated by the store inside the same transaction as the insert.
func (s *WorkItemService) Create(ctx context.Context, in domain.CreateWorkItemInput) (*domain.WorkItem, error) {
	if in.ProjectID == "" {
		return nil, domain.Invalid("project_id", "must not be empty")
	}
	if !in.Type.Valid() {
		return nil, domain.Invalid("type", fmt.Sprintf("must be one of requirement, task, bug; got %q", in.Type))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Invalid("title", "must not be empty")
	}

	severity, err := resolveSeverity(in.Type, in.Severity)
	if err != nil {
		return nil, err
	}
	if in.Priority != "" && !domain.KnownPriority(in.Priority) {
		return nil, domain.Invalid("priority", fmt.Sprintf("unknown priority %q", in.Priority))
	}

	state := in.State
	if state == "" {
		initial, err := s.states.InitialState(ctx, in.ProjectID, in.Type)
		if err != nil {
			return nil, err
		}
		state = initial.StateKey
	} else {
		ok, err := s.states.IsValidState(ctx, in.ProjectID, in.Type, state)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Invalid("state", fmt.Sprintf("state %q is not configured for type %q", state, in.Type))
		}
	}

	item := &domain.WorkItem{
		ID:          uuid.New().String(),
		ProjectID:   in.ProjectID,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		State:       state,
		Priority:    in.Priority,
		Severity:    severity,

		AssigneeID: in.AssigneeID,
		ReporterID: in.ReporterID,

		ParentID:        in.ParentID,
		RequirementID:   in.RequirementID,
		SubsystemID:     in.SubsystemID,
		FeatureModuleID: in.FeatureModuleID,

		StoryPoints:      in.StoryPoints,
		EstimateMinutes:  in.EstimateMinutes,
		RemainingMinutes: in.RemainingMinutes,
		EstimatedHours:   in.EstimatedHours,
		ActualHours:      in.ActualHours,

		SprintID:  in.SprintID,
		ReleaseID: in.ReleaseID,
		DueAt:     in.DueAt,

		Labels: dedupeLabels(in.Labels),
	}

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.ProjectID)
	log.Printf("[tracker] work item created key=%s type=%s project=%s", created.Key, created.Type, created.ProjectID)
	return created, nil
}

// Update applies a partial update. Key and project are immutable; a
// type change re-validates severity and state for the new type.
func (s *WorkItemService) Update(ctx context.Context, id string, in domain.UpdateWorkItemInput) (*domain.WorkItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Key != nil && *in.Key != item.Key {
		return nil, domain.Invalid("key", "key is immutable")
	}
	if in.ProjectID != nil && *in.ProjectID != item.ProjectID {
		return nil, domain.Invalid("project_id", "project is immutable")
	}

	typeChanged := false
	if in.Type != nil && *in.Type != item.Type {
		if !in.Type.Valid() {
			return nil, domain.Invalid("type", fmt.Sprintf("must be one of requirement, task, bug; got %q", *in.Type))
		}
		item.Type = *in.Type
		typeChanged = true
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, domain.Invalid("title", "must not be empty")
		}
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Priority != nil {
		if *in.Priority != "" && !domain.KnownPriority(*in.Priority) {
			return nil, domain.Invalid("priority", fmt.Sprintf("unknown priority %q", *in.Priority))
		}
		item.Priority = *in.Priority
	}

	if in.Severity != nil {
		item.Severity = *in.Severity
	}
	severity, err := resolveSeverity(item.Type, item.Severity)
	if err != nil {
		return nil, err
	}
	item.Severity = severity

	stateChanged := false
	if in.State != nil && *in.State != item.State {
		item.State = *in.State
		stateChanged = true
	}
	if stateChanged || typeChanged {
		ok, err := s.states.IsValidState(ctx, item.ProjectID, item.Type, item.State)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Invalid("state", fmt.Sprintf("state %q is not configured for type %q", item.State, item.Type))
		}
	}

	if in.AssigneeID != nil {
		item.AssigneeID = in.AssigneeID
	}
	if in.ReporterID != nil {
		item.ReporterID = in.ReporterID
	}
	if in.ParentID != nil {
		item.ParentID = in.ParentID
	}
	if in.RequirementID != nil {
		item.RequirementID = in.RequirementID
	}
	if in.SubsystemID != nil {
		item.SubsystemID = in.SubsystemID
	}
	if in.FeatureModuleID != nil {
		item.FeatureModuleID = in.FeatureModuleID
	}
	if in.StoryPoints != nil {
		item.StoryPoints = in.StoryPoints
	}
	if in.EstimateMinutes != nil {
		item.EstimateMinutes = in.EstimateMinutes
	}
	if in.RemainingMinutes != nil {
		item.RemainingMinutes = in.RemainingMinutes
	}
	if in.EstimatedHours != nil {
		item.EstimatedHours = in.EstimatedHours
	}
	if in.ActualHours != nil {
		item.ActualHours = in.ActualHours
	}
	if in.SprintID != nil {
		item.SprintID = in.SprintID
	}
	if in.ReleaseID != nil {
		item.ReleaseID = in.ReleaseID
	}
	if in.DueAt != nil {
		item.DueAt = in.DueAt
	}
	if in.Labels != nil {
		item.Labels = dedupeLabels(in.Labels)
	}

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, err
	}
	if stateChanged || typeChanged {
		s.invalidate(ctx, updated.ProjectID)
	}
	return updated, nil
}

// Get returns one work item; soft-deleted items are not found.
func (s *WorkItemService) Get(ctx context.Context, id string) (*domain.WorkItem, error) {
	return s.items.FindByID(ctx, id)
}

// List returns one page of items, newest update first.
func (s *WorkItemService) List(ctx context.Context, f domain.Filter) (*domain.Page, error) {
	if f.Page <= 0 {
		return nil, domain.Invalid("page", "must be positive")
	}
	if f.PageSize <= 0 {
		return nil, domain.Invalid("page_size", "must be positive")
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.Invalid("type", fmt.Sprintf("unknown item type %q", f.Type))
	}
	return s.items.List(ctx, f)
}

// Delete soft-deletes the item. A second delete of the same item finds
// nothing and fails.
func (s *WorkItemService) Delete(ctx context.Context, id string) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, item.ProjectID)
	log.Printf("[tracker] work item deleted key=%s project=%s", item.Key, item.ProjectID)
	return nil
}

func (s *WorkItemService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProject(ctx, projectID); err != nil {
		log.Printf("[tracker] cache invalidation failed project=%s error=%v", projectID, err)
	}
}

// resolveSeverity enforces the type-conditional severity rule: bugs
// require a known severity, other types carry none.
func resolveSeverity(t domain.ItemType, severity string) (string, error) {
	if t == domain.TypeBug {
		if severity == "" {
			return "", domain.Invalid("severity", "severity is required for bugs")
		}
		if !domain.KnownSeverity(severity) {
			return "", domain.Invalid("severity", fmt.Sprintf("unknown severity %q", severity))
		}
		return severity, nil
	}
	return "", nil
}

func dedupeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
