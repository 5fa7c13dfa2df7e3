package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// StateStore is the persistence surface the registry needs.
type StateStore interface {
	ListStates(ctx context.Context, projectID string, itemType domain.ItemType) ([]domain.StateDefinition, error)
	StateExists(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) (bool, error)
	AddState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error)
	UpdateState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error)
	RemoveState(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) error
}

// ProjectExistenceStore answers whether a project id is known.
type ProjectExistenceStore interface {
	Exists(ctx context.Context, id string) (bool, error)
}

var stateKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// StateRegistry owns the set of valid states per (project, item type)
// and the initial/final lookups every write path consults. It is
// read-only on the hot path; the Add/Update/Remove operations exist
// for administrative configuration.
type StateRegistry struct {
	states   StateStore
	projects ProjectExistenceStore
}

func NewStateRegistry(states StateStore, projects ProjectExistenceStore) *StateRegistry {
	return &StateRegistry{states: states, projects: projects}
}

// StatesFor returns the configured states ordered by sort order. An
// unknown project is an error; a known project with an unconfigured
// item type yields an empty slice, since not every project enables
// every type.
func (r *StateRegistry) StatesFor(ctx context.Context, projectID string, itemType domain.ItemType) ([]domain.StateDefinition, error) {
	if !itemType.Valid() {
		return nil, domain.Invalid("item_type", fmt.Sprintf("unknown item type %q", itemType))
	}

	states, err := r.states.ListStates(ctx, projectID, itemType)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		known, err := r.projects.Exists(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, domain.ErrNotFound
		}
	}
	return states, nil
}

// InitialState returns the single state new items of this type start
// in. Zero or multiple initial states is broken configuration, not a
// caller error.
func (r *StateRegistry) InitialState(ctx context.Context, projectID string, itemType domain.ItemType) (*domain.StateDefinition, error) {
	states, err := r.StatesFor(ctx, projectID, itemType)
	if err != nil {
		return nil, err
	}

	var initial *domain.StateDefinition
	for i := range states {
		if !states[i].IsInitial {
			continue
		}
		if initial != nil {
			return nil, &domain.ConfigError{Detail: fmt.Sprintf(
				"(%s, %s) has multiple initial states", projectID, itemType)}
		}
		initial = &states[i]
	}
	if initial == nil {
		return nil, &domain.ConfigError{Detail: fmt.Sprintf(
			"(%s, %s) has no initial state", projectID, itemType)}
	}
	return initial, nil
}

// IsValidState is the membership test used by every write that sets a
// work-item state.
func (r *StateRegistry) IsValidState(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) (bool, error) {
	return r.states.StateExists(ctx, projectID, itemType, stateKey)
}

// AddState configures a new state for a (project, item type) scope.
func (r *StateRegistry) AddState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	if err := r.validateDefinition(ctx, def); err != nil {
		return nil, err
	}
	return r.states.AddState(ctx, def)
}

// UpdateState edits an existing state definition. The store rejects
// any edit that would leave the scope with zero or more than one
// initial state.
func (r *StateRegistry) UpdateState(ctx context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	if err := r.validateDefinition(ctx, def); err != nil {
		return nil, err
	}
	return r.states.UpdateState(ctx, def)
}

// RemoveState deletes a state definition from a scope.
func (r *StateRegistry) RemoveState(ctx context.Context, projectID string, itemType domain.ItemType, stateKey string) error {
	if !itemType.Valid() {
		return domain.Invalid("item_type", fmt.Sprintf("unknown item type %q", itemType))
	}
	return r.states.RemoveState(ctx, projectID, itemType, stateKey)
}

func (r *StateRegistry) validateDefinition(ctx context.Context, def *domain.StateDefinition) error {
	if !def.ItemType.Valid() {
		return domain.Invalid("item_type", fmt.Sprintf("unknown item type %q", def.ItemType))
	}
	if !stateKeyPattern.MatchString(def.StateKey) {
		return domain.Invalid("state_key", "must be lowercase alphanumeric with underscores")
	}
	if def.DisplayName == "" {
		return domain.Invalid("display_name", "must not be empty")
	}

	known, err := r.projects.Exists(ctx, def.ProjectID)
	if err != nil {
		return err
	}
	if !known {
		return domain.ErrNotFound
	}
	return nil
}
