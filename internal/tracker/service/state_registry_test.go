package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

type fakeStateStore struct {
	states map[string][]domain.StateDefinition // projectID/itemType
}

func scopeKey(projectID string, t domain.ItemType) string {
	return projectID + "/" + string(t)
}

func (f *fakeStateStore) ListStates(_ context.Context, projectID string, t domain.ItemType) ([]domain.StateDefinition, error) {
	return f.states[scopeKey(projectID, t)], nil
}

func (f *fakeStateStore) StateExists(_ context.Context, projectID string, t domain.ItemType, stateKey string) (bool, error) {
	for _, s := range f.states[scopeKey(projectID, t)] {
		if s.StateKey == stateKey {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStateStore) AddState(_ context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	key := scopeKey(def.ProjectID, def.ItemType)
	f.states[key] = append(f.states[key], *def)
	return def, nil
}

func (f *fakeStateStore) UpdateState(_ context.Context, def *domain.StateDefinition) (*domain.StateDefinition, error) {
	return def, nil
}

func (f *fakeStateStore) RemoveState(_ context.Context, projectID string, t domain.ItemType, stateKey string) error {
	key := scopeKey(projectID, t)
	kept := f.states[key][:0]
	for _, s := range f.states[key] {
		if s.StateKey != stateKey {
			kept = append(kept, s)
		}
	}
	f.states[key] = kept
	return nil
}

type fakeProjects struct{ known map[string]bool }

func (f *fakeProjects) Exists(_ context.Context, id string) (bool, error) {
	return f.known[id], nil
}

func def(project string, t domain.ItemType, key string, initial bool) domain.StateDefinition {
	return domain.StateDefinition{
		ProjectID: project, ItemType: t, StateKey: key,
		DisplayName: key, IsInitial: initial,
	}
}

func newRegistry(states map[string][]domain.StateDefinition) *StateRegistry {
	return NewStateRegistry(
		&fakeStateStore{states: states},
		&fakeProjects{known: map[string]bool{"proj-1": true}},
	)
}

func TestStateRegistry_StatesFor(t *testing.T) {
	reg := newRegistry(map[string][]domain.StateDefinition{
		"proj-1/task": {
			def("proj-1", domain.TypeTask, "backlog", true),
			def("proj-1", domain.TypeTask, "done", false),
		},
	})

	t.Run("returns the configured scope", func(t *testing.T) {
		states, err := reg.StatesFor(context.Background(), "proj-1", domain.TypeTask)
		require.NoError(t, err)
		assert.Len(t, states, 2)
	})

	t.Run("empty scope of a known project is fine", func(t *testing.T) {
		states, err := reg.StatesFor(context.Background(), "proj-1", domain.TypeBug)
		require.NoError(t, err)
		assert.Empty(t, states)
	})

	t.Run("unknown project is not found", func(t *testing.T) {
		_, err := reg.StatesFor(context.Background(), "proj-404", domain.TypeTask)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown item type is a validation error", func(t *testing.T) {
		_, err := reg.StatesFor(context.Background(), "proj-1", "epic")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestStateRegistry_InitialState(t *testing.T) {
	t.Run("returns the single initial state", func(t *testing.T) {
		reg := newRegistry(map[string][]domain.StateDefinition{
			"proj-1/task": {
				def("proj-1", domain.TypeTask, "backlog", true),
				def("proj-1", domain.TypeTask, "done", false),
			},
		})
		initial, err := reg.InitialState(context.Background(), "proj-1", domain.TypeTask)
		require.NoError(t, err)
		assert.Equal(t, "backlog", initial.StateKey)
	})

	t.Run("no initial state is a configuration error", func(t *testing.T) {
		reg := newRegistry(map[string][]domain.StateDefinition{
			"proj-1/task": {def("proj-1", domain.TypeTask, "done", false)},
		})
		_, err := reg.InitialState(context.Background(), "proj-1", domain.TypeTask)
		assert.True(t, domain.IsConfig(err))
	})

	t.Run("multiple initial states is a configuration error", func(t *testing.T) {
		reg := newRegistry(map[string][]domain.StateDefinition{
			"proj-1/task": {
				def("proj-1", domain.TypeTask, "backlog", true),
				def("proj-1", domain.TypeTask, "inbox", true),
			},
		})
		_, err := reg.InitialState(context.Background(), "proj-1", domain.TypeTask)
		assert.True(t, domain.IsConfig(err))
	})
}

func TestStateRegistry_AddState(t *testing.T) {
	reg := newRegistry(map[string][]domain.StateDefinition{})

	t.Run("rejects a malformed state key", func(t *testing.T) {
		d := def("proj-1", domain.TypeTask, "In Progress", false)
		_, err := reg.AddState(context.Background(), &d)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("rejects an empty display name", func(t *testing.T) {
		d := def("proj-1", domain.TypeTask, "in_progress", false)
		d.DisplayName = ""
		_, err := reg.AddState(context.Background(), &d)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("rejects an unknown project", func(t *testing.T) {
		d := def("proj-404", domain.TypeTask, "in_progress", false)
		_, err := reg.AddState(context.Background(), &d)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("stores a valid definition", func(t *testing.T) {
		d := def("proj-1", domain.TypeTask, "in_progress", false)
		added, err := reg.AddState(context.Background(), &d)
		require.NoError(t, err)
		assert.Equal(t, "in_progress", added.StateKey)

		ok, err := reg.IsValidState(context.Background(), "proj-1", domain.TypeTask, "in_progress")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
