package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

type fakeProjectStore struct {
	created *domain.Project
}

func (f *fakeProjectStore) Create(_ context.Context, key, name string) (*domain.Project, error) {
	f.created = &domain.Project{ID: "proj-1", Key: key, Name: name}
	return f.created, nil
}

func (f *fakeProjectStore) FindByID(_ context.Context, id string) (*domain.Project, error) {
	if f.created == nil || f.created.ID != id {
		return nil, domain.ErrNotFound
	}
	return f.created, nil
}

func (f *fakeProjectStore) Exists(_ context.Context, id string) (bool, error) {
	return f.created != nil && f.created.ID == id, nil
}

func TestProjectService_Create(t *testing.T) {
	t.Run("uppercases and trims the key", func(t *testing.T) {
		svc := NewProjectService(&fakeProjectStore{})
		p, err := svc.Create(context.Background(), "  demo ", " Demo Project ")
		require.NoError(t, err)
		assert.Equal(t, "DEMO", p.Key)
		assert.Equal(t, "Demo Project", p.Name)
	})

	t.Run("rejects keys with separators", func(t *testing.T) {
		svc := NewProjectService(&fakeProjectStore{})
		for _, key := range []string{"", "DE MO", "DE_MO", "DE-MO", "DEMO_1"} {
			_, err := svc.Create(context.Background(), key, "Demo")
			assert.True(t, domain.IsValidation(err), "key %q should be rejected", key)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		svc := NewProjectService(&fakeProjectStore{})
		_, err := svc.Create(context.Background(), "DEMO", "   ")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestProjectService_Get(t *testing.T) {
	store := &fakeProjectStore{}
	svc := NewProjectService(store)

	_, err := svc.Get(context.Background(), "proj-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := svc.Create(context.Background(), "DEMO", "Demo")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "DEMO", got.Key)
}
