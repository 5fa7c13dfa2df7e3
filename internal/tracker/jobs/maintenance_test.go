package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

type fakeProjects struct {
	ids []string
	err error
}

func (f *fakeProjects) ListIDs(_ context.Context) ([]string, error) {
	return f.ids, f.err
}

type fakeMaintainer struct {
	backfilled map[string]int
	failOn     string
	repairs    int
}

func (f *fakeMaintainer) BackfillKeys(_ context.Context, projectID string) (int, error) {
	if projectID == f.failOn {
		return 0, domain.ErrNotFound
	}
	if f.backfilled == nil {
		f.backfilled = map[string]int{}
	}
	f.backfilled[projectID]++
	return 2, nil
}

func (f *fakeMaintainer) RepairCounters(_ context.Context) (int64, error) {
	f.repairs++
	return 1, nil
}

func TestScheduler_RunSweep(t *testing.T) {
	t.Run("sweeps every project then repairs counters", func(t *testing.T) {
		items := &fakeMaintainer{}
		s := NewScheduler(&fakeProjects{ids: []string{"p1", "p2"}}, items)

		s.RunSweep(context.Background())

		assert.Equal(t, 1, items.backfilled["p1"])
		assert.Equal(t, 1, items.backfilled["p2"])
		assert.Equal(t, 1, items.repairs)
	})

	t.Run("one failing project does not stop the sweep", func(t *testing.T) {
		items := &fakeMaintainer{failOn: "p1"}
		s := NewScheduler(&fakeProjects{ids: []string{"p1", "p2"}}, items)

		s.RunSweep(context.Background())

		assert.Equal(t, 0, items.backfilled["p1"])
		assert.Equal(t, 1, items.backfilled["p2"])
		assert.Equal(t, 1, items.repairs)
	})

	t.Run("listing failure aborts before any repair", func(t *testing.T) {
		items := &fakeMaintainer{}
		s := NewScheduler(&fakeProjects{err: domain.ErrNotFound}, items)

		s.RunSweep(context.Background())

		assert.Empty(t, items.backfilled)
		assert.Equal(t, 0, items.repairs)
	})
}
