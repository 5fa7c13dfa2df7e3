package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ProjectLister enumerates project ids for the sweep.
type ProjectLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// KeyMaintainer is the repair surface of the work-item store: key
// backfill for historical items and counter drift repair.
type KeyMaintainer interface {
	BackfillKeys(ctx context.Context, projectID string) (int, error)
	RepairCounters(ctx context.Context) (int64, error)
}

// Scheduler runs the nightly key-integrity sweep: backfill keys for
// items that lack one and advance any counter that fell behind the
// highest issued suffix.
type Scheduler struct {
	projects ProjectLister
	items    KeyMaintainer
	cron     *cron.Cron
}

func NewScheduler(projects ProjectLister, items KeyMaintainer) *Scheduler {
	return &Scheduler{
		projects: projects,
		items:    items,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the nightly sweep (03:00) and starts the cron loop.
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.RunSweep(ctx)
	})
	if err != nil {
		log.Printf("[jobs] failed to register key sweep: %v", err)
		return
	}

	log.Println("[jobs] maintenance scheduler started (key sweep nightly at 03:00)")
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunSweep executes one maintenance pass. Exposed so operators can
// trigger it outside the schedule.
func (s *Scheduler) RunSweep(ctx context.Context) {
	start := time.Now()

	ids, err := s.projects.ListIDs(ctx)
	if err != nil {
		log.Printf("[jobs] key sweep aborted, cannot list projects: %v", err)
		return
	}

	backfilled := 0
	for _, id := range ids {
		n, err := s.items.BackfillKeys(ctx, id)
		if err != nil {
			log.Printf("[jobs] key backfill failed project=%s error=%v", id, err)
			continue
		}
		backfilled += n
	}

	repaired, err := s.items.RepairCounters(ctx)
	if err != nil {
		log.Printf("[jobs] counter repair failed: %v", err)
	}

	log.Printf("[jobs] key sweep done projects=%d backfilled=%d counters_repaired=%d took=%s",
		len(ids), backfilled, repaired, time.Since(start))
}
