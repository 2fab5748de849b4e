package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"socialhub/internal/middleware"
	"socialhub/internal/observability"

	"github.com/robfig/cron/v3"
)

// ReferenceChecker reports whether the database still points at a media URL.
type ReferenceChecker interface {
	IsReferenced(ctx context.Context, url string) (bool, error)
}

// Sweeper removes artifacts that no row references once they are older than minAge.
// It catches leftovers from compensations that failed or processes that crashed
// between the disk write and the commit.
type Sweeper struct {
	store  *DiskStore
	refs   ReferenceChecker
	minAge time.Duration
	now    func() time.Time
	cron   *cron.Cron
}

// NewSweeper builds a sweeper; minAge protects uploads whose transaction is still in flight.
func NewSweeper(store *DiskStore, refs ReferenceChecker, minAge time.Duration) *Sweeper {
	return &Sweeper{store: store, refs: refs, minAge: minAge, now: time.Now}
}

// Sweep scans the upload directory once and returns how many artifacts it removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	removed := 0
	cutoff := s.now().Add(-s.minAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		url := s.store.URLFor(entry.Name())
		referenced, err := s.refs.IsReferenced(ctx, url)
		if err != nil {
			return removed, err
		}
		if referenced {
			continue
		}
		if err := s.store.Remove(ctx, url); err != nil {
			middleware.Logger.WarnContext(ctx, "sweeper could not remove orphan", "url", url, "error", err)
			continue
		}
		removed++
		observability.MediaOrphansRemoved.Inc()
	}
	return removed, nil
}

// Start schedules Sweep with a cron spec such as "@every 1h".
func (s *Sweeper) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := s.Sweep(ctx)
		if err != nil {
			middleware.Logger.Error("media sweep failed", "error", err)
			return
		}
		if n > 0 {
			middleware.Logger.Info("media sweep removed orphans", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid MEDIA_SWEEP_SCHEDULE %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
