/*
scheduler.go - Automated deadline scanner

PURPOSE:
  Periodically computes the deadlines of every stored case and records an
  alert for each one that falls inside the alert horizon (overdue ones
  included). GET /api/alerts lists what it found.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Recomputes deadlines from the stored dates on every pass
  - Alerts are unique per (case, kind, due date): re-scanning is a no-op,
    and a moved due date produces a fresh alert
  - Closed cases and completed steps produce no deadlines, hence no alerts

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - AlertDays: Horizon in days (default: 30)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewDeadlineScheduler(store, engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - perm/deadlines.go: Deadline tracker
  - store/sqlite/sqlite.go: deadline_alerts table
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

// DeadlineScheduler records alerts for approaching deadlines.
type DeadlineScheduler struct {
	Store         *sqlite.Store
	Engine        *perm.Engine
	CheckInterval time.Duration
	AlertDays     int
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDeadlineScheduler creates a new scheduler.
func NewDeadlineScheduler(store *sqlite.Store, engine *perm.Engine) *DeadlineScheduler {
	return &DeadlineScheduler{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		AlertDays:     30,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ds *DeadlineScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ds.ticker = time.NewTicker(ds.CheckInterval)
	ds.wg.Add(1)

	go ds.run()

	log.Printf("[Scheduler] Started with check interval: %v, horizon: %d days", ds.CheckInterval, ds.AlertDays)
}

// Stop stops the scheduler.
func (ds *DeadlineScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker != nil {
		ds.ticker.Stop()
		close(ds.stop)
		ds.wg.Wait()
		ds.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ds *DeadlineScheduler) run() {
	defer ds.wg.Done()

	// Run immediately on start
	ds.checkAndRecord()

	for {
		select {
		case <-ds.ticker.C:
			ds.checkAndRecord()
		case <-ds.stop:
			return
		}
	}
}

// checkAndRecord scans every case and returns the number of new alerts.
func (ds *DeadlineScheduler) checkAndRecord() int {
	ctx := context.Background()
	today := ds.Engine.Today()

	log.Printf("[Scheduler] Checking deadlines as of %s", today)

	cases, err := ds.Store.ListCases(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing cases: %v", err)
		return 0
	}

	createdCount := 0
	skippedCount := 0

	for i := range cases {
		c := &cases[i]
		for _, d := range ds.Engine.Deadlines(c) {
			if d.DaysRemaining > ds.AlertDays {
				continue
			}

			created, err := ds.Store.SaveAlert(ctx, sqlite.DeadlineAlert{
				CaseID:        c.ID,
				Kind:          d.Kind,
				Label:         d.Label,
				DueDate:       d.Date,
				DaysRemaining: d.DaysRemaining,
				Urgency:       d.Urgency,
			})
			if err != nil {
				log.Printf("[Scheduler] Error recording %s for %s: %v", d.Kind, c.ID, err)
				continue
			}
			if created {
				createdCount++
				log.Printf("[Scheduler] %s: %s due %s (%s)", c.ID, d.Label, d.Date, d.Urgency)
			} else {
				skippedCount++
			}
		}
	}

	if createdCount > 0 || skippedCount > 0 {
		log.Printf("[Scheduler] Completed: %d new alerts, %d skipped (already recorded)", createdCount, skippedCount)
	}
	return createdCount
}

// RunNow triggers an immediate check (for testing/admin) and returns the
// number of new alerts.
func (ds *DeadlineScheduler) RunNow() int {
	return ds.checkAndRecord()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ds *DeadlineScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ds.CheckInterval)
}
