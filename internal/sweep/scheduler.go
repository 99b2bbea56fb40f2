// Package sweep schedules the no-show sweeper. The sweeper itself is
// trigger-agnostic; this is the periodic trigger around it.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"ucampus.dev/reserve/internal/service"
)

type Scheduler struct {
	cron    *cron.Cron
	sweeper service.SweeperService
}

// NewScheduler builds a cron-backed trigger in the given location. The
// location matters: calendar days in the timetable are campus local time.
func NewScheduler(sweeper service.SweeperService, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		sweeper: sweeper,
	}
}

// Start registers the sweep at the given interval, runs it once eagerly,
// and starts the cron loop.
func (s *Scheduler) Start(interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	// Catch reservations that went overdue while the process was down.
	go s.run()

	s.cron.Start()
	log.Printf("🚀 No-show sweeper scheduled every %s", interval)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("🛑 No-show sweeper stopped")
}

func (s *Scheduler) run() {
	reverted, err := s.sweeper.Sweep(context.Background(), time.Now())
	if err != nil {
		log.Printf("❌ Sweep failed: %v", err)
		return
	}
	if reverted > 0 {
		log.Printf("✅ Sweep reverted %d overdue reservations", reverted)
	}
}
