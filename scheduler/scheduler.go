// Package scheduler runs the daily jobs on cron schedules.
package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner with named job registration.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler. Schedules use six fields with seconds first.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
	}
}

// Register adds a named job. The job's panics are logged, not fatal.
func (s *Scheduler) Register(name, schedule string, job func()) error {
	_, err := s.cron.AddFunc(schedule, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("⚠️ Job %s panicked: %v", name, r)
			}
		}()
		log.Printf("⏰ Job %s starting", name)
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s (%q): %w", name, schedule, err)
	}
	log.Printf("⏰ Job %s registered with schedule %q", name, schedule)
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
