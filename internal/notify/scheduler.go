// Package notify runs the background jobs that keep connected clients
// current: the local-midnight day rollover and a morning summary of surgery
// payments still pending.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/practice-agenda/backend/internal/report"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage"
	"github.com/practice-agenda/backend/internal/websocket"
)

// Scheduler drives the cron jobs.
type Scheduler struct {
	cron        *cron.Cron
	events      *storage.EventRepository
	clock       *schedule.Clock
	broadcaster *websocket.EventBroadcaster
}

// NewScheduler creates the notification scheduler. Jobs fire on the
// practitioner's wall clock, not the host zone.
func NewScheduler(events *storage.EventRepository, clock *schedule.Clock, hub *websocket.Hub) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(clock.Location())),
		events:      events,
		clock:       clock,
		broadcaster: websocket.NewEventBroadcaster(hub),
	}
}

// Start registers and starts the jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", s.dayRollover); err != nil {
		return fmt.Errorf("scheduling day rollover: %w", err)
	}
	if _, err := s.cron.AddFunc("0 8 * * *", s.pendingPaymentSummary); err != nil {
		return fmt.Errorf("scheduling payment summary: %w", err)
	}
	s.cron.Start()
	log.Println("Notification scheduler started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Notification scheduler stopped")
}

func (s *Scheduler) dayRollover() {
	day := s.clock.DayKey(s.now())
	pending, err := s.pendingThisMonth()
	if err != nil {
		log.Printf("Day rollover: %v", err)
		pending = 0
	}
	s.broadcaster.BroadcastDayRollover(day, pending)
}

func (s *Scheduler) pendingPaymentSummary() {
	pending, err := s.pendingThisMonth()
	if err != nil {
		log.Printf("Payment summary: %v", err)
		return
	}
	if pending == 0 {
		return
	}
	s.broadcaster.BroadcastNotification("info", "Pending payments",
		fmt.Sprintf("%d surgeries this month are still unpaid", pending))
}

func (s *Scheduler) now() time.Time {
	return time.Now().In(s.clock.Location())
}

func (s *Scheduler) pendingThisMonth() (int, error) {
	events, err := s.events.List(context.Background())
	if err != nil {
		return 0, fmt.Errorf("loading events: %w", err)
	}

	now := s.now()
	summary, err := report.Summarize(events, report.Filter{
		Year:   now.Year(),
		Month:  int(now.Month()),
		Status: report.StatusPending,
	}, s.clock)
	if err != nil {
		return 0, err
	}
	return len(summary.Lines), nil
}
