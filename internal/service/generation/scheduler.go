package generation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/template"
)

const defaultBackfillCount = 100

// Scheduler manages cron-based backfill generation for templates that
// declare a backfill schedule.
type Scheduler struct {
	cron      *cron.Cron
	svc       *Service
	templates *template.Service
	logger    *slog.Logger
	mu        sync.Mutex
	entries   map[string]cron.EntryID // template ID → cron entry
}

// NewScheduler creates a new backfill scheduler.
func NewScheduler(svc *Service, templates *template.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		svc:       svc,
		templates: templates,
		logger:    logger.With("component", "backfill_scheduler"),
		entries:   make(map[string]cron.EntryID),
	}
}

// Start loads all scheduled templates and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSchedules()
	s.cron.Start()
	s.logger.Info("backfill scheduler started")
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("backfill scheduler stopped")
}

// Reload clears all cron entries and reloads from the template registry.
// Implements the template.ScheduleReloader interface.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entryID := range s.entries {
		s.cron.Remove(entryID)
	}
	s.entries = make(map[string]cron.EntryID)

	s.loadSchedules()
	return nil
}

// loadSchedules adds a cron entry per template with a backfill schedule.
// Callers hold s.mu.
func (s *Scheduler) loadSchedules() {
	for _, t := range s.templates.Scheduled() {
		templateID := t.ID
		schedule := t.BackfillCron
		count := t.BackfillCount
		if count <= 0 {
			count = defaultBackfillCount
		}

		entryID, err := s.cron.AddFunc(schedule, func() {
			s.runBackfill(templateID, count)
		})
		if err != nil {
			s.logger.Warn("invalid backfill schedule",
				"template_id", templateID,
				"schedule", schedule,
				"error", err,
			)
			continue
		}

		s.entries[templateID] = entryID
		s.logger.Info("scheduled backfill", "template_id", templateID, "schedule", schedule, "count", count)
	}
}

func (s *Scheduler) runBackfill(templateID string, count int) {
	ctx := context.Background()
	result, err := s.svc.GenerateScheduled(ctx, templateID, count, domain.GenerateOptions{})
	if err != nil {
		s.logger.Warn("scheduled backfill failed",
			"template_id", templateID,
			"error", err,
		)
		return
	}
	if s.svc.sink != nil {
		if err := s.svc.Persist(ctx, result); err != nil {
			s.logger.Warn("scheduled backfill persist failed",
				"template_id", templateID,
				"error", err,
			)
		}
	}
}

// Compile-time check that Scheduler implements template.ScheduleReloader.
var _ template.ScheduleReloader = (*Scheduler)(nil)
