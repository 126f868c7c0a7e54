// Package template implements template registration and the in-process
// registry the generator resolves templates from.
package template

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/engine"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/validation"
)

// ScheduleReloader allows the service to notify the backfill scheduler when
// registered templates change.
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// Compiled bundles a registered template with its execution artifacts:
// dependency-ordered rules, compiled formulas, and compiled validators.
type Compiled struct {
	Template *domain.Template
	Plan     *engine.Plan
	Checker  *validation.Checker
}

// Service owns the template registry. Registration compiles everything that
// can fail up front; generation then only reads. The registry is the source
// of truth at runtime, the store is write-through persistence for restarts.
type Service struct {
	engine   *engine.Engine
	policies *validation.PolicyRegistry
	store    domain.TemplateStore // may be nil (in-memory only)
	logger   *slog.Logger
	reloader ScheduleReloader

	mu       sync.RWMutex
	registry map[string]*Compiled
}

// NewService creates the template service.
func NewService(eng *engine.Engine, policies *validation.PolicyRegistry, store domain.TemplateStore, logger *slog.Logger) *Service {
	return &Service{
		engine:   eng,
		policies: policies,
		store:    store,
		logger:   logger.With("component", "template_service"),
		registry: make(map[string]*Compiled),
	}
}

// SetScheduleReloader sets the schedule reloader (breaks circular dep).
func (s *Service) SetScheduleReloader(r ScheduleReloader) {
	s.reloader = r
}

// Register validates, compiles, persists, and publishes a template.
// Re-registering an existing ID overwrites it.
func (s *Service) Register(ctx context.Context, t *domain.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	compiled, err := s.compile(t)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if principal, ok := domain.PrincipalFromContext(ctx); ok && t.CreatedBy == "" {
		t.CreatedBy = principal.Name
	}

	if s.store != nil {
		if err := s.store.Upsert(ctx, t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.registry[t.ID] = compiled
	s.mu.Unlock()

	s.logger.Info("template registered",
		"template_id", t.ID,
		"data_type", t.DataType,
		"rules", len(t.Rules),
		"cyclic", compiled.Plan.Cyclic)

	if s.reloader != nil {
		_ = s.reloader.Reload(ctx)
	}
	return nil
}

func (s *Service) compile(t *domain.Template) (*Compiled, error) {
	plan, err := s.engine.Compile(t)
	if err != nil {
		return nil, err
	}
	if plan.Cyclic {
		s.logger.Warn("template has cyclic rule dependencies; execution falls back to declaration order",
			"template_id", t.ID)
	}
	checker, err := validation.NewChecker(t, s.policies)
	if err != nil {
		return nil, err
	}
	return &Compiled{Template: t, Plan: plan, Checker: checker}, nil
}

// Resolve returns the compiled form of a registered template.
func (s *Service) Resolve(id string) (*Compiled, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	compiled, ok := s.registry[id]
	if !ok {
		return nil, domain.ErrNotFound("template %q not found", id)
	}
	return compiled, nil
}

// Get returns a registered template by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Template, error) {
	compiled, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	return compiled.Template, nil
}

// List pages through registered templates ordered by ID.
func (s *Service) List(ctx context.Context, page domain.PageRequest) ([]*domain.Template, string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := int64(len(ids))
	offset, limit := page.Offset(), page.Limit()
	var out []*domain.Template
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		out = append(out, s.registry[ids[i]].Template)
	}
	s.mu.RUnlock()

	return out, domain.NextPageToken(offset, limit, total), nil
}

// Delete removes a template from the registry and the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.registry[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound("template %q not found", id)
	}
	delete(s.registry, id)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
	}
	s.logger.Info("template deleted", "template_id", id)

	if s.reloader != nil {
		_ = s.reloader.Reload(ctx)
	}
	return nil
}

// LoadFromStore compiles and publishes every persisted template, called once
// at startup. Templates that no longer compile are skipped with a warning
// rather than blocking boot.
func (s *Service) LoadFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var loaded, skipped int
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		templates, total, err := s.store.List(ctx, page)
		if err != nil {
			return err
		}
		for _, t := range templates {
			compiled, err := s.compile(t)
			if err != nil {
				skipped++
				s.logger.Warn("skipping persisted template that no longer compiles",
					"template_id", t.ID, "error", err)
				continue
			}
			s.mu.Lock()
			s.registry[t.ID] = compiled
			s.mu.Unlock()
			loaded++
		}
		next := domain.NextPageToken(page.Offset(), page.Limit(), total)
		if next == "" {
			break
		}
		page.PageToken = next
	}
	s.logger.Info("templates loaded from store", "loaded", loaded, "skipped", skipped)
	return nil
}

// Scheduled returns the registered templates that declare a backfill cron.
func (s *Service) Scheduled() []*domain.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Template
	for _, compiled := range s.registry {
		if compiled.Template.BackfillCron != "" {
			out = append(out, compiled.Template)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
