package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

var _ domain.RunStore = (*RunRepo)(nil)

// RunRepo stores generation run records in SQLite.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Insert records a completed generation run.
func (r *RunRepo) Insert(ctx context.Context, run *domain.GenerationRun) error {
	if run == nil {
		return domain.ErrValidation("generation run is required")
	}
	if run.ID == "" {
		run.ID = domain.NewID()
	}

	var seed interface{}
	if run.Seed != nil {
		seed = *run.Seed
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_runs (id, template_id, status, trigger_type, requested_count,
			accepted, rejected, seed, duration_ms, metrics_json, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TemplateID, run.Status, run.TriggerType, run.RequestedCount,
		run.Accepted, run.Rejected, seed, run.DurationMillis, run.MetricsJSON,
		run.CreatedBy, run.CreatedAt)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// Get returns a generation run by ID.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.GenerationRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, template_id, status, trigger_type, requested_count, accepted, rejected,
		       seed, duration_ms, metrics_json, created_by, created_at
		FROM generation_runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// List pages through runs for a template (all templates when templateID is
// empty), newest first.
func (r *RunRepo) List(ctx context.Context, templateID string, page domain.PageRequest) ([]*domain.GenerationRun, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM generation_runs WHERE (? = '' OR template_id = ?)
	`, templateID, templateID).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, template_id, status, trigger_type, requested_count, accepted, rejected,
		       seed, duration_ms, metrics_json, created_by, created_at
		FROM generation_runs
		WHERE (? = '' OR template_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, templateID, templateID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*domain.GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.GenerationRun, error) {
	var (
		run       domain.GenerationRun
		seed      sql.NullInt64
		createdAt time.Time
	)
	err := row.Scan(
		&run.ID,
		&run.TemplateID,
		&run.Status,
		&run.TriggerType,
		&run.RequestedCount,
		&run.Accepted,
		&run.Rejected,
		&seed,
		&run.DurationMillis,
		&run.MetricsJSON,
		&run.CreatedBy,
		&createdAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	if seed.Valid {
		v := seed.Int64
		run.Seed = &v
	}
	run.CreatedAt = createdAt
	return &run, nil
}
