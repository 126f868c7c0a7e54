package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

var _ domain.TemplateStore = (*TemplateRepo)(nil)

// TemplateRepo persists templates in the SQLite metastore. The full template
// document is stored as JSON; a few columns are extracted for querying.
type TemplateRepo struct {
	db *sql.DB
}

// NewTemplateRepo creates a new TemplateRepo.
func NewTemplateRepo(db *sql.DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

// Upsert inserts a template or overwrites an existing one with the same ID.
func (r *TemplateRepo) Upsert(ctx context.Context, t *domain.Template) error {
	if t == nil {
		return domain.ErrValidation("template is required")
	}
	spec, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates (id, data_type, target_audience, spec_json, backfill_cron, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			data_type = excluded.data_type,
			target_audience = excluded.target_audience,
			spec_json = excluded.spec_json,
			backfill_cron = excluded.backfill_cron,
			updated_at = excluded.updated_at
	`, t.ID, t.DataType, strings.Join(t.TargetAudience, ","), string(spec), t.BackfillCron, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// Get returns a template by ID.
func (r *TemplateRepo) Get(ctx context.Context, id string) (*domain.Template, error) {
	var (
		specJSON             string
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT spec_json, created_at, updated_at FROM templates WHERE id = ?
	`, id).Scan(&specJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}

	var t domain.Template
	if err := json.Unmarshal([]byte(specJSON), &t); err != nil {
		return nil, fmt.Errorf("unmarshal template %q: %w", id, err)
	}
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return &t, nil
}

// List pages through templates ordered by ID.
func (r *TemplateRepo) List(ctx context.Context, page domain.PageRequest) ([]*domain.Template, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM templates`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, spec_json, created_at, updated_at FROM templates ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*domain.Template
	for rows.Next() {
		var (
			id, specJSON         string
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &specJSON, &createdAt, &updatedAt); err != nil {
			return nil, 0, mapDBError(err)
		}
		var t domain.Template
		if err := json.Unmarshal([]byte(specJSON), &t); err != nil {
			return nil, 0, fmt.Errorf("unmarshal template %q: %w", id, err)
		}
		t.CreatedAt = createdAt
		t.UpdatedAt = updatedAt
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return out, total, nil
}

// Delete removes a template.
func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound("template %q not found", id)
	}
	return nil
}
