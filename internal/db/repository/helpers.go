// Package repository implements the domain store interfaces using SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// mapDBError translates driver-level errors into domain errors so callers
// never have to inspect SQLite details.
func mapDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return &domain.NotFoundError{Message: "resource not found"}
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return &domain.ConflictError{Message: "resource already exists"}
	default:
		return err
	}
}
