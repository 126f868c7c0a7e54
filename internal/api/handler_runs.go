package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// runReader defines the run history operations used by the API handler.
type runReader interface {
	Get(ctx context.Context, id string) (*domain.GenerationRun, error)
	List(ctx context.Context, templateID string, page domain.PageRequest) ([]*domain.GenerationRun, int64, error)
}

// paginatedRuns is the response body for run listings.
type paginatedRuns struct {
	Data          []*domain.GenerationRun `json:"data"`
	NextPageToken *string                 `json:"next_page_token,omitempty"`
}

// === Runs ===

// ListRuns returns run history, newest first, optionally filtered by the
// template_id query parameter.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusBadRequest, "run history is not configured")
		return
	}
	page := pageFromQuery(r)
	runs, total, err := h.runs.List(r.Context(), r.URL.Query().Get("template_id"), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*domain.GenerationRun{}
	}
	npt := domain.NextPageToken(page.Offset(), page.Limit(), total)
	writeJSON(w, http.StatusOK, paginatedRuns{Data: runs, NextPageToken: optStr(npt)})
}

// GetRun returns one run by ID.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusBadRequest, "run history is not configured")
		return
	}
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
