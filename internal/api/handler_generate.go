package api

import (
	"context"
	"net/http"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/service/export"
)

// generationService defines the generation operations used by the API handler.
type generationService interface {
	Generate(ctx context.Context, templateID string, count int, opts domain.GenerateOptions) (*domain.GenerationResult, error)
	Persist(ctx context.Context, result *domain.GenerationResult) error
}

// exportService writes a result to the corpus store as JSONL.
type exportService interface {
	Export(ctx context.Context, result *domain.GenerationResult) (*export.Result, error)
}

type generateRequest struct {
	TemplateID string `json:"template_id"`
	Count      int    `json:"count"`
	// Options tune this call: seed, constraint overrides, quality overrides.
	Options domain.GenerateOptions `json:"options,omitempty"`
	// Persist writes the generated records to the configured record sink.
	Persist bool `json:"persist,omitempty"`
	// Export writes the result to the corpus store and returns its location.
	Export bool `json:"export,omitempty"`
}

// generateResponse is the generation result plus the export location when
// the caller asked for one.
type generateResponse struct {
	*domain.GenerationResult
	Export *export.Result `json:"export,omitempty"`
}

// GenerateRecords runs one generation call against a registered template.
// Persist and export failures fail the whole request; the records are not
// silently dropped.
func (h *Handler) GenerateRecords(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "template_id is required")
		return
	}
	if req.Export && h.exporter == nil {
		writeError(w, http.StatusBadRequest, "export is not configured")
		return
	}

	result, err := h.generator.Generate(r.Context(), req.TemplateID, req.Count, req.Options)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := generateResponse{GenerationResult: result}
	if req.Persist {
		if err := h.generator.Persist(r.Context(), result); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
	}
	if req.Export {
		exp, err := h.exporter.Export(r.Context(), result)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		resp.Export = exp
	}

	writeJSON(w, http.StatusOK, resp)
}
