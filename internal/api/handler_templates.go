package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// templateService defines the template lifecycle operations used by the API handler.
type templateService interface {
	Register(ctx context.Context, t *domain.Template) error
	Get(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context, page domain.PageRequest) ([]*domain.Template, string, error)
	Delete(ctx context.Context, id string) error
}

// paginatedTemplates is the response body for template listings.
type paginatedTemplates struct {
	Data          []*domain.Template `json:"data"`
	NextPageToken *string            `json:"next_page_token,omitempty"`
}

// === Templates ===

// ListTemplates returns registered templates, paginated.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	templates, npt, err := h.templates.List(r.Context(), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if templates == nil {
		templates = []*domain.Template{}
	}
	writeJSON(w, http.StatusOK, paginatedTemplates{Data: templates, NextPageToken: optStr(npt)})
}

// CreateTemplate validates, compiles, and registers a template. The body is
// the template document itself.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl domain.Template
	if err := decodeJSON(r, &tmpl); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.templates.Register(r.Context(), &tmpl); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &tmpl)
}

// GetTemplate returns one template by ID.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.templates.Get(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// DeleteTemplate removes a template from the registry and the store.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.Delete(r.Context(), chi.URLParam(r, "templateID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === OpenAPI import ===

type importOpenAPIRequest struct {
	// Document is the OpenAPI document text, JSON or YAML.
	Document string `json:"document"`
	// Schema names the component schema to import. Required when the
	// document declares more than one.
	Schema string `json:"schema,omitempty"`
	// TemplateID overrides the derived template ID.
	TemplateID string `json:"template_id,omitempty"`
	// Register stores the derived template and its lookup tables. When
	// false the skeleton is returned for review without side effects.
	Register bool `json:"register,omitempty"`
}

type importOpenAPIResponse struct {
	Template     *domain.Template    `json:"template"`
	LookupTables map[string][]string `json:"lookup_tables,omitempty"`
	Skipped      []string            `json:"skipped,omitempty"`
	Registered   bool                `json:"registered"`
}

// ImportOpenAPITemplate derives a template skeleton from one component
// schema of an OpenAPI document, optionally registering it.
func (h *Handler) ImportOpenAPITemplate(w http.ResponseWriter, r *http.Request) {
	var req importOpenAPIRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.Document == "" {
		writeError(w, http.StatusBadRequest, "openapi document is required")
		return
	}

	res, err := declarative.ImportOpenAPI(r.Context(), []byte(req.Document), declarative.ImportOptions{
		Schema:     req.Schema,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if req.Register {
		// Lookup tables first so the template compiles against them.
		for name, values := range res.LookupTables {
			if err := h.lookups.Register(name, values); err != nil {
				h.writeDomainError(w, r, err)
				return
			}
		}
		if err := h.templates.Register(r.Context(), res.Template); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		status = http.StatusCreated
	}

	writeJSON(w, status, importOpenAPIResponse{
		Template:     res.Template,
		LookupTables: res.LookupTables,
		Skipped:      res.Skipped,
		Registered:   req.Register,
	})
}
