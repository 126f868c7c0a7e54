// Package api exposes the generation control plane over HTTP: template
// registration and import, generation calls, run history, and API key
// issuance. Handlers bind JSON bodies to the domain services and map every
// domain error to a stable {code, message} JSON response.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler serves the HTTP API. Collaborators are the narrow interfaces
// declared next to the handlers that consume them, so tests can wire real
// services against in-memory stores.
type Handler struct {
	templates templateService
	lookups   lookupRegistrar
	generator generationService
	exporter  exportService
	runs      runReader
	keys      apiKeyWriter
	logger    *slog.Logger
}

// NewHandler creates a Handler with all service dependencies. The exporter,
// runs, and keys collaborators may be nil; their endpoints then report the
// feature as unconfigured.
func NewHandler(
	templates templateService,
	lookups lookupRegistrar,
	generator generationService,
	exporter exportService,
	runs runReader,
	keys apiKeyWriter,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		templates: templates,
		lookups:   lookups,
		generator: generator,
		exporter:  exporter,
		runs:      runs,
		keys:      keys,
		logger:    logger,
	}
}

// Health reports liveness. Mounted outside the authenticated group.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": domain.GeneratorVersion,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Error{Code: status, Message: message})
}

// writeDomainError maps a domain error to its HTTP status. Internal errors
// are logged and masked so storage details never leak to clients.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from optional max_results/page_token
// query parameters.
func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

// optStr returns a pointer to the string if non-empty, otherwise nil.
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
