package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// lookupRegistrar is the registry surface the API needs: register or replace
// named value lists and read them back for declarative state comparison.
type lookupRegistrar interface {
	Register(name string, values []string) error
	Get(name string) ([]string, error)
	Names() []string
}

// lookupTable is the JSON document for one named value list.
type lookupTable struct {
	Table  string   `json:"table"`
	Values []string `json:"values"`
}

type lookupTableList struct {
	Data []lookupTable `json:"data"`
}

// ListLookupTables returns every registered lookup table with its values.
// Tables are few and small, so the listing is not paginated.
func (h *Handler) ListLookupTables(w http.ResponseWriter, r *http.Request) {
	names := h.lookups.Names()
	out := lookupTableList{Data: make([]lookupTable, 0, len(names))}
	for _, name := range names {
		values, err := h.lookups.Get(name)
		if err != nil {
			continue
		}
		out.Data = append(out.Data, lookupTable{Table: name, Values: values})
	}
	writeJSON(w, http.StatusOK, out)
}

type putLookupTableRequest struct {
	Values []string `json:"values"`
}

// PutLookupTable registers the value list under the path table name,
// replacing any previous list. Templates already compiled against the table
// pick up the new values on their next generation call.
func (h *Handler) PutLookupTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	var req putLookupTableRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.lookups.Register(name, req.Values); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	values, err := h.lookups.Get(name)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupTable{Table: name, Values: values})
}
