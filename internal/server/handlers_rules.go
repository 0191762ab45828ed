package server

import (
	"encoding/json"
	"net/http"

	"github.com/nexusdirectory/accessd/internal/access"
	"github.com/nexusdirectory/accessd/internal/common"
	"github.com/nexusdirectory/accessd/internal/common/logger"
	"github.com/nexusdirectory/accessd/internal/store"
)

// handlers bundles the dependencies every handler closes over: the
// enforcement engine, the rule-source persistence, and the schema
// validator boundary the parser consumes.
type handlers struct {
	engine    *access.Engine
	rules     *store.RuleEntryStore
	validator access.SchemaValidator
}

func newHandlers(engine *access.Engine, rules *store.RuleEntryStore, validator access.SchemaValidator) *handlers {
	if validator == nil {
		validator = access.NoopSchemaValidator{}
	}
	return &handlers{engine: engine, rules: rules, validator: validator}
}

// listRules returns every stored rule-source entry.
func (h *handlers) listRules(w http.ResponseWriter, r *http.Request) {
	entries, err := h.rules.List(r.Context())
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "ListRules", "StoreError"))
		return
	}
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusOK, Body: fromEntries(entries)})
}

// replaceRules wholesale-replaces the stored rule-source entries and
// rehydrates the engine from the new set, mirroring spec.md §6's
// "surrounding server enumerates stored rule-source entries and calls
// update_*".
func (h *handlers) replaceRules(w http.ResponseWriter, r *http.Request) {
	var dtos []entryDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "ReplaceRules", "Decode"))
		return
	}
	entries, err := toEntries(dtos)
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "ReplaceRules", "InvalidEntry"))
		return
	}

	if err := h.rules.ReplaceAll(r.Context(), entries); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "ReplaceRules", "StoreError"))
		return
	}
	if err := store.Rehydrate(r.Context(), h.rules, h.engine, h.validator); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "ReplaceRules", "Rehydrate"))
		return
	}

	logger.LogInfo("rule-source entries replaced and engine rehydrated")
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusNoContent, Body: nil})
}

// rehydrate reloads the engine's rule set from the currently stored
// rule-source entries without changing them.
func (h *handlers) rehydrate(w http.ResponseWriter, r *http.Request) {
	if err := store.Rehydrate(r.Context(), h.rules, h.engine, h.validator); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "Rehydrate", "StoreError"))
		return
	}
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusNoContent, Body: nil})
}
