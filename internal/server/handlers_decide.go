package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nexusdirectory/accessd/internal/common"
	"github.com/nexusdirectory/accessd/internal/common/logger"
)

// decideSearch exercises search_filter_entries: which candidates may the
// caller see at the whole-entry level.
func (h *handlers) decideSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideSearch", "Decode"))
		return
	}
	event, candidates, err := req.parse()
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideSearch", "InvalidRequest"))
		return
	}
	result, err := h.engine.SearchFilterEntries(event, candidates)
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "DecideSearch", "Unhandled"))
		return
	}
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusOK, Body: fromEntries(result)})
}

// decideSearchAttributes exercises search_filter_entry_attributes: the
// reducing interface that also strips disallowed attributes.
func (h *handlers) decideSearchAttributes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideSearchAttributes", "Decode"))
		return
	}
	event, candidates, err := req.parse()
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideSearchAttributes", "InvalidRequest"))
		return
	}
	result, err := h.engine.SearchFilterEntryAttributes(event, candidates)
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", "DecideSearchAttributes", "Unhandled"))
		return
	}
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusOK, Body: fromEntries(result)})
}

// decideCreate exercises create_allow.
func (h *handlers) decideCreate(w http.ResponseWriter, r *http.Request) {
	var req entriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideCreate", "Decode"))
		return
	}
	event, entries, err := req.parse()
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideCreate", "InvalidRequest"))
		return
	}
	allowed, err := h.engine.CreateAllow(createEventOf(event), entries)
	h.writeDecision(w, r, "DecideCreate", allowed, err)
}

// decideModify exercises modify_allow.
func (h *handlers) decideModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideModify", "Decode"))
		return
	}
	event, targets, err := req.parse()
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideModify", "InvalidRequest"))
		return
	}
	allowed, err := h.engine.ModifyAllow(event, targets)
	h.writeDecision(w, r, "DecideModify", allowed, err)
}

// decideDelete exercises delete_allow.
func (h *handlers) decideDelete(w http.ResponseWriter, r *http.Request) {
	var req entriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideDelete", "Decode"))
		return
	}
	event, entries, err := req.parse()
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusBadRequest, "server", "DecideDelete", "InvalidRequest"))
		return
	}
	allowed, err := h.engine.DeleteAllow(deleteEventOf(event), entries)
	h.writeDecision(w, r, "DecideDelete", allowed, err)
}

// writeDecision writes a decisionResponse on success, or the standard
// uninformative 403 on a false decision, or a 500 on an irrecoverable
// enforcement error. A denial is additionally logged when the
// request-scoped config has access.auditDeniedDecisions set.
func (h *handlers) writeDecision(w http.ResponseWriter, r *http.Request, op string, allowed bool, err error) {
	if err != nil {
		common.WriteHTTPResponse(w, common.NewErrorResponse(err, http.StatusInternalServerError, "server", op, "Unhandled"))
		return
	}
	if !allowed {
		if shouldAuditDenial(r.Context()) {
			logger.LogWarning(fmt.Sprintf("denied: %s", op))
		}
		common.WriteHTTPResponse(w, common.NewAccessDeniedResponse())
		return
	}
	common.WriteHTTPResponse(w, common.HTTPResponse{Code: http.StatusOK, Body: decisionResponse{Allowed: true}})
}

// shouldAuditDenial reports whether the request-scoped config enables
// denial auditing, defaulting to false if no config was injected.
func shouldAuditDenial(ctx context.Context) bool {
	cfg, ok := common.ConfigFromContext(ctx)
	return ok && cfg.Access.AuditDeniedDecisions
}
