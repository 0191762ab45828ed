package server

import "net/http"

// route mirrors the Route/Routes shape the rest of the source stack's
// generated API controllers use, kept hand-written here since this demo
// surface has no OpenAPI document of its own.
type route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

func (h *handlers) routes() []route {
	return []route{
		{"ListRules", http.MethodGet, "/rules", h.listRules},
		{"ReplaceRules", http.MethodPut, "/rules", h.replaceRules},
		{"Rehydrate", http.MethodPost, "/rehydrate", h.rehydrate},
		{"DecideSearch", http.MethodPost, "/decide/search", h.decideSearch},
		{"DecideSearchAttributes", http.MethodPost, "/decide/search/attributes", h.decideSearchAttributes},
		{"DecideCreate", http.MethodPost, "/decide/create", h.decideCreate},
		{"DecideModify", http.MethodPost, "/decide/modify", h.decideModify},
		{"DecideDelete", http.MethodPost, "/decide/delete", h.decideDelete},
	}
}
