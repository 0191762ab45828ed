package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/nexusdirectory/accessd/internal/access"
	"github.com/nexusdirectory/accessd/internal/common"
	"github.com/nexusdirectory/accessd/internal/store"
)

// NewRouter builds the demo HTTP surface: health, CORS, rule-source CRUD,
// and the /decide subtree over engine. validator may be nil to use
// access.NoopSchemaValidator.
func NewRouter(cfg *common.Config, engine *access.Engine, rules *store.RuleEntryStore, validator access.SchemaValidator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(common.ConfigMiddleware(cfg))
	common.AddCors(r, cfg)
	common.AddHealthEndpoint(r, cfg)

	h := newHandlers(engine, rules, validator)
	base := common.NormalizeBasePath(cfg.Server.ContextPath)

	api := chi.NewRouter()
	for _, rt := range h.routes() {
		api.Method(rt.Method, rt.Pattern, rt.HandlerFunc)
	}
	r.Mount(base, api)

	return r
}
