// Package enrichment derives website signals for leads and feeds the
// lifecycle engine's score bumps.
package enrichment

import (
	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/enrichment/handler"
	"outreach_backend/internal/enrichment/service"
	"outreach_backend/internal/http"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

// Module bundles the enrichment pipeline for registration.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the enrichment pipeline. With SEARCH_DRY_RUN on, the
// page fetcher parses a canned storefront instead of dialing out.
func NewModule(lifecycle service.Lifecycle, cfg config.ProspectConfig, val *validator.Validator, log *logger.Logger) *Module {
	fetcher := client.New(cfg.GetScrapeTimeout(), cfg.GetSearchDryRun(), log)
	svc := service.New(lifecycle, fetcher, log)
	return &Module{handler: handler.New(svc, val)}
}

// Name identifies the module in logs.
func (m *Module) Name() string { return "enrichment" }

// RegisterRoutes mounts the enrichment route under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}
