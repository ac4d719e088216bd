// Package prospect discovers candidate retailers to reach out to.
package prospect

import (
	"outreach_backend/internal/http"
	"outreach_backend/internal/prospect/handler"
	"outreach_backend/internal/prospect/service"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Module bundles retailer discovery for registration.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the scraper.
func NewModule(cfg config.ProspectConfig, log *logger.Logger) *Module {
	scraper := service.NewScraper(cfg, log)
	return &Module{handler: handler.New(scraper)}
}

// Name identifies the module in logs.
func (m *Module) Name() string { return "prospect" }

// RegisterRoutes mounts the prospect API under /api/v1/retailers.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/retailers"))
}
