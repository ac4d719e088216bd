// Package inbound ingests mail-provider callbacks: delivery events and
// raw replies.
package inbound

import (
	"outreach_backend/internal/http"
	"outreach_backend/internal/inbound/handler"
	"outreach_backend/internal/inbound/mailstore"
	"outreach_backend/internal/inbound/service"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Module bundles the webhook endpoints for registration.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the ingester. Without MinIO settings the object-store
// path is disabled and only direct-field inbound bodies work.
func NewModule(lifecycle service.Lifecycle, cfg config.InboundConfig, log *logger.Logger) (*Module, error) {
	var mail service.MailFetcher
	if cfg.IsInboundStoreEnabled() {
		store, err := mailstore.New(cfg)
		if err != nil {
			return nil, err
		}
		mail = store
	} else {
		log.Warn("inbound mail store not configured; object-store replies disabled")
	}

	svc := service.New(lifecycle, mail, log)
	return &Module{handler: handler.New(svc, log)}, nil
}

// Name identifies the module in logs.
func (m *Module) Name() string { return "inbound" }

// RegisterRoutes mounts the webhooks under /api/v1/events.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/events"))
}
