// Package outreach drafts and sends cold emails.
package outreach

import (
	"context"

	"outreach_backend/internal/events"
	"outreach_backend/internal/http"
	"outreach_backend/internal/outreach/handler"
	"outreach_backend/internal/outreach/service"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Module bundles the outreach endpoints for registration.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the drafter and sender. Without GEMINI_API_KEY the
// drafter stays nil and POST /outreach/draft reports unavailable; the
// send path is independent of it.
func NewModule(ctx context.Context, mailCfg config.MailConfig, draftCfg config.DraftConfig, recorder handler.SendRecorder, bus events.Bus, log *logger.Logger) (*Module, error) {
	var drafter *service.Drafter
	if draftCfg.IsDraftingEnabled() {
		created, err := service.NewDrafter(ctx, draftCfg)
		if err != nil {
			return nil, err
		}
		drafter = created
	} else {
		log.Warn("GEMINI_API_KEY not configured; email drafting disabled")
	}

	sender := service.NewSender(mailCfg, log)
	return &Module{
		handler: handler.New(drafter, sender, recorder, bus, log),
	}, nil
}

// Name identifies the module in logs.
func (m *Module) Name() string { return "outreach" }

// RegisterRoutes mounts the outreach API under /api/v1/outreach.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/outreach"))
}
