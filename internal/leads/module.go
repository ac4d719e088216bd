// Package leads is the lead lifecycle bounded context: status vocabulary,
// reply classification, scoring, merge semantics and persistence.
package leads

import (
	"outreach_backend/internal/events"
	"outreach_backend/internal/http"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/handler"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/leads/service"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Module bundles the leads bounded context for registration.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule wires the lifecycle engine over the given store. The reply
// classifier uses built-in keywords unless CLASSIFIER_RULES_PATH points
// at a YAML override file.
func NewModule(store repository.Store, cfg config.LifecycleConfig, bus events.Bus, log *logger.Logger) (*Module, error) {
	classifier := domain.NewClassifier()
	if path := cfg.GetClassifierRulesPath(); path != "" {
		fromFile, err := domain.NewClassifierFromFile(path)
		if err != nil {
			return nil, err
		}
		classifier = fromFile
		log.Info("reply classifier keywords loaded from file", "path", path)
	}

	svc := service.New(store, classifier, cfg, bus, log)
	return &Module{
		service: svc,
		handler: handler.New(svc),
	}, nil
}

// Name identifies the module in logs.
func (m *Module) Name() string { return "leads" }

// Service exposes the lifecycle engine to sibling modules.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the leads API under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}
