// Package handler exposes the enrichment endpoint.
package handler

import (
	"outreach_backend/internal/enrichment/service"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// EnrichRequest accepts the historical field aliases for company and website.
type EnrichRequest struct {
	Email            string `json:"email"`
	CompanyName      string `json:"company_name"`
	CompanyNameAlias string `json:"company"`
	Website          string `json:"website"`
	WebsiteAlias     string `json:"company_website"`
}

// Handler wires the enrichment pipeline to Gin.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates an enrichment handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// RegisterRoutes mounts the enrichment route on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/enrich", h.Enrich)
}

// Enrich runs an enrichment pass for a lead (POST /leads/enrich).
func (h *Handler) Enrich(c *gin.Context) {
	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Var(req.Email, "required,email"); err != nil {
		httpkit.HandleError(c, apperr.Validation("a valid email is required"))
		return
	}

	lead, err := h.service.Enrich(c.Request.Context(), service.EnrichInput{
		Email:   req.Email,
		Company: firstNonEmpty(req.CompanyName, req.CompanyNameAlias),
		Website: firstNonEmpty(req.Website, req.WebsiteAlias),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadResponse{Ok: true, Lead: lead})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
