// Package handler exposes the leads API over HTTP.
package handler

import (
	"strconv"

	"outreach_backend/internal/leads/service"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler wires the lifecycle engine to Gin routes.
type Handler struct {
	service *service.Service
}

// New creates a leads handler.
func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes mounts the leads routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Upsert)
	group.POST("/status", h.UpdateStatus)
	group.GET("", h.List)
	group.GET("/:email", h.Get)
}

// Upsert stores or updates a lead (POST /leads).
func (h *Handler) Upsert(c *gin.Context) {
	var req transport.UpsertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	lead, err := h.service.Upsert(c.Request.Context(), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadResponse{Ok: true, Lead: lead})
}

// UpdateStatus transitions a campaign's status (POST /leads/status).
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadResponse{Ok: true, Lead: lead})
}

// List returns recently updated leads (GET /leads).
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	leads, err := h.service.List(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{Ok: true, Leads: leads, Count: len(leads)})
}

// Get returns one lead by email (GET /leads/:email).
func (h *Handler) Get(c *gin.Context) {
	lead, err := h.service.Get(c.Request.Context(), c.Param("email"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadResponse{Ok: true, Lead: lead})
}
