// Package handler exposes the retailer discovery endpoint.
package handler

import (
	"outreach_backend/internal/prospect/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// SearchRequest is the retailer search body.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Handler wires the scraper to Gin.
type Handler struct {
	scraper *service.Scraper
}

// New creates a prospect handler.
func New(scraper *service.Scraper) *Handler {
	return &Handler{scraper: scraper}
}

// RegisterRoutes mounts the prospect routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/search", h.Search)
}

// Search discovers storefronts for a product query
// (POST /retailers/search).
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	result, err := h.scraper.Search(c.Request.Context(), req.Query, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"ok":        true,
		"retailers": result.Retailers,
		"query":     req.Query,
		"count":     len(result.Retailers),
		"fallback":  result.Fallback,
	})
}
