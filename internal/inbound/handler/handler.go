// Package handler exposes the provider event and inbound reply webhooks.
package handler

import (
	"outreach_backend/internal/inbound/service"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// InboundRequest is one reply, by object reference or direct fields.
type InboundRequest struct {
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Handler wires the ingester to Gin.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates an inbound handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the webhook routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/email", h.ProviderEvents)
	group.POST("/inbound", h.Inbound)
}

// ProviderEvents ingests a delivery-event batch (POST /events/email).
// The provider retries failed webhooks aggressively, so item errors are
// swallowed and the endpoint always acknowledges.
func (h *Handler) ProviderEvents(c *gin.Context) {
	var envelope service.ProviderEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.log.Warn("unreadable provider event batch", "error", err)
		httpkit.OK(c, gin.H{"ok": true, "processed": 0})
		return
	}

	result := h.svc.HandleProviderEvents(c.Request.Context(), envelope)
	httpkit.OK(c, gin.H{
		"ok":        true,
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
}

// Inbound ingests one reply (POST /events/inbound). Failures are logged
// but acknowledged, matching the provider-event semantics.
func (h *Handler) Inbound(c *gin.Context) {
	var req InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("unreadable inbound message", "error", err)
		httpkit.OK(c, gin.H{"ok": true, "processed": 0})
		return
	}

	result, err := h.svc.HandleInbound(c.Request.Context(), service.InboundMessage{
		Bucket:  req.Bucket,
		Key:     req.Key,
		From:    req.From,
		Subject: req.Subject,
		Text:    req.Text,
	})
	if err != nil {
		h.log.Warn("inbound reply not applied", "key", req.Key, "error", err)
		httpkit.OK(c, gin.H{"ok": true, "processed": 0})
		return
	}

	httpkit.OK(c, gin.H{
		"ok":         true,
		"processed":  1,
		"email":      result.Email,
		"campaignId": result.CampaignID,
		"status":     string(result.Status),
	})
}
