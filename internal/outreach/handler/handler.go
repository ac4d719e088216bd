// Package handler exposes the outreach endpoints: drafting and sending.
package handler

import (
	"context"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	leadsservice "outreach_backend/internal/leads/service"
	"outreach_backend/internal/outreach/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// SendRecorder is the slice of the lifecycle engine the send path needs.
type SendRecorder interface {
	RecordSend(ctx context.Context, input leadsservice.RecordSendInput) (*domain.Lead, error)
}

// DraftRequest accepts the aliased company field names.
type DraftRequest struct {
	CompanyName      string `json:"companyName"`
	CompanyNameAlias string `json:"company_name"`
	Website          string `json:"website"`
	Description      string `json:"description"`
	SenderName       string `json:"sender_name"`
	SenderOrg        string `json:"sender_company"`
}

// SendRequest accepts the aliased body field names.
type SendRequest struct {
	Recipient       string `json:"recipient_email"`
	Sender          string `json:"sender_email"`
	Subject         string `json:"subject"`
	EmailBody       string `json:"email_body"`
	BodyTextAlias   string `json:"bodyText"`
	BodyHTML        string `json:"bodyHtml"`
	CampaignID      string `json:"campaign_id"`
	CampaignIDAlias string `json:"campaignId"`
}

// Handler wires the outreach collaborators to Gin.
type Handler struct {
	drafter  *service.Drafter
	sender   *service.Sender
	recorder SendRecorder
	bus      events.Bus
	log      *logger.Logger
}

// New creates an outreach handler. drafter may be nil when no API key is
// configured; the draft endpoint then reports unavailable.
func New(drafter *service.Drafter, sender *service.Sender, recorder SendRecorder, bus events.Bus, log *logger.Logger) *Handler {
	return &Handler{drafter: drafter, sender: sender, recorder: recorder, bus: bus, log: log}
}

// RegisterRoutes mounts the outreach routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/draft", h.Draft)
	group.POST("/send", h.Send)
}

// Draft generates a cold-email draft (POST /outreach/draft).
func (h *Handler) Draft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	if h.drafter == nil {
		httpkit.HandleError(c, apperr.Unavailable("drafting is not configured"))
		return
	}

	result, err := h.drafter.Draft(c.Request.Context(), service.DraftInput{
		Company:     firstNonEmpty(req.CompanyName, req.CompanyNameAlias),
		Website:     req.Website,
		Description: req.Description,
		SenderName:  req.SenderName,
		SenderOrg:   req.SenderOrg,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ok": true, "draft": result.Draft, "model": result.Model})
}

// Send dispatches one cold email and records the send on the lead when a
// campaign is given (POST /outreach/send).
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}

	campaignID := firstNonEmpty(req.CampaignID, req.CampaignIDAlias)
	result, err := h.sender.Send(c.Request.Context(), service.SendInput{
		Recipient:  req.Recipient,
		Sender:     req.Sender,
		Subject:    req.Subject,
		TextBody:   firstNonEmpty(req.EmailBody, req.BodyTextAlias),
		HTMLBody:   req.BodyHTML,
		CampaignID: campaignID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	// Recording the send is best effort: the message already left.
	if campaignID != "" && h.recorder != nil {
		if _, recErr := h.recorder.RecordSend(c.Request.Context(), leadsservice.RecordSendInput{
			Email:      req.Recipient,
			CampaignID: campaignID,
			MessageID:  result.MessageID,
		}); recErr != nil {
			h.log.Warn("failed to record send on lead", "recipient", req.Recipient, "error", recErr)
		}
	}

	if h.bus != nil {
		h.bus.Publish(c.Request.Context(), events.EmailSent{
			BaseEvent:  events.NewBaseEvent(),
			Recipient:  req.Recipient,
			CampaignID: campaignID,
			MessageID:  result.MessageID,
			DryRun:     result.DryRun,
		})
	}

	httpkit.OK(c, gin.H{
		"ok":         true,
		"message_id": result.MessageID,
		"dry_run":    result.DryRun,
		"recipient":  req.Recipient,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
