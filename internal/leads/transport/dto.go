// Package transport defines the wire shapes for the leads API. Request
// types accept historical field aliases (company_name vs companyName,
// campaign_id vs campaignId) and normalize them to one canonical input
// before validation, preferring the snake_case form.
package transport

import (
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/service"
)

// UpsertLeadRequest stores or updates a lead.
type UpsertLeadRequest struct {
	Email            string `json:"email"`
	CompanyName      string `json:"company_name"`
	CompanyNameAlias string `json:"companyName"`
	CampaignID       string `json:"campaign_id"`
	CampaignIDAlias  string `json:"campaignId"`
	Status           string `json:"status"`
	Note             string `json:"note"`
}

// ToInput maps aliased fields onto the canonical service input.
func (r UpsertLeadRequest) ToInput() service.UpsertInput {
	return service.UpsertInput{
		Email:      r.Email,
		Company:    firstNonEmpty(r.CompanyName, r.CompanyNameAlias),
		CampaignID: firstNonEmpty(r.CampaignID, r.CampaignIDAlias),
		Status:     r.Status,
		Note:       r.Note,
	}
}

// UpdateStatusRequest transitions a campaign's status, either explicitly
// or by classifying reply text.
type UpdateStatusRequest struct {
	Email           string `json:"email"`
	CampaignID      string `json:"campaign_id"`
	CampaignIDAlias string `json:"campaignId"`
	Status          string `json:"status"`
	ReplyText       string `json:"replyText"`
	ReplyTextAlias  string `json:"reply_text"`
}

// ToInput maps aliased fields onto the canonical service input.
func (r UpdateStatusRequest) ToInput() service.UpdateStatusInput {
	return service.UpdateStatusInput{
		Email:      r.Email,
		CampaignID: firstNonEmpty(r.CampaignID, r.CampaignIDAlias),
		Status:     r.Status,
		ReplyText:  firstNonEmpty(r.ReplyText, r.ReplyTextAlias),
	}
}

// LeadResponse is the success envelope for lead operations.
type LeadResponse struct {
	Ok   bool         `json:"ok"`
	Lead *domain.Lead `json:"lead"`
}

// LeadListResponse is the success envelope for lead listings.
type LeadListResponse struct {
	Ok    bool           `json:"ok"`
	Leads []*domain.Lead `json:"leads"`
	Count int            `json:"count"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
