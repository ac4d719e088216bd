// Package service holds the outreach collaborators: the generative
// drafter and the SMTP sender.
package service

import (
	"context"
	"fmt"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"

	"google.golang.org/genai"
)

const opDraft = "outreach.service.draft"

// DraftInput describes the company a cold email is drafted for.
type DraftInput struct {
	Company     string
	Website     string
	Description string
	SenderName  string
	SenderOrg   string
}

// DraftResult is the drafted text plus the model that produced it.
type DraftResult struct {
	Draft string
	Model string
}

// Drafter produces cold-email drafts through the Gemini API. The model
// is a black box: structured prompt in, free text out.
type Drafter struct {
	client *genai.Client
	model  string
}

// NewDrafter creates a drafter. Requires a configured API key.
func NewDrafter(ctx context.Context, cfg config.DraftConfig) (*Drafter, error) {
	if !cfg.IsDraftingEnabled() {
		return nil, fmt.Errorf("drafting requires GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GetGenAIAPIKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Drafter{client: client, model: cfg.GetGenAIModel()}, nil
}

// Draft generates a short personalized cold email. Collaborator failures
// surface to the caller; nothing is retried here.
func (d *Drafter) Draft(ctx context.Context, input DraftInput) (*DraftResult, error) {
	company := input.Company
	if company == "" {
		company = "the company"
	}

	prompt := fmt.Sprintf(
		"You are a concise outreach assistant. "+
			"Write a brief, friendly, personalized cold email to %s. "+
			"Website: %s. Description: %s. "+
			"One tailored hook, one clear yes/no CTA.",
		company, input.Website, input.Description)
	if input.SenderName != "" || input.SenderOrg != "" {
		prompt += fmt.Sprintf(" Sign off as %s from %s.", input.SenderName, input.SenderOrg)
	}

	resp, err := d.client.Models.GenerateContent(ctx, d.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.5),
			TopP:            genai.Ptr[float32](0.9),
			MaxOutputTokens: 500,
		})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "draft generation failed", err).WithOp(opDraft)
	}

	draft := resp.Text()
	if draft == "" {
		return nil, apperr.Unavailable("draft generation returned no text").WithOp(opDraft)
	}

	return &DraftResult{Draft: draft, Model: d.model}, nil
}
