// Package service derives enrichment signals for a lead and feeds the
// resulting score bumps into the lifecycle engine.
package service

import (
	"context"
	"strings"

	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/leads/domain"
	leadsservice "outreach_backend/internal/leads/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
)

const opEnrich = "enrichment.service.enrich"

const defaultIndustry = "E-commerce"

// Score bump values per detected signal.
const (
	bumpPlatformFit    = 35.0
	bumpSustainableFit = 10.0
	bumpContactIntent  = 25.0
	bumpSocialIntent   = 15.0
)

// Lifecycle is the slice of the leads engine the enricher needs.
type Lifecycle interface {
	Get(ctx context.Context, email string) (*domain.Lead, error)
	ApplyEnrichment(ctx context.Context, input leadsservice.EnrichmentInput) (*domain.Lead, error)
}

// PageFetcher fetches a website's landing page signals.
type PageFetcher interface {
	FetchPageMeta(ctx context.Context, website string) (*client.PageMeta, error)
}

// EnrichInput identifies the organization to enrich.
type EnrichInput struct {
	Email   string
	Company string
	Website string
}

// Service runs the enrichment pipeline.
type Service struct {
	lifecycle Lifecycle
	fetcher   PageFetcher
	log       *logger.Logger
}

// New creates the enrichment service.
func New(lifecycle Lifecycle, fetcher PageFetcher, log *logger.Logger) *Service {
	return &Service{lifecycle: lifecycle, fetcher: fetcher, log: log}
}

// Enrich fetches website signals for a lead and applies the additive
// fit/intent bumps. The page fetch is best effort: a failed fetch is
// logged and enrichment proceeds on whatever is already known, so a dead
// website never blocks the write.
func (s *Service) Enrich(ctx context.Context, input EnrichInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required").WithOp(opEnrich)
	}

	existing, err := s.lifecycle.Get(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	site := client.NormalizeWebsite(input.Website)
	if site == "" && existing != nil {
		if known, ok := existing.Profile["website"].(string); ok {
			site = client.NormalizeWebsite(known)
		}
	}

	var meta *client.PageMeta
	if site != "" {
		meta, err = s.fetcher.FetchPageMeta(ctx, site)
		if err != nil {
			s.log.Warn("enrichment fetch skipped", "email", email, "website", site, "error", err)
			meta = nil
		}
	}
	if meta == nil {
		meta = &client.PageMeta{}
	}

	profile := map[string]any{
		"website": site,
		"shopify": meta.Platform,
		"tech":    techSet(existing, meta.Platform),
	}
	if industryOf(existing) == "" {
		profile["industry"] = defaultIndustry
	}

	signals := map[string]any{
		"has_contact_email": meta.HasContactEmail,
		"has_social":        meta.HasSocial,
	}
	if meta.ContactEmail != "" {
		signals["contact_email"] = meta.ContactEmail
	}
	if len(meta.Phones) > 0 {
		signals["phones"] = meta.Phones
	}

	var bumps []leadsservice.ScoreBump
	if meta.Platform {
		bumps = append(bumps, leadsservice.ScoreBump{Key: "platform", Fit: bumpPlatformFit})
	}
	if strings.Contains(strings.ToLower(meta.Title+" "+meta.Description), "sustainable") {
		bumps = append(bumps, leadsservice.ScoreBump{Key: "sustainable", Fit: bumpSustainableFit})
	}
	if meta.HasContactEmail {
		bumps = append(bumps, leadsservice.ScoreBump{Key: "contact_email", Intent: bumpContactIntent})
	}
	if meta.HasSocial {
		bumps = append(bumps, leadsservice.ScoreBump{Key: "social", Intent: bumpSocialIntent})
	}

	return s.lifecycle.ApplyEnrichment(ctx, leadsservice.EnrichmentInput{
		Email:   email,
		Company: input.Company,
		Profile: profile,
		Signals: signals,
		Bumps:   bumps,
	})
}

func industryOf(lead *domain.Lead) string {
	if lead == nil {
		return ""
	}
	industry, _ := lead.Profile["industry"].(string)
	return industry
}

func techSet(lead *domain.Lead, platform bool) []string {
	var tech []string
	if lead != nil {
		switch known := lead.Profile["tech"].(type) {
		case []string:
			tech = append(tech, known...)
		case []any:
			for _, item := range known {
				if s, ok := item.(string); ok {
					tech = append(tech, s)
				}
			}
		}
	}
	if platform {
		found := false
		for _, t := range tech {
			if t == "Shopify" {
				found = true
			}
		}
		if !found {
			tech = append(tech, "Shopify")
		}
	}
	return tech
}
