package service

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/leads/domain"
	leadsservice "outreach_backend/internal/leads/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
)

type fakeLifecycle struct {
	existing *domain.Lead
	applied  *leadsservice.EnrichmentInput
}

func (f *fakeLifecycle) Get(_ context.Context, email string) (*domain.Lead, error) {
	if f.existing == nil {
		return nil, apperr.NotFound("lead not found")
	}
	return f.existing, nil
}

func (f *fakeLifecycle) ApplyEnrichment(_ context.Context, input leadsservice.EnrichmentInput) (*domain.Lead, error) {
	f.applied = &input
	lead := domain.NewLead(input.Email, time.Now())
	return lead, nil
}

type fakeFetcher struct {
	meta *client.PageMeta
	err  error
}

func (f *fakeFetcher) FetchPageMeta(context.Context, string) (*client.PageMeta, error) {
	return f.meta, f.err
}

func TestEnrichMapsSignalsToBumps(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	fetcher := &fakeFetcher{meta: &client.PageMeta{
		Title:           "Sustainable Wares",
		Platform:        true,
		HasSocial:       true,
		HasContactEmail: true,
		ContactEmail:    "hi@shop.com",
	}}
	svc := New(lifecycle, fetcher, logger.New("development"))

	_, err := svc.Enrich(context.Background(), EnrichInput{
		Email:   "Lead@Example.com",
		Company: "Shop Co",
		Website: "shop.example.com",
	})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	applied := lifecycle.applied
	if applied == nil {
		t.Fatal("enrichment not applied")
	}
	if applied.Email != "lead@example.com" {
		t.Errorf("email = %q", applied.Email)
	}

	var totalFit, totalIntent float64
	keys := map[string]bool{}
	for _, bump := range applied.Bumps {
		totalFit += bump.Fit
		totalIntent += bump.Intent
		keys[bump.Key] = true
	}
	if totalFit != 45 {
		t.Errorf("fit bumps = %v, want 45 (platform + sustainable)", totalFit)
	}
	if totalIntent != 40 {
		t.Errorf("intent bumps = %v, want 40 (contact + social)", totalIntent)
	}
	for _, key := range []string{"platform", "sustainable", "contact_email", "social"} {
		if !keys[key] {
			t.Errorf("missing bump key %q", key)
		}
	}

	if applied.Profile["website"] != "https://shop.example.com" {
		t.Errorf("profile website = %v", applied.Profile["website"])
	}
	if applied.Profile["industry"] != "E-commerce" {
		t.Errorf("profile industry = %v", applied.Profile["industry"])
	}
	if applied.Signals["has_contact_email"] != true {
		t.Errorf("signals = %v", applied.Signals)
	}
}

func TestEnrichFetchFailureIsBestEffort(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	fetcher := &fakeFetcher{err: apperr.Unavailable("connection refused")}
	svc := New(lifecycle, fetcher, logger.New("development"))

	_, err := svc.Enrich(context.Background(), EnrichInput{
		Email:   "lead@example.com",
		Website: "dead.example.com",
	})
	if err != nil {
		t.Fatalf("enrich should survive a fetch failure, got %v", err)
	}
	if len(lifecycle.applied.Bumps) != 0 {
		t.Errorf("bumps on failed fetch = %v", lifecycle.applied.Bumps)
	}
}

func TestEnrichRequiresEmail(t *testing.T) {
	svc := New(&fakeLifecycle{}, &fakeFetcher{}, logger.New("development"))

	_, err := svc.Enrich(context.Background(), EnrichInput{Website: "x.com"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestEnrichKeepsExistingIndustry(t *testing.T) {
	existing := domain.NewLead("lead@example.com", time.Now())
	existing.Profile["industry"] = "Apparel"

	lifecycle := &fakeLifecycle{existing: existing}
	svc := New(lifecycle, &fakeFetcher{meta: &client.PageMeta{}}, logger.New("development"))

	if _, err := svc.Enrich(context.Background(), EnrichInput{
		Email: "lead@example.com", Website: "x.example.com",
	}); err != nil {
		t.Fatal(err)
	}

	if _, ok := lifecycle.applied.Profile["industry"]; ok {
		t.Error("default industry must not overwrite an existing one")
	}
}
