package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"golang.org/x/time/rate"
)

type prospectConfig struct {
	dryRun bool
}

func (c *prospectConfig) GetSearchDryRun() bool           { return c.dryRun }
func (c *prospectConfig) GetScrapeTimeout() time.Duration { return 2 * time.Second }
func (c *prospectConfig) GetScrapeRate() float64          { return 1000 }

const storefrontHTML = `<html><head>
<title>Cool Sneaks - Premium Footwear</title>
<meta name="description" content="Hand-crafted sneakers from California">
</head><body>
<p>Welcome to Cool Sneaks.</p>
<a href="/pages/contact">Contact us</a>
Call us at (415) 555-2671.
</body></html>`

const contactHTML = `<html><body>
Reach us at hello@coolsneaks.example or stop by the store.
</body></html>`

func newTestScraper(t *testing.T, handler http.Handler) (*Scraper, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	scraper := NewScraper(&prospectConfig{}, logger.New("development"))
	scraper.limiter = rate.NewLimiter(rate.Inf, 1)
	scraper.search = func(query string, limit int) []searchHit {
		return []searchHit{{URL: server.URL, Title: "Cool Sneaks"}}
	}
	return scraper, server
}

func TestSearchExtractsStoreInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(storefrontHTML))
	})
	mux.HandleFunc("/pages/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(contactHTML))
	})

	scraper, server := newTestScraper(t, mux)

	result, err := scraper.Search(context.Background(), "sneakers", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Fallback {
		t.Fatal("live results must not be flagged as fallback")
	}
	if len(result.Retailers) != 1 {
		t.Fatalf("retailers = %d, want 1", len(result.Retailers))
	}

	store := result.Retailers[0]
	if store.CompanyName != "Cool Sneaks" {
		t.Errorf("company = %q, want title before the dash", store.CompanyName)
	}
	if store.Email != "hello@coolsneaks.example" {
		t.Errorf("email = %q, want the contact-page address", store.Email)
	}
	if store.Phone != "+14155552671" {
		t.Errorf("phone = %q, want E164", store.Phone)
	}
	if store.Description != "Hand-crafted sneakers from California" {
		t.Errorf("description = %q", store.Description)
	}
	if store.Industry != "E-commerce" {
		t.Errorf("industry = %q", store.Industry)
	}
	if store.Website != server.URL {
		t.Errorf("website = %q, want %q", store.Website, server.URL)
	}
	if !strings.HasSuffix(store.ContactPage, "/pages/contact") {
		t.Errorf("contact page = %q", store.ContactPage)
	}
}

func TestSearchFallsBackToLandingPageEmail(t *testing.T) {
	page := `<html><head><title>Shop</title></head>
<body>Say hi: owner@shop.example</body></html>`
	scraper, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	result, err := scraper.Search(context.Background(), "shoes", 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.Retailers[0].Email != "owner@shop.example" {
		t.Errorf("email = %q", result.Retailers[0].Email)
	}
}

func TestSearchDedupesByDomain(t *testing.T) {
	scraper, server := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(storefrontHTML))
	}))
	scraper.search = func(query string, limit int) []searchHit {
		return []searchHit{
			{URL: server.URL + "/a"},
			{URL: server.URL + "/b"},
		}
	}

	result, err := scraper.Search(context.Background(), "sneakers", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Retailers) != 1 {
		t.Errorf("retailers = %d, want 1 after domain dedupe", len(result.Retailers))
	}
}

func TestSearchUnreachableSitesFallBackToSamples(t *testing.T) {
	scraper := NewScraper(&prospectConfig{}, logger.New("development"))
	scraper.limiter = rate.NewLimiter(rate.Inf, 1)
	scraper.search = func(query string, limit int) []searchHit {
		return []searchHit{{URL: "http://127.0.0.1:1/nope"}}
	}
	scraper.httpClient.Timeout = 200 * time.Millisecond

	result, err := scraper.Search(context.Background(), "sneakers", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback when every fetch fails")
	}
	if len(result.Retailers) != 2 {
		t.Errorf("retailers = %d, want the sample list capped at 2", len(result.Retailers))
	}
	if result.Retailers[0].CompanyName != "Acme Shoes" {
		t.Errorf("first sample = %q", result.Retailers[0].CompanyName)
	}
}

func TestSearchDryRunSkipsCrawl(t *testing.T) {
	scraper := NewScraper(&prospectConfig{dryRun: true}, logger.New("development"))
	scraper.search = func(query string, limit int) []searchHit {
		t.Fatal("dry run must not hit the search backend")
		return nil
	}

	result, err := scraper.Search(context.Background(), "sneakers", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Fallback || len(result.Retailers) == 0 {
		t.Errorf("dry run should return samples, got %+v", result)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	scraper := NewScraper(&prospectConfig{dryRun: true}, logger.New("development"))

	_, err := scraper.Search(context.Background(), "   ", 10)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}
