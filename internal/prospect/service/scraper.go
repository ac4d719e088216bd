// Package service discovers storefront retailers and extracts their
// contact details from the live pages.
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	opSearch = "prospect.service.search"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/126.0 Safari/537.36"

	fetchAttempts = 2
	fetchBackoff  = 500 * time.Millisecond

	maxBodyBytes = 1 << 20

	// DefaultLimit and MaxLimit keep the crawl polite.
	DefaultLimit = 10
	MaxLimit     = 50
)

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

var phoneRe = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// Retailer is one discovered store with whatever contact details the
// page gave up.
type Retailer struct {
	CompanyName string `json:"companyName"`
	Website     string `json:"website"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	Industry    string `json:"industry"`
	ContactPage string `json:"contactPage,omitempty"`
}

// SearchResult is the outcome of one search: the retailers found plus
// whether the embedded sample list had to stand in for live results.
type SearchResult struct {
	Retailers []Retailer
	Fallback  bool
}

// searchHit is one candidate URL from the search backend.
type searchHit struct {
	URL   string
	Title string
}

// searchFunc maps a query to candidate store URLs. The default is a
// demo backend with a fixed seed list; a real search API slots in here.
type searchFunc func(query string, limit int) []searchHit

// Scraper turns a product query into a deduplicated list of stores with
// contact info. Page fetches are paced by a rate limiter so demo runs
// stay polite to the sites they touch.
type Scraper struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	search     searchFunc
	dryRun     bool
	log        *logger.Logger
}

// NewScraper creates a scraper from the prospect settings.
func NewScraper(cfg config.ProspectConfig, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: cfg.GetScrapeTimeout()},
		limiter:    rate.NewLimiter(rate.Limit(cfg.GetScrapeRate()), 1),
		search:     seedSearch,
		dryRun:     cfg.GetSearchDryRun(),
		log:        log,
	}
}

// Search finds up to limit stores for the query. A limit outside
// [1, MaxLimit] is clamped. When the live crawl yields nothing (or
// SEARCH_DRY_RUN is on) the embedded sample list is returned with
// Fallback set.
func (s *Scraper) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required").WithOp(opSearch)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var retailers []Retailer
	if !s.dryRun {
		found, err := s.crawl(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		retailers = found
	}

	fallback := len(retailers) == 0
	if fallback {
		retailers = sampleRetailers(limit)
	}

	s.log.Info("retailer search finished",
		"query", query, "count", len(retailers), "limit", limit, "fallback", fallback)

	return &SearchResult{Retailers: retailers, Fallback: fallback}, nil
}

func (s *Scraper) crawl(ctx context.Context, query string, limit int) ([]Retailer, error) {
	// Bias the search phrase toward storefront hits; grab extra to
	// survive dedupe and failed fetches.
	searchQuery := fmt.Sprintf(`%s site:myshopify.com OR "powered by shopify"`, query)
	hits := s.search(searchQuery, limit*3)

	stores := make([]Retailer, 0, limit)
	seenDomains := make(map[string]bool)
	seenEmails := make(map[string]bool)

	for _, hit := range hits {
		if len(stores) >= limit {
			break
		}
		if hit.URL == "" {
			continue
		}
		parsed, err := url.Parse(hit.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		domain := strings.ToLower(parsed.Host)
		if seenDomains[domain] {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		store, err := s.extractStoreInfo(ctx, hit.URL)
		if err != nil {
			s.log.Warn("store extraction failed", "url", hit.URL, "error", err)
			continue
		}

		email := strings.ToLower(strings.TrimSpace(store.Email))
		if email != "" && seenEmails[email] {
			continue
		}

		stores = append(stores, *store)
		seenDomains[domain] = true
		if email != "" {
			seenEmails[email] = true
		}
	}

	return stores, nil
}

// extractStoreInfo fetches one storefront and pulls out the company
// name, contact email, phone and description.
func (s *Scraper) extractStoreInfo(ctx context.Context, pageURL string) (*Retailer, error) {
	page, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	store := &Retailer{
		Website:     pageURL,
		CompanyName: companyNameFrom(page.Title, pageURL),
		Phone:       firstValidPhone(page.Text),
		Description: descriptionFrom(page),
		Industry:    "E-commerce",
		ContactPage: contactPageFrom(page, pageURL),
	}
	store.Email = s.extractEmail(ctx, page, pageURL)
	return store, nil
}

// extractEmail prefers addresses found on contact or about pages, then
// falls back to scanning the landing page itself.
func (s *Scraper) extractEmail(ctx context.Context, page *storePage, baseURL string) string {
	checked := 0
	for _, link := range page.Links {
		if checked >= 2 {
			break
		}
		lowered := strings.ToLower(link.Href)
		if !strings.Contains(lowered, "contact") && !strings.Contains(lowered, "about") {
			continue
		}
		checked++

		contactURL := resolveURL(baseURL, link.Href)
		if contactURL == "" {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return ""
		}
		contact, err := s.fetchPage(ctx, contactURL)
		if err != nil {
			continue
		}
		if email := emailRe.FindString(contact.Text); email != "" {
			return email
		}
	}
	return emailRe.FindString(page.Text)
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*storePage, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchBackoff * time.Duration(attempt)):
			}
		}

		page, err := s.fetchOnce(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Scraper) fetchOnce(ctx context.Context, pageURL string) (*storePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return parseStorePage(io.LimitReader(resp.Body, maxBodyBytes))
}

// =============================================================================
// Page parsing
// =============================================================================

type pageLink struct {
	Href string
	Text string
}

type storePage struct {
	Title          string
	Description    string
	FirstParagraph string
	Links          []pageLink
	Text           string
}

func parseStorePage(r io.Reader) (*storePage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := &storePage{}
	var textParts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if attr(n, "name") == "description" {
					page.Description = strings.TrimSpace(attr(n, "content"))
				}
			case "a":
				if href := attr(n, "href"); href != "" {
					page.Links = append(page.Links, pageLink{Href: href, Text: nodeText(n)})
				}
			case "p":
				if page.FirstParagraph == "" {
					page.FirstParagraph = strings.TrimSpace(nodeText(n))
				}
			}
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				textParts = append(textParts, trimmed)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	page.Text = strings.Join(textParts, " ")
	return page, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if trimmed := strings.TrimSpace(node.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// =============================================================================
// Extraction helpers
// =============================================================================

// companyNameFrom picks the first chunk of the page title. Storefront
// themes often pad titles with " - Tagline".
func companyNameFrom(title, pageURL string) string {
	if title != "" {
		name := strings.SplitN(title, " - ", 2)[0]
		return truncate(strings.TrimSpace(name), 80)
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	name := strings.TrimSuffix(parsed.Host, ".myshopify.com")
	words := strings.Split(strings.ReplaceAll(name, "-", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return truncate(strings.Join(words, " "), 80)
}

func descriptionFrom(page *storePage) string {
	if page.Description != "" {
		return truncate(page.Description, 200)
	}
	if page.FirstParagraph != "" {
		return truncate(page.FirstParagraph, 200)
	}
	return "Shopify store"
}

func contactPageFrom(page *storePage, baseURL string) string {
	for _, link := range page.Links {
		if strings.Contains(strings.ToLower(link.Href), "contact") {
			return resolveURL(baseURL, link.Href)
		}
	}
	return ""
}

func firstValidPhone(text string) string {
	for _, candidate := range phoneRe.FindAllString(text, 5) {
		if formatted, ok := phone.ValidE164(candidate); ok {
			return formatted
		}
	}
	return ""
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// =============================================================================
// Seeds and fallback data
// =============================================================================

// seedSearch stands in for a real search API during demos. The titles
// carry the query so responses still look query-specific.
func seedSearch(query string, limit int) []searchHit {
	seeds := []searchHit{
		{URL: "https://example-store.myshopify.com", Title: "Example Store - " + query},
		{URL: "https://demo-shop.myshopify.com", Title: "Demo Shop - " + query},
		{URL: "https://test-retailer.myshopify.com", Title: "Test Retailer - " + query},
		{URL: "https://cool-sneaks.myshopify.com", Title: "Cool Sneaks - " + query},
		{URL: "https://westcoast-kicks.myshopify.com", Title: "West Coast Kicks - " + query},
	}
	if limit < len(seeds) {
		return seeds[:limit]
	}
	return seeds
}

// sampleRetailers is the embedded fallback so demos never come back
// empty-handed.
func sampleRetailers(limit int) []Retailer {
	builtin := []Retailer{
		{CompanyName: "Acme Shoes", Website: "https://acmeshoes.example", Email: "owner@acmeshoes.example", Industry: "E-commerce"},
		{CompanyName: "Stride California", Website: "https://stride-ca.example", Email: "hello@stride-ca.example", Industry: "E-commerce"},
		{CompanyName: "Sole Society CA", Website: "https://solesociety.example", Email: "contact@solesociety.example", Industry: "E-commerce"},
	}
	if limit < len(builtin) {
		return builtin[:limit]
	}
	return builtin
}
