// Package client fetches and parses storefront pages into the signal
// set the enrichment service scores on.
package client

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
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"golang.org/x/net/html"
)

const (
	opFetch = "enrichment.client.fetch"

	userAgent = "Mozilla/5.0 (compatible; OutreachBot/1.0)"

	// fetchAttempts bounds the per-fetch retry loop; the backoff is short
	// and fixed per attempt.
	fetchAttempts = 2
	fetchBackoff  = 500 * time.Millisecond

	maxBodyBytes = 1 << 20
)

// PageMeta is what a single page fetch yields.
type PageMeta struct {
	Title           string
	Description     string
	Platform        bool
	HasSocial       bool
	HasContactEmail bool
	ContactEmail    string
	SocialLinks     []string
	Phones          []string
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?[0-9][0-9()\-\s.]{6,18}[0-9]`)
)

var socialHosts = []string{"instagram.com", "twitter.com", "x.com", "facebook.com", "tiktok.com", "linkedin.com"}

// socialWords is the conservative list used against page text, where a
// bare host like x.com would false-positive.
var socialWords = []string{"instagram", "twitter", "facebook", "tiktok", "linkedin"}

var platformMarkers = []string{"cdn.shopify.com", "shopify", "myshopify.com"}

// Client fetches pages with a bounded timeout. In offline mode it parses
// a canned storefront page instead of dialing out, which keeps demo runs
// deterministic.
type Client struct {
	httpClient *http.Client
	offline    bool
	log        *logger.Logger
}

// New creates a page-fetching client.
func New(timeout time.Duration, offline bool, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		offline:    offline,
		log:        log,
	}
}

// NormalizeWebsite reduces a URL to scheme://host, defaulting the scheme
// to https. Empty input stays empty.
func NormalizeWebsite(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// FetchPageMeta fetches website's landing page and extracts signals.
func (c *Client) FetchPageMeta(ctx context.Context, website string) (*PageMeta, error) {
	if c.offline {
		return ParsePage(strings.NewReader(sampleStorefrontHTML))
	}

	site := NormalizeWebsite(website)
	if site == "" {
		return nil, apperr.Validation("website is required").WithOp(opFetch)
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchBackoff * time.Duration(attempt)):
			}
		}

		meta, err := c.fetchOnce(ctx, site)
		if err == nil {
			return meta, nil
		}
		lastErr = err
		c.log.Warn("page fetch failed", "website", site, "attempt", attempt+1, "error", err)
	}

	return nil, apperr.Wrap(apperr.KindUnavailable, "failed to fetch website", lastErr).WithOp(opFetch)
}

func (c *Client) fetchOnce(ctx context.Context, site string) (*PageMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return ParsePage(io.LimitReader(resp.Body, maxBodyBytes))
}

// ParsePage walks an HTML document and collects title, meta description,
// platform markers, social links, contact emails and phone numbers.
func ParsePage(r io.Reader) (*PageMeta, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to parse page", err).WithOp(opFetch)
	}

	meta := &PageMeta{}
	var textParts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if attr(n, "name") == "description" {
					meta.Description = strings.TrimSpace(attr(n, "content"))
				}
			case "a":
				href := attr(n, "href")
				if strings.HasPrefix(href, "mailto:") {
					address := strings.TrimPrefix(href, "mailto:")
					if meta.ContactEmail == "" && emailRe.MatchString(address) {
						meta.ContactEmail = emailRe.FindString(address)
					}
				}
				for _, host := range socialHosts {
					if strings.Contains(href, host) {
						meta.SocialLinks = appendUnique(meta.SocialLinks, host)
					}
				}
			case "script", "link", "img":
				src := attr(n, "src") + attr(n, "href")
				lowered := strings.ToLower(src)
				for _, marker := range platformMarkers {
					if strings.Contains(lowered, marker) {
						meta.Platform = true
					}
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

	text := strings.Join(textParts, " ")
	lowered := strings.ToLower(text)

	for _, marker := range platformMarkers {
		if strings.Contains(lowered, marker) {
			meta.Platform = true
		}
	}
	for _, word := range socialWords {
		if strings.Contains(lowered, word) {
			meta.SocialLinks = appendUnique(meta.SocialLinks, word+".com")
		}
	}
	if meta.ContactEmail == "" {
		meta.ContactEmail = emailRe.FindString(text)
	}

	for _, candidate := range phoneRe.FindAllString(text, 5) {
		if formatted, ok := phone.ValidE164(candidate); ok {
			meta.Phones = appendUnique(meta.Phones, formatted)
		}
	}

	meta.HasSocial = len(meta.SocialLinks) > 0
	meta.HasContactEmail = meta.ContactEmail != ""
	return meta, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// sampleStorefrontHTML keeps offline demo runs deterministic.
const sampleStorefrontHTML = `
<html><head>
<title>Allbirds® — Sustainable Shoes</title>
<meta name="description" content="Comfortable, sustainable shoes made from natural materials">
</head><body>
Powered by Shopify. Follow us on <a href="https://instagram.com/brand">Instagram</a>
and <a href="https://twitter.com/brand">Twitter</a>.
Contact: <a href="mailto:support@brand.com">support@brand.com</a>
</body></html>`
