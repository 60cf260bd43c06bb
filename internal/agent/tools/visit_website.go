package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// Bounds for fetched pages.
const (
	maxPageBytes   = 2 << 20 // 2MB raw HTML
	maxTextChars   = 5000
	maxLinks       = 50
	fetchTimeout   = 30 * time.Second
	visitUserAgent = "leadflow-agent/1.0"
)

// VisitWebsite fetches a page over plain HTTP and extracts its title, meta
// description, visible text, and optionally links. It does not execute
// JavaScript.
type VisitWebsite struct {
	http *http.Client
}

// NewVisitWebsite creates the website research tool. A nil client gets a
// default with a bounded timeout.
func NewVisitWebsite(client *http.Client) *VisitWebsite {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &VisitWebsite{http: client}
}

func (t *VisitWebsite) Name() string { return "visit_website" }

func (t *VisitWebsite) Description() string {
	return "Visit a website and extract its content. Use this to research companies, find contact information, or analyze web pages. Returns the page title, meta description, and main text content."
}

func (t *VisitWebsite) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The URL to visit"},
			"extract_links": {"type": "boolean", "description": "Whether to extract links from the page"}
		},
		"required": ["url"]
	}`)
}

type visitWebsiteParams struct {
	URL          string `json:"url"`
	ExtractLinks bool   `json:"extract_links"`
}

func (t *VisitWebsite) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p visitWebsiteParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}
	if !strings.HasPrefix(p.URL, "http://") && !strings.HasPrefix(p.URL, "https://") {
		return errorResult("url must be http or https"), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return errorResult("invalid url: %v", err), nil
	}
	req.Header.Set("User-Agent", visitUserAgent)

	resp, err := t.http.Do(req)
	if err != nil {
		return errorResult("failed to visit %s: %v", p.URL, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult("failed to visit %s: status %d", p.URL, resp.StatusCode), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return errorResult("failed to read %s: %v", p.URL, err), nil
	}
	html := string(body)

	result := map[string]any{
		"url":              p.URL,
		"title":            extractTitle(html),
		"meta_description": extractMetaDescription(html),
		"main_text":        extractText(html),
	}
	if p.ExtractLinks {
		result["links"] = extractLinks(html)
	}
	return jsonResult(result)
}

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["']([^"']*)["']`)
	stripRe    = regexp.MustCompile(`(?is)<(script|style|nav|footer|iframe)[^>]*>.*?</(script|style|nav|footer|iframe)>`)
	tagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe    = regexp.MustCompile(`\s+`)
	linkRe     = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"']+)["']`)
)

func extractTitle(html string) string {
	if m := titleRe.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractMetaDescription(html string) string {
	if m := metaDescRe.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractText strips non-content elements and tags, collapses whitespace,
// and truncates to a model-friendly size.
func extractText(html string) string {
	text := stripRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if len(text) > maxTextChars {
		// Back up to a rune boundary so the cut never emits invalid UTF-8.
		cut := maxTextChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func extractLinks(html string) []string {
	var links []string
	for _, m := range linkRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		if !strings.HasPrefix(href, "http") && !strings.HasPrefix(href, "/") {
			continue
		}
		links = append(links, href)
		if len(links) >= maxLinks {
			break
		}
	}
	return links
}
