package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/haasonsaas/leadflow/internal/agent"
	"github.com/haasonsaas/leadflow/internal/rocketreach"
	"github.com/haasonsaas/leadflow/internal/settings"
	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/internal/vault"
	"github.com/haasonsaas/leadflow/pkg/models"
)

func newRocketReachClient(t *testing.T, baseURL string) *rocketreach.Client {
	t.Helper()
	v := vault.New("test-passphrase")
	store := storage.NewMemorySettingsStore()
	envelope, err := v.Encrypt("test-key")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	err = store.Upsert(context.Background(), &models.ProviderSettings{
		TenantID:        "tenant-1",
		Provider:        rocketreach.Provider,
		IsEnabled:       true,
		BaseURL:         baseURL,
		APIKeyEncrypted: envelope,
		Version:         1,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	resolver := settings.NewResolver(rocketreach.Provider, store, v, nil, nil)
	return rocketreach.NewClient(resolver, nil)
}

func TestSearchLeadsPeople(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(rocketreach.SearchResponse{
			Profiles: []rocketreach.Person{{ID: 1, Name: "Ada", CurrentTitle: "CTO"}},
			Total:    12,
		})
	}))
	defer server.Close()

	tool := NewSearchLeads(newRocketReachClient(t, server.URL), "tenant-1")

	result, err := tool.Execute(context.Background(), json.RawMessage(`{
		"search_type": "people",
		"company_name": "Acme",
		"role": "CTO",
		"limit": 5
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("Execute() returned error result: %s", result.Content)
	}

	var out struct {
		Count int `json:"count"`
		Total int `json:"total_results"`
	}
	if err := json.Unmarshal([]byte(result.Content), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Count != 1 || out.Total != 12 {
		t.Errorf("count = %d, total = %d", out.Count, out.Total)
	}
}

func TestSearchLeadsRequiresCompany(t *testing.T) {
	tool := NewSearchLeads(newRocketReachClient(t, "http://unused.invalid"), "tenant-1")

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"search_type": "people"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing company_name should produce an error result")
	}
}

func TestSaveLeadCreateAndUpdate(t *testing.T) {
	store := storage.NewMemoryLeadStore()
	tool := NewSaveLead(store, "tenant-1", "user-1")

	result, err := tool.Execute(context.Background(), json.RawMessage(`{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"company": "Analytical Engines"
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("error result: %s", result.Content)
	}
	var first struct {
		Action string `json:"action"`
		LeadID string `json:"lead_id"`
	}
	if err := json.Unmarshal([]byte(result.Content), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Action != "created" {
		t.Errorf("action = %q, want created", first.Action)
	}

	// Same email again updates rather than duplicating.
	result, err = tool.Execute(context.Background(), json.RawMessage(`{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"title": "Countess"
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var second struct {
		Action string `json:"action"`
		LeadID string `json:"lead_id"`
	}
	if err := json.Unmarshal([]byte(result.Content), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Action != "updated" {
		t.Errorf("action = %q, want updated", second.Action)
	}
	if second.LeadID != first.LeadID {
		t.Errorf("lead ID changed on update: %s != %s", second.LeadID, first.LeadID)
	}

	leads, err := store.List(context.Background(), "tenant-1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("leads = %d, want 1", len(leads))
	}
	if leads[0].Title != "Countess" || leads[0].Source != leadSource {
		t.Errorf("stored lead = %+v", leads[0])
	}
}

func TestSaveLeadRequiresNameAndEmail(t *testing.T) {
	tool := NewSaveLead(storage.NewMemoryLeadStore(), "tenant-1", "user-1")
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"name": "No Email"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing email should produce an error result")
	}
}

type draftProvider struct {
	lastPrompt string
}

func (p *draftProvider) Name() string { return "draft" }

func (p *draftProvider) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	p.lastPrompt = req.Messages[0].Content
	return &agent.GenerateResponse{
		Text: "Subject: Quick introduction\n\nHi Ada,\n\nWould love to connect.\n\nBest,\nSales",
	}, nil
}

func TestGenerateEmail(t *testing.T) {
	provider := &draftProvider{}
	tool := NewGenerateEmail(provider)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{
		"recipient_name": "Ada",
		"recipient_company": "Acme",
		"purpose": "introduce our product",
		"tone": "friendly"
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("error result: %s", result.Content)
	}

	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(result.Content), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Subject != "Quick introduction" {
		t.Errorf("subject = %q", out.Subject)
	}
	if !strings.Contains(out.Body, "Hi Ada") {
		t.Errorf("body = %q", out.Body)
	}
	if !strings.Contains(provider.lastPrompt, "friendly") || !strings.Contains(provider.lastPrompt, "Acme") {
		t.Errorf("draft prompt missing details: %q", provider.lastPrompt)
	}
}

func TestSplitDraft(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSubject string
		wantBody    string
	}{
		{"subject and body", "Subject: Hello\n\nBody text", "Hello", "Body text"},
		{"no subject", "Just body", "", "Just body"},
		{"subject only", "Subject: Lone", "Lone", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := splitDraft(tt.text)
			if subject != tt.wantSubject || body != tt.wantBody {
				t.Errorf("splitDraft() = (%q, %q), want (%q, %q)", subject, body, tt.wantSubject, tt.wantBody)
			}
		})
	}
}

type captureSender struct {
	sent []OutboundEmail
}

func (s *captureSender) Send(ctx context.Context, email OutboundEmail) (string, error) {
	s.sent = append(s.sent, email)
	return "msg-1", nil
}

func TestSendEmail(t *testing.T) {
	sender := &captureSender{}
	tool := NewSendEmail(sender)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{
		"to": "ada@example.com",
		"subject": "Hello",
		"body": "<p>Hi</p>",
		"is_html": true
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("error result: %s", result.Content)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].To != "ada@example.com" || !sender.sent[0].HTML {
		t.Errorf("sent email = %+v", sender.sent[0])
	}
}

func TestSendEmailRejectsBadAddress(t *testing.T) {
	tool := NewSendEmail(&captureSender{})
	result, err := tool.Execute(context.Background(), json.RawMessage(`{
		"to": "not-an-address", "subject": "s", "body": "b"
	}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("invalid address should produce an error result")
	}
}

func TestVisitWebsite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Acme Corp</title>
			<meta name="description" content="We make anvils">
			<script>ignore()</script>
		</head><body>
			<nav>menu</nav>
			<p>Quality anvils since 1949.</p>
			<a href="https://acme.example.com/about">About</a>
			<a href="mailto:hi@acme.example.com">Mail</a>
		</body></html>`))
	}))
	defer server.Close()

	tool := NewVisitWebsite(server.Client())

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"url": "`+server.URL+`", "extract_links": true}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("error result: %s", result.Content)
	}

	var out struct {
		Title    string   `json:"title"`
		MetaDesc string   `json:"meta_description"`
		MainText string   `json:"main_text"`
		Links    []string `json:"links"`
	}
	if err := json.Unmarshal([]byte(result.Content), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Title != "Acme Corp" {
		t.Errorf("title = %q", out.Title)
	}
	if out.MetaDesc != "We make anvils" {
		t.Errorf("meta description = %q", out.MetaDesc)
	}
	if !strings.Contains(out.MainText, "Quality anvils") {
		t.Errorf("main text = %q", out.MainText)
	}
	if strings.Contains(out.MainText, "ignore()") || strings.Contains(out.MainText, "menu") {
		t.Errorf("main text should exclude script and nav content: %q", out.MainText)
	}
	if len(out.Links) != 1 || out.Links[0] != "https://acme.example.com/about" {
		t.Errorf("links = %v", out.Links)
	}
}

func TestVisitWebsiteRejectsNonHTTP(t *testing.T) {
	tool := NewVisitWebsite(nil)
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"url": "ftp://example.com"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("non-http URL should produce an error result")
	}
}

func TestVisitWebsiteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tool := NewVisitWebsite(server.Client())
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"url": "`+server.URL+`"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("404 should produce an error result")
	}
}

func TestExtractTextCutsOnRuneBoundary(t *testing.T) {
	// Three-byte runes guarantee the byte limit lands mid-sequence.
	text := extractText("<p>" + strings.Repeat("世", maxTextChars) + "</p>")
	if !utf8.ValidString(text) {
		t.Error("truncated text is not valid UTF-8")
	}
	if len(text) > maxTextChars {
		t.Errorf("len = %d, want at most %d", len(text), maxTextChars)
	}
	if len(text) == 0 {
		t.Error("truncation should keep leading content")
	}
}
