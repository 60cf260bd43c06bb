package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/leadflow/internal/agent"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// GenerateEmail drafts a personalized outreach email through the model
// provider. It runs a single nested model turn with no tools.
type GenerateEmail struct {
	provider agent.ModelProvider
}

// NewGenerateEmail creates the email drafting tool.
func NewGenerateEmail(provider agent.ModelProvider) *GenerateEmail {
	return &GenerateEmail{provider: provider}
}

func (t *GenerateEmail) Name() string { return "generate_email" }

func (t *GenerateEmail) Description() string {
	return "Generate a personalized email for outreach. Provide context about the recipient and the purpose of the email; the result contains a subject line and body."
}

func (t *GenerateEmail) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"recipient_name": {"type": "string", "description": "Name of the email recipient"},
			"recipient_company": {"type": "string", "description": "Company where the recipient works"},
			"recipient_role": {"type": "string", "description": "Job title or role of the recipient"},
			"purpose": {"type": "string", "description": "Purpose of the email, e.g. \"introduce our product\" or \"request meeting\""},
			"context": {"type": "string", "description": "Additional context or details to include"},
			"tone": {
				"type": "string",
				"enum": ["formal", "professional", "casual", "friendly"],
				"description": "Tone of the email (default professional)"
			}
		},
		"required": ["recipient_name", "purpose"]
	}`)
}

type generateEmailParams struct {
	RecipientName    string `json:"recipient_name"`
	RecipientCompany string `json:"recipient_company"`
	RecipientRole    string `json:"recipient_role"`
	Purpose          string `json:"purpose"`
	Context          string `json:"context"`
	Tone             string `json:"tone"`
}

func (t *GenerateEmail) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p generateEmailParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}
	if p.RecipientName == "" || p.Purpose == "" {
		return errorResult("recipient_name and purpose are required"), nil
	}
	if p.Tone == "" {
		p.Tone = "professional"
	}

	resp, err := t.provider.Generate(ctx, &agent.GenerateRequest{
		Messages:  []agent.Message{{Role: agent.RoleUser, Content: draftPrompt(p)}},
		MaxTokens: 1024,
	})
	if err != nil {
		return errorResult("email generation failed: %v", err), nil
	}

	subject, body := splitDraft(resp.Text)
	return jsonResult(map[string]any{
		"subject": subject,
		"body":    body,
		"recipient_info": map[string]string{
			"name":    p.RecipientName,
			"company": p.RecipientCompany,
			"role":    p.RecipientRole,
		},
	})
}

func draftPrompt(p generateEmailParams) string {
	recipient := p.RecipientName
	if p.RecipientRole != "" {
		recipient += " - " + p.RecipientRole
	}
	if p.RecipientCompany != "" {
		recipient += " at " + p.RecipientCompany
	}

	prompt := fmt.Sprintf(`Generate a %s email with the following details:

Recipient: %s
Purpose: %s
`, p.Tone, recipient, p.Purpose)
	if p.Context != "" {
		prompt += "Context: " + p.Context + "\n"
	}
	prompt += `
Requirements:
- Subject line (start with "Subject: ")
- Professional greeting
- Clear, concise body (2-3 paragraphs max)
- Strong call-to-action
- Professional signature line

Format the output as:
Subject: [subject line]

[email body]`
	return prompt
}

// splitDraft separates the "Subject: ..." first line from the body.
func splitDraft(text string) (subject, body string) {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "Subject:"); ok {
		if idx := strings.Index(rest, "\n"); idx >= 0 {
			return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+1:])
		}
		return strings.TrimSpace(rest), ""
	}
	return "", text
}
