package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// OutboundEmail is a message handed to a Sender.
type OutboundEmail struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers outbound email. The transport (SMTP, an ESP API) is
// supplied by the host application.
type Sender interface {
	Send(ctx context.Context, email OutboundEmail) (messageID string, err error)
}

// LogSender records sends to the structured log without delivering anything.
// It is the default in development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, email OutboundEmail) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger.Info("email send (dry run)",
		"message_id", id,
		"to", email.To,
		"subject", email.Subject,
	)
	return id, nil
}

// SendEmail delivers a drafted email through the configured sender.
type SendEmail struct {
	sender Sender
}

// NewSendEmail creates the send tool. A nil sender gets the dry-run
// LogSender.
func NewSendEmail(sender Sender) *SendEmail {
	if sender == nil {
		sender = LogSender{}
	}
	return &SendEmail{sender: sender}
}

func (t *SendEmail) Name() string { return "send_email" }

func (t *SendEmail) Description() string {
	return "Send an email to a recipient. Use this after generating email content. Provide the recipient's email address, subject line, and body."
}

func (t *SendEmail) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"to": {"type": "string", "description": "Recipient email address"},
			"subject": {"type": "string", "description": "Email subject line"},
			"body": {"type": "string", "description": "Email body content (HTML or plain text)"},
			"is_html": {"type": "boolean", "description": "Whether the body is HTML formatted"}
		},
		"required": ["to", "subject", "body"]
	}`)
}

type sendEmailParams struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	IsHTML  bool   `json:"is_html"`
}

func (t *SendEmail) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p sendEmailParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}
	if p.To == "" || !strings.Contains(p.To, "@") {
		return errorResult("valid recipient address is required"), nil
	}
	if p.Subject == "" || p.Body == "" {
		return errorResult("subject and body are required"), nil
	}

	messageID, err := t.sender.Send(ctx, OutboundEmail{
		To:      p.To,
		Subject: p.Subject,
		Body:    p.Body,
		HTML:    p.IsHTML,
	})
	if err != nil {
		return errorResult("send failed: %v", err), nil
	}
	return jsonResult(map[string]any{
		"message_id": messageID,
		"to":         p.To,
		"subject":    p.Subject,
		"status":     "sent",
	})
}
