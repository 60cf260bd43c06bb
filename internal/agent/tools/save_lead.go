package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// leadSource marks agent-saved records so they can be told apart from
// manually entered leads.
const leadSource = "ai-agent"

// SaveLead persists qualified leads, bound to the tenant and user who
// launched the task.
type SaveLead struct {
	store    storage.LeadStore
	tenantID string
	userID   string
}

// NewSaveLead creates the save tool for one tenant and user.
func NewSaveLead(store storage.LeadStore, tenantID, userID string) *SaveLead {
	return &SaveLead{store: store, tenantID: tenantID, userID: userID}
}

func (t *SaveLead) Name() string { return "save_lead" }

func (t *SaveLead) Description() string {
	return "Save a lead to the database. Use this to store contact information for people found during research. An existing lead with the same email is updated instead of duplicated."
}

func (t *SaveLead) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Full name of the lead"},
			"email": {"type": "string", "description": "Lead email address"},
			"title": {"type": "string", "description": "Job title"},
			"company": {"type": "string", "description": "Company name"},
			"phone": {"type": "string", "description": "Phone number"},
			"linkedin_url": {"type": "string", "description": "LinkedIn profile URL"},
			"location": {"type": "string", "description": "Location/city"},
			"notes": {"type": "string", "description": "Any additional notes about this lead"}
		},
		"required": ["name", "email"]
	}`)
}

type saveLeadParams struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	LinkedInURL string `json:"linkedin_url"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
}

func (t *SaveLead) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p saveLeadParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}
	if p.Name == "" || p.Email == "" {
		return errorResult("name and email are required"), nil
	}

	now := time.Now().UTC()
	lead := &models.Lead{
		ID:        uuid.NewString(),
		TenantID:  t.tenantID,
		UserID:    t.userID,
		Name:      p.Name,
		Title:     p.Title,
		Company:   p.Company,
		Email:     p.Email,
		Phone:     p.Phone,
		LinkedIn:  p.LinkedInURL,
		Location:  p.Location,
		Source:    leadSource,
		Notes:     p.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := t.store.Upsert(ctx, lead)
	if err != nil {
		return errorResult("failed to save lead: %v", err), nil
	}

	action := "updated"
	if created {
		action = "created"
	}
	return jsonResult(map[string]any{
		"lead_id": lead.ID,
		"action":  action,
		"message": "Lead " + p.Name + " saved successfully",
	})
}
