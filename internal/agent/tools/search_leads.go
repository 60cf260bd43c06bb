package tools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/leadflow/internal/rocketreach"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// SearchLeads searches for people through the RocketReach client. It is
// bound to one tenant at construction so the model never chooses whose
// credentials to spend.
type SearchLeads struct {
	client   *rocketreach.Client
	tenantID string
}

// NewSearchLeads creates the search tool for one tenant.
func NewSearchLeads(client *rocketreach.Client, tenantID string) *SearchLeads {
	return &SearchLeads{client: client, tenantID: tenantID}
}

func (t *SearchLeads) Name() string { return "search_leads" }

func (t *SearchLeads) Description() string {
	return "Search for leads using the RocketReach API. Search by company name and role, or look up a specific person by their RocketReach profile ID. Returns contact information including names, titles, and emails."
}

func (t *SearchLeads) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"search_type": {
				"type": "string",
				"enum": ["people", "person_id"],
				"description": "Type of search to perform"
			},
			"company_name": {
				"type": "string",
				"description": "Company name to search (for people search)"
			},
			"role": {
				"type": "string",
				"description": "Job title or role to search for (for people search)"
			},
			"person_id": {
				"type": "integer",
				"description": "RocketReach person ID (for profile lookup)"
			},
			"limit": {
				"type": "integer",
				"minimum": 1,
				"maximum": 50,
				"description": "Maximum number of results (default 10)"
			}
		},
		"required": ["search_type"]
	}`)
}

type searchLeadsParams struct {
	SearchType  string `json:"search_type"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	PersonID    int    `json:"person_id"`
	Limit       int    `json:"limit"`
}

func (t *SearchLeads) Execute(ctx context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p searchLeadsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}

	switch p.SearchType {
	case "person_id":
		if p.PersonID == 0 {
			return errorResult("person_id is required for profile lookup"), nil
		}
		person, err := t.client.LookupProfile(ctx, t.tenantID, p.PersonID)
		if err != nil {
			return errorResult("profile lookup failed: %v", err), nil
		}
		return jsonResult(map[string]any{
			"search_type": p.SearchType,
			"results":     []any{person},
			"count":       1,
		})

	case "people":
		if p.CompanyName == "" {
			return errorResult("company_name is required for people search"), nil
		}
		req := rocketreach.SearchRequest{
			Query:    rocketreach.SearchQuery{CompanyName: []string{p.CompanyName}},
			PageSize: p.Limit,
		}
		if p.Role != "" {
			req.Query.CurrentTitle = []string{p.Role}
		}
		resp, err := t.client.SearchPeople(ctx, t.tenantID, req)
		if err != nil {
			return errorResult("people search failed: %v", err), nil
		}
		return jsonResult(map[string]any{
			"search_type":   p.SearchType,
			"results":       resp.Profiles,
			"count":         len(resp.Profiles),
			"total_results": resp.Total,
		})

	default:
		return errorResult("invalid search_type %q", p.SearchType), nil
	}
}
