package models

import "time"

// Lead is an enriched contact record saved by the agent or a search caller.
type Lead struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	LinkedIn  string    `json:"linkedin_url,omitempty"`
	Location  string    `json:"location,omitempty"`
	Source    string    `json:"source,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
