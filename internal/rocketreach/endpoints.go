package rocketreach

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SearchQuery is the people-search filter set. Each field is a list of
// accepted values, matching the API's array-of-strings query shape.
type SearchQuery struct {
	Name         []string `json:"name,omitempty"`
	CurrentTitle []string `json:"current_title,omitempty"`
	CompanyName  []string `json:"current_employer,omitempty"`
	Location     []string `json:"location,omitempty"`
	Industry     []string `json:"industry,omitempty"`
	Keyword      []string `json:"keyword,omitempty"`
}

// SearchRequest pages through people-search results.
type SearchRequest struct {
	Query    SearchQuery `json:"query"`
	Start    int         `json:"start,omitempty"`
	PageSize int         `json:"page_size,omitempty"`
}

// Person is a single profile as returned by search and lookup endpoints.
// Unrecognized fields are preserved nowhere; callers needing the full wire
// payload use Client.Call directly.
type Person struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	CurrentTitle    string `json:"current_title"`
	CurrentEmployer string `json:"current_employer"`
	Location        string `json:"location"`
	LinkedInURL     string `json:"linkedin_url"`
	CurrentEmail    string `json:"current_work_email"`
	Status          string `json:"status"`
}

// SearchResponse is a page of search results.
type SearchResponse struct {
	Profiles []Person `json:"profiles"`
	Total    int      `json:"total"`
}

// EmailLookupRequest identifies a person for email resolution.
type EmailLookupRequest struct {
	ProfileID   int    `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	CompanyName string `json:"current_employer,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// EmailLookupResponse carries resolved contact emails.
type EmailLookupResponse struct {
	ID     int     `json:"id"`
	Emails []Email `json:"emails"`
	Status string  `json:"status"`
}

// Email is a single resolved address with its validation grade.
type Email struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	Grade string `json:"grade"`
}

// BulkLookupRequest resolves multiple profiles in one call.
type BulkLookupRequest struct {
	Queries []EmailLookupRequest `json:"queries"`
}

// SearchPeople runs a paged people search.
func (c *Client) SearchPeople(ctx context.Context, tenantID string, req SearchRequest) (*SearchResponse, error) {
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	raw, err := c.Call(ctx, tenantID, "/api/v2/search", CallOptions{
		Method: "POST",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	var out SearchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}

// LookupProfile fetches one profile by its RocketReach ID.
func (c *Client) LookupProfile(ctx context.Context, tenantID string, profileID int) (*Person, error) {
	raw, err := c.Call(ctx, tenantID, "/api/v2/person/lookup", CallOptions{
		Query: url.Values{"id": {strconv.Itoa(profileID)}},
	})
	if err != nil {
		return nil, err
	}
	var out Person
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &out, nil
}

// LookupEmail resolves work emails for one person.
func (c *Client) LookupEmail(ctx context.Context, tenantID string, req EmailLookupRequest) (*EmailLookupResponse, error) {
	raw, err := c.Call(ctx, tenantID, "/v2/api/lookupEmail", CallOptions{
		Method: "POST",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	var out EmailLookupResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode email lookup: %w", err)
	}
	return &out, nil
}

// BulkLookup resolves several profiles in one request.
func (c *Client) BulkLookup(ctx context.Context, tenantID string, req BulkLookupRequest) ([]EmailLookupResponse, error) {
	raw, err := c.Call(ctx, tenantID, "/v2/api/bulk/lookup", CallOptions{
		Method: "POST",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	var out []EmailLookupResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode bulk lookup: %w", err)
	}
	return out, nil
}
