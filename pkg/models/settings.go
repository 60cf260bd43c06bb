package models

import "time"

// RetryPolicy bounds the retry behavior of outbound provider calls.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelayMs is the delay before the first retry, in milliseconds.
	BaseDelayMs int `json:"base_delay_ms" yaml:"base_delay_ms"`

	// MaxDelayMs caps the computed backoff delay, in milliseconds.
	// The cap applies before jitter is added.
	MaxDelayMs int `json:"max_delay_ms" yaml:"max_delay_ms"`
}

// ProviderSettings holds one tenant's configuration for an external provider.
// There is exactly one record per (tenant, provider kind) pair; it is mutated
// only through the administrative update path and read by the settings
// resolver.
type ProviderSettings struct {
	// TenantID identifies the owning tenant.
	TenantID string `json:"tenant_id"`

	// Provider is the provider kind, e.g. "rocketreach".
	Provider string `json:"provider"`

	// IsEnabled gates client construction. A disabled provider fails fast.
	IsEnabled bool `json:"is_enabled"`

	// BaseURL is the provider API base URL.
	BaseURL string `json:"base_url"`

	// APIKeyEncrypted is the credential envelope for the provider API key.
	APIKeyEncrypted EncryptedSecret `json:"api_key_encrypted"`

	// DailyLimit is the tenant's daily call budget.
	DailyLimit int `json:"daily_limit"`

	// Concurrency bounds concurrent in-flight calls for the tenant.
	Concurrency int `json:"concurrency"`

	// RetryPolicy bounds the client retry loop.
	RetryPolicy RetryPolicy `json:"retry_policy"`

	// Version increments on every administrative update.
	Version int `json:"version"`

	// UpdatedBy is the actor of the last administrative update.
	UpdatedBy string `json:"updated_by,omitempty"`

	// UpdatedAt is the time of the last administrative update.
	UpdatedAt time.Time `json:"updated_at"`
}
