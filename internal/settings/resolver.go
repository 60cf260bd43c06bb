// Package settings resolves per-tenant provider configuration: the durable
// settings record, decrypted credential, and retry policy, cached with a
// short TTL so an outbound call does not pay a store read plus a PBKDF2
// decrypt every time.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/haasonsaas/leadflow/internal/retry"
	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/internal/vault"
)

var (
	// ErrNotConfigured indicates the tenant has no settings record for the
	// provider, or the provider is disabled. Never retried.
	ErrNotConfigured = errors.New("provider not configured for tenant")

	// ErrMissingCredential indicates the settings record exists but the
	// decrypted API key is empty.
	ErrMissingCredential = errors.New("provider API key not configured")
)

// Defaults applied when a settings record leaves fields at their zero value,
// matching the provider's documented limits.
const (
	DefaultBaseURL     = "https://api.rocketreach.co"
	DefaultConcurrency = 2
	DefaultCacheTTL    = 60 * time.Second
)

// Resolved is the value object handed to the API client: everything needed
// to issue a call, with the credential already decrypted.
type Resolved struct {
	TenantID    string
	Provider    string
	BaseURL     string
	APIKey      string
	Concurrency int
	DailyLimit  int
	RetryPolicy retry.Policy
}

// Resolver loads and caches per-tenant provider settings.
type Resolver struct {
	provider string
	store    storage.SettingsStore
	vault    *vault.Vault
	cache    Cache
	logger   *slog.Logger
}

// NewResolver creates a resolver for one provider kind. A nil cache gets the
// default TTL cache.
func NewResolver(provider string, store storage.SettingsStore, v *vault.Vault, cache Cache, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = NewTTLCache(DefaultCacheTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		provider: provider,
		store:    store,
		vault:    v,
		cache:    cache,
		logger:   logger.With("component", "settings", "provider", provider),
	}
}

// Resolve returns the tenant's resolved settings, from cache when fresh.
// On miss or expiry it re-reads the durable record and re-decrypts the key.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*Resolved, error) {
	if cached, ok := r.cache.Get(tenantID); ok {
		return cached, nil
	}

	record, err := r.store.Get(ctx, tenantID, r.provider)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: tenant %s", ErrNotConfigured, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !record.IsEnabled {
		return nil, fmt.Errorf("%w: disabled for tenant %s", ErrNotConfigured, tenantID)
	}

	apiKey := ""
	if !record.APIKeyEncrypted.IsZero() {
		apiKey, err = r.vault.Decrypt(record.APIKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt provider key: %w", err)
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tenant %s", ErrMissingCredential, tenantID)
	}

	resolved := &Resolved{
		TenantID:    tenantID,
		Provider:    r.provider,
		BaseURL:     record.BaseURL,
		APIKey:      apiKey,
		Concurrency: record.Concurrency,
		DailyLimit:  record.DailyLimit,
		RetryPolicy: retry.Policy{
			MaxRetries: record.RetryPolicy.MaxRetries,
			BaseDelay:  time.Duration(record.RetryPolicy.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(record.RetryPolicy.MaxDelayMs) * time.Millisecond,
		},
	}
	applyDefaults(resolved)

	r.cache.Set(tenantID, resolved)
	r.logger.Debug("resolved provider settings", "tenant_id", tenantID, "version", record.Version)
	return resolved, nil
}

// ClearCache drops one tenant's cached entry so the next call re-resolves.
// Required after a key rotation; without it stale credentials could be used
// for up to one TTL window.
func (r *Resolver) ClearCache(tenantID string) {
	r.cache.Delete(tenantID)
}

// ClearAll drops every cached entry.
func (r *Resolver) ClearAll() {
	r.cache.Clear()
}

func applyDefaults(resolved *Resolved) {
	if resolved.BaseURL == "" {
		resolved.BaseURL = DefaultBaseURL
	}
	if resolved.Concurrency <= 0 {
		resolved.Concurrency = DefaultConcurrency
	}
	def := retry.DefaultPolicy()
	if resolved.RetryPolicy.MaxRetries <= 0 {
		resolved.RetryPolicy.MaxRetries = def.MaxRetries
	}
	if resolved.RetryPolicy.BaseDelay <= 0 {
		resolved.RetryPolicy.BaseDelay = def.BaseDelay
	}
	if resolved.RetryPolicy.MaxDelay <= 0 {
		resolved.RetryPolicy.MaxDelay = def.MaxDelay
	}
}
