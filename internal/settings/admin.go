package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haasonsaas/leadflow/internal/audit"
	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/internal/vault"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// Admin is the only write path for provider settings. Every mutation
// encrypts the credential through the vault, bumps the record version,
// records an audit entry, and invalidates the resolver cache so a rotated
// key takes effect immediately instead of after a TTL window.
type Admin struct {
	provider string
	store    storage.SettingsStore
	vault    *vault.Vault
	resolver *Resolver
	audit    *audit.Recorder
}

// NewAdmin creates the administrative settings path for one provider kind.
func NewAdmin(provider string, store storage.SettingsStore, v *vault.Vault, resolver *Resolver, recorder *audit.Recorder) *Admin {
	return &Admin{
		provider: provider,
		store:    store,
		vault:    v,
		resolver: resolver,
		audit:    recorder,
	}
}

// UpsertInput carries the admin-editable settings fields. An empty APIKey
// keeps the stored envelope.
type UpsertInput struct {
	IsEnabled   bool
	BaseURL     string
	APIKey      string
	DailyLimit  int
	Concurrency int
	RetryPolicy models.RetryPolicy
}

// Upsert creates or updates the tenant's settings record.
func (a *Admin) Upsert(ctx context.Context, tenantID string, actor audit.Actor, in UpsertInput) (*models.ProviderSettings, error) {
	existing, err := a.store.Get(ctx, tenantID, a.provider)
	action := models.AuditProviderUpdated
	version := 1
	envelope := models.EncryptedSecret{}

	switch {
	case err == nil:
		version = existing.Version + 1
		envelope = existing.APIKeyEncrypted
	case errors.Is(err, storage.ErrNotFound):
		action = models.AuditProviderCreated
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if in.APIKey != "" {
		// A new key gets a fresh envelope; ciphertext is never mutated in
		// place.
		envelope, err = a.vault.Encrypt(in.APIKey)
		if err != nil {
			return nil, fmt.Errorf("encrypt provider key: %w", err)
		}
	}

	record := &models.ProviderSettings{
		TenantID:        tenantID,
		Provider:        a.provider,
		IsEnabled:       in.IsEnabled,
		BaseURL:         in.BaseURL,
		APIKeyEncrypted: envelope,
		DailyLimit:      in.DailyLimit,
		Concurrency:     in.Concurrency,
		RetryPolicy:     in.RetryPolicy,
		Version:         version,
		UpdatedBy:       actor.ID,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := a.store.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store settings: %w", err)
	}
	// The durable record changed, so the cache must be invalidated even when
	// the audit write below fails; otherwise the resolver keeps serving the
	// old credentials for a full TTL window.
	defer a.resolver.ClearCache(tenantID)

	if err := a.audit.Record(ctx, tenantID, actor, action, "provider_settings", a.provider, map[string]any{
		"version":     version,
		"is_enabled":  in.IsEnabled,
		"key_rotated": in.APIKey != "",
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the tenant's settings record and its credential envelope.
func (a *Admin) Delete(ctx context.Context, tenantID string, actor audit.Actor) error {
	if err := a.store.Delete(ctx, tenantID, a.provider); err != nil {
		return err
	}
	defer a.resolver.ClearCache(tenantID)
	return a.audit.Record(ctx, tenantID, actor, models.AuditProviderDeleted, "provider_settings", a.provider, nil)
}
