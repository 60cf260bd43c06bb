package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haasonsaas/leadflow/internal/audit"
	"github.com/haasonsaas/leadflow/internal/storage"
	"github.com/haasonsaas/leadflow/internal/vault"
	"github.com/haasonsaas/leadflow/pkg/models"
)

// failingAuditStore rejects every insert so tests can exercise the mutation
// path while the audit sink is down.
type failingAuditStore struct{}

func (failingAuditStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	return errors.New("audit store down")
}

func (failingAuditStore) List(ctx context.Context, tenantID string, limit int) ([]*models.AuditEntry, error) {
	return nil, nil
}

func TestUpsertRotatesKey(t *testing.T) {
	v := vault.New("test-passphrase")
	store := storage.NewMemorySettingsStore()
	seedSettings(t, store, v, "tenant-1", "old-key")

	resolver := NewResolver("rocketreach", store, v, NewTTLCache(time.Minute), nil)
	recorder := audit.NewRecorder(storage.NewMemoryAuditStore(), nil)
	admin := NewAdmin("rocketreach", store, v, resolver, recorder)

	record, err := admin.Upsert(context.Background(), "tenant-1", audit.Actor{ID: "admin-1"}, UpsertInput{
		IsEnabled: true,
		APIKey:    "new-key",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if record.Version != 2 {
		t.Errorf("Version = %d, want 2", record.Version)
	}

	resolved, err := resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.APIKey != "new-key" {
		t.Errorf("APIKey = %q, want %q", resolved.APIKey, "new-key")
	}
}

func TestUpsertInvalidatesCacheWhenAuditFails(t *testing.T) {
	v := vault.New("test-passphrase")
	store := storage.NewMemorySettingsStore()
	seedSettings(t, store, v, "tenant-1", "old-key")

	resolver := NewResolver("rocketreach", store, v, NewTTLCache(time.Minute), nil)
	admin := NewAdmin("rocketreach", store, v, resolver, audit.NewRecorder(failingAuditStore{}, nil))

	// Prime the cache with the old credentials.
	resolved, err := resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.APIKey != "old-key" {
		t.Fatalf("APIKey = %q, want %q", resolved.APIKey, "old-key")
	}

	_, err = admin.Upsert(context.Background(), "tenant-1", audit.Actor{ID: "admin-1"}, UpsertInput{
		IsEnabled: true,
		APIKey:    "new-key",
	})
	if err == nil {
		t.Fatal("Upsert() should surface the audit failure")
	}

	// The durable record was rotated before the audit write failed, so the
	// resolver must not keep serving the old key out of the cache.
	resolved, err = resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Resolve() after rotation error = %v", err)
	}
	if resolved.APIKey != "new-key" {
		t.Errorf("APIKey = %q after rotation, want %q", resolved.APIKey, "new-key")
	}
}

func TestDeleteInvalidatesCacheWhenAuditFails(t *testing.T) {
	v := vault.New("test-passphrase")
	store := storage.NewMemorySettingsStore()
	seedSettings(t, store, v, "tenant-1", "rr-key")

	resolver := NewResolver("rocketreach", store, v, NewTTLCache(time.Minute), nil)
	admin := NewAdmin("rocketreach", store, v, resolver, audit.NewRecorder(failingAuditStore{}, nil))

	if _, err := resolver.Resolve(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if err := admin.Delete(context.Background(), "tenant-1", audit.Actor{ID: "admin-1"}); err == nil {
		t.Fatal("Delete() should surface the audit failure")
	}

	_, err := resolver.Resolve(context.Background(), "tenant-1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Resolve() after delete error = %v, want ErrNotConfigured", err)
	}
}
