package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// MemoryStores returns a StoreSet backed entirely by memory, for tests and
// single-process development.
func MemoryStores() StoreSet {
	return StoreSet{
		Settings: NewMemorySettingsStore(),
		Usage:    NewMemoryUsageStore(),
		Audit:    NewMemoryAuditStore(),
		Tasks:    NewMemoryTaskStore(),
		Leads:    NewMemoryLeadStore(),
	}
}

// MemorySettingsStore provides an in-memory SettingsStore.
type MemorySettingsStore struct {
	mu      sync.RWMutex
	records map[string]*models.ProviderSettings
}

// NewMemorySettingsStore creates an in-memory settings store.
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{records: make(map[string]*models.ProviderSettings)}
}

func settingsKey(tenantID, provider string) string {
	return tenantID + "/" + provider
}

func (s *MemorySettingsStore) Get(ctx context.Context, tenantID, provider string) (*models.ProviderSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[settingsKey(tenantID, provider)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemorySettingsStore) Upsert(ctx context.Context, settings *models.ProviderSettings) error {
	if settings == nil || settings.TenantID == "" || settings.Provider == "" {
		return fmt.Errorf("settings with tenant and provider are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *settings
	s.records[settingsKey(settings.TenantID, settings.Provider)] = &cp
	return nil
}

func (s *MemorySettingsStore) Delete(ctx context.Context, tenantID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := settingsKey(tenantID, provider)
	if _, ok := s.records[key]; !ok {
		return ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// MemoryUsageStore provides an in-memory append-only UsageStore.
type MemoryUsageStore struct {
	mu      sync.RWMutex
	records []*models.UsageRecord
}

// NewMemoryUsageStore creates an in-memory usage store.
func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{}
}

func (s *MemoryUsageStore) Insert(ctx context.Context, record *models.UsageRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemoryUsageStore) List(ctx context.Context, tenantID string, limit int) ([]*models.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UsageRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if tenantID != "" && s.records[i].TenantID != tenantID {
			continue
		}
		cp := *s.records[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MemoryAuditStore provides an in-memory append-only AuditStore.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []*models.AuditEntry
}

// NewMemoryAuditStore creates an in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("entry with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *MemoryAuditStore) List(ctx context.Context, tenantID string, limit int) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AuditEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if tenantID != "" && s.entries[i].TenantID != tenantID {
			continue
		}
		cp := *s.entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MemoryTaskStore provides an in-memory TaskStore.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

// NewMemoryTaskStore creates an in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*models.Task)}
}

func (s *MemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return ErrAlreadyExists
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTask(task), nil
}

func (s *MemoryTaskStore) List(ctx context.Context, tenantID string, limit int) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]*models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if tenantID != "" && task.TenantID != tenantID {
			continue
		}
		tasks = append(tasks, copyTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *MemoryTaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus, upd TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	if upd.Result != nil {
		cp := *upd.Result
		task.Result = &cp
	}
	if upd.Error != "" {
		task.Error = upd.Error
	}
	if upd.StartedAt != nil {
		t := *upd.StartedAt
		task.StartedAt = &t
	}
	if upd.CompletedAt != nil {
		t := *upd.CompletedAt
		task.CompletedAt = &t
	}
	return nil
}

func (s *MemoryTaskStore) UpdateSteps(ctx context.Context, id string, steps []models.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Steps = append([]models.Step(nil), steps...)
	task.UpdatedAt = time.Now().UTC()
	return nil
}

func copyTask(task *models.Task) *models.Task {
	cp := *task
	cp.Steps = append([]models.Step(nil), task.Steps...)
	if task.Result != nil {
		r := *task.Result
		cp.Result = &r
	}
	if task.StartedAt != nil {
		t := *task.StartedAt
		cp.StartedAt = &t
	}
	if task.CompletedAt != nil {
		t := *task.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// MemoryLeadStore provides an in-memory LeadStore.
type MemoryLeadStore struct {
	mu    sync.RWMutex
	leads map[string]*models.Lead
}

// NewMemoryLeadStore creates an in-memory lead store.
func NewMemoryLeadStore() *MemoryLeadStore {
	return &MemoryLeadStore{leads: make(map[string]*models.Lead)}
}

func (s *MemoryLeadStore) Create(ctx context.Context, lead *models.Lead) error {
	if lead == nil || lead.ID == "" {
		return fmt.Errorf("lead with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[lead.ID]; exists {
		return ErrAlreadyExists
	}
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *MemoryLeadStore) Upsert(ctx context.Context, lead *models.Lead) (bool, error) {
	if lead == nil || lead.ID == "" {
		return false, fmt.Errorf("lead with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.Email != "" {
		for id, existing := range s.leads {
			if existing.TenantID == lead.TenantID && existing.Email == lead.Email {
				cp := *lead
				cp.ID = id
				cp.CreatedAt = existing.CreatedAt
				s.leads[id] = &cp
				lead.ID = id
				lead.CreatedAt = existing.CreatedAt
				return false, nil
			}
		}
	}
	cp := *lead
	s.leads[lead.ID] = &cp
	return true, nil
}

func (s *MemoryLeadStore) Get(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lead
	return &cp, nil
}

func (s *MemoryLeadStore) List(ctx context.Context, tenantID string, limit int) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := make([]*models.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if tenantID != "" && lead.TenantID != tenantID {
			continue
		}
		cp := *lead
		leads = append(leads, &cp)
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}
