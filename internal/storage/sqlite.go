package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// SQLiteConfig holds connection settings for the SQLite store.
type SQLiteConfig struct {
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultSQLiteConfig returns default configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		MaxOpenConns:    1,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// SQLiteStores implements the StoreSet interfaces on a single SQLite file.
// Structured fields (retry policy, credential envelope, steps, meta) are
// stored as JSON columns, matching the document-style contract.
type SQLiteStores struct {
	db *sql.DB
}

// NewSQLiteStores opens (and migrates) a SQLite database at path.
func NewSQLiteStores(path string, config *SQLiteConfig) (*SQLiteStores, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_fk=1",
		path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &SQLiteStores{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStoresFromDB wraps an existing database handle. Used by tests.
func NewSQLiteStoresFromDB(db *sql.DB) *SQLiteStores {
	return &SQLiteStores{db: db}
}

// StoreSet returns the interface bundle backed by this database. The shared
// receiver satisfies SettingsStore and UsageStore directly; the remaining
// interfaces are served through thin adapters because their method names
// collide on one receiver.
func (s *SQLiteStores) StoreSet() StoreSet {
	return StoreSet{
		Settings: s,
		Usage:    s,
		Audit:    sqliteAuditStore{s},
		Tasks:    sqliteTaskStore{s},
		Leads:    sqliteLeadStore{s},
		closer:   s.db.Close,
	}
}

type sqliteAuditStore struct{ s *SQLiteStores }

func (a sqliteAuditStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	return a.s.InsertAudit(ctx, entry)
}

func (a sqliteAuditStore) List(ctx context.Context, tenantID string, limit int) ([]*models.AuditEntry, error) {
	return a.s.ListAudit(ctx, tenantID, limit)
}

type sqliteTaskStore struct{ s *SQLiteStores }

func (t sqliteTaskStore) Create(ctx context.Context, task *models.Task) error {
	return t.s.CreateTask(ctx, task)
}

func (t sqliteTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	return t.s.GetTask(ctx, id)
}

func (t sqliteTaskStore) List(ctx context.Context, tenantID string, limit int) ([]*models.Task, error) {
	return t.s.ListTasks(ctx, tenantID, limit)
}

func (t sqliteTaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus, upd TaskUpdate) error {
	return t.s.UpdateTaskStatus(ctx, id, status, upd)
}

func (t sqliteTaskStore) UpdateSteps(ctx context.Context, id string, steps []models.Step) error {
	return t.s.UpdateTaskSteps(ctx, id, steps)
}

type sqliteLeadStore struct{ s *SQLiteStores }

func (l sqliteLeadStore) Create(ctx context.Context, lead *models.Lead) error {
	return l.s.CreateLead(ctx, lead)
}

func (l sqliteLeadStore) Get(ctx context.Context, id string) (*models.Lead, error) {
	return l.s.GetLead(ctx, id)
}

func (l sqliteLeadStore) List(ctx context.Context, tenantID string, limit int) ([]*models.Lead, error) {
	return l.s.ListLeads(ctx, tenantID, limit)
}

func (l sqliteLeadStore) Upsert(ctx context.Context, lead *models.Lead) (bool, error) {
	return l.s.UpsertLead(ctx, lead)
}

// Close releases database resources.
func (s *SQLiteStores) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStores) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS provider_settings (
			tenant_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			is_enabled INTEGER NOT NULL DEFAULT 1,
			base_url TEXT NOT NULL DEFAULT '',
			api_key_encrypted TEXT NOT NULL DEFAULT '{}',
			daily_limit INTEGER NOT NULL DEFAULT 0,
			concurrency INTEGER NOT NULL DEFAULT 0,
			retry_policy TEXT NOT NULL DEFAULT '{}',
			version INTEGER NOT NULL DEFAULT 1,
			updated_by TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (tenant_id, provider)
		)`,
		`CREATE TABLE IF NOT EXISTS usage_records (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			units INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_tenant_created
			ON usage_records (tenant_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			actor_id TEXT NOT NULL DEFAULT '',
			actor_email TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			target_id TEXT NOT NULL DEFAULT '',
			meta TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_tenant_created
			ON audit_entries (tenant_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS agent_tasks (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			prompt TEXT NOT NULL,
			status TEXT NOT NULL,
			steps TEXT NOT NULL DEFAULT '[]',
			result TEXT,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			started_at TIMESTAMP,
			completed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_tenant_created
			ON agent_tasks (tenant_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_tenant_created
			ON leads (tenant_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get implements SettingsStore.
func (s *SQLiteStores) Get(ctx context.Context, tenantID, provider string) (*models.ProviderSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, provider, is_enabled, base_url, api_key_encrypted,
			daily_limit, concurrency, retry_policy, version, updated_by, updated_at
		FROM provider_settings WHERE tenant_id = ? AND provider = ?
	`, tenantID, provider)

	var rec models.ProviderSettings
	var keyJSON, policyJSON string
	err := row.Scan(&rec.TenantID, &rec.Provider, &rec.IsEnabled, &rec.BaseURL,
		&keyJSON, &rec.DailyLimit, &rec.Concurrency, &policyJSON,
		&rec.Version, &rec.UpdatedBy, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if err := json.Unmarshal([]byte(keyJSON), &rec.APIKeyEncrypted); err != nil {
		return nil, fmt.Errorf("unmarshal credential envelope: %w", err)
	}
	if err := json.Unmarshal([]byte(policyJSON), &rec.RetryPolicy); err != nil {
		return nil, fmt.Errorf("unmarshal retry policy: %w", err)
	}
	return &rec, nil
}

// Upsert implements SettingsStore.
func (s *SQLiteStores) Upsert(ctx context.Context, settings *models.ProviderSettings) error {
	if settings == nil || settings.TenantID == "" || settings.Provider == "" {
		return fmt.Errorf("settings with tenant and provider are required")
	}
	keyJSON, err := json.Marshal(settings.APIKeyEncrypted)
	if err != nil {
		return fmt.Errorf("marshal credential envelope: %w", err)
	}
	policyJSON, err := json.Marshal(settings.RetryPolicy)
	if err != nil {
		return fmt.Errorf("marshal retry policy: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO provider_settings (
			tenant_id, provider, is_enabled, base_url, api_key_encrypted,
			daily_limit, concurrency, retry_policy, version, updated_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, provider) DO UPDATE SET
			is_enabled = excluded.is_enabled,
			base_url = excluded.base_url,
			api_key_encrypted = excluded.api_key_encrypted,
			daily_limit = excluded.daily_limit,
			concurrency = excluded.concurrency,
			retry_policy = excluded.retry_policy,
			version = excluded.version,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
	`, settings.TenantID, settings.Provider, settings.IsEnabled, settings.BaseURL,
		string(keyJSON), settings.DailyLimit, settings.Concurrency, string(policyJSON),
		settings.Version, settings.UpdatedBy, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Delete implements SettingsStore.
func (s *SQLiteStores) Delete(ctx context.Context, tenantID, provider string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM provider_settings WHERE tenant_id = ? AND provider = ?`,
		tenantID, provider)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert implements UsageStore.
func (s *SQLiteStores) Insert(ctx context.Context, record *models.UsageRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, tenant_id, provider, endpoint, method, units, status,
			duration_ms, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.TenantID, record.Provider, record.Endpoint,
		record.Method, record.Units, string(record.Status),
		record.DurationMs, record.Error, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// List implements UsageStore.
func (s *SQLiteStores) List(ctx context.Context, tenantID string, limit int) ([]*models.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, provider, endpoint, method, units, status,
			duration_ms, error, created_at
		FROM usage_records WHERE tenant_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	defer rows.Close()

	var out []*models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.Provider, &rec.Endpoint,
			&rec.Method, &rec.Units, &status, &rec.DurationMs, &rec.Error,
			&rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.Status = models.UsageStatus(status)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// InsertAudit implements AuditStore.Insert. Named methods avoid colliding
// with the usage Insert on the shared receiver.
func (s *SQLiteStores) InsertAudit(ctx context.Context, entry *models.AuditEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("entry with id is required")
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("marshal audit meta: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, tenant_id, actor_id, actor_email, action, target, target_id,
			meta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TenantID, entry.ActorID, entry.ActorEmail, entry.Action,
		entry.Target, entry.TargetID, string(metaJSON), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAudit implements AuditStore.List.
func (s *SQLiteStores) ListAudit(ctx context.Context, tenantID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, actor_id, actor_email, action, target, target_id,
			meta, created_at
		FROM audit_entries WHERE tenant_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var metaJSON string
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.ActorID,
			&entry.ActorEmail, &entry.Action, &entry.Target, &entry.TargetID,
			&metaJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if metaJSON != "" && metaJSON != "null" {
			if err := json.Unmarshal([]byte(metaJSON), &entry.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal audit meta: %w", err)
			}
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// CreateTask implements TaskStore.Create.
func (s *SQLiteStores) CreateTask(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task with id is required")
	}
	stepsJSON, err := json.Marshal(task.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	var resultJSON any
	if task.Result != nil {
		data, err := json.Marshal(task.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(data)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_tasks (
			id, tenant_id, user_id, type, prompt, status, steps, result,
			error, created_at, updated_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.TenantID, task.UserID, string(task.Type), task.Prompt,
		string(task.Status), string(stepsJSON), resultJSON, task.Error,
		task.CreatedAt, task.UpdatedAt, nullableTime(task.StartedAt),
		nullableTime(task.CompletedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask implements TaskStore.Get.
func (s *SQLiteStores) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, type, prompt, status, steps, result,
			error, created_at, updated_at, started_at, completed_at
		FROM agent_tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// ListTasks implements TaskStore.List.
func (s *SQLiteStores) ListTasks(ctx context.Context, tenantID string, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, type, prompt, status, steps, result,
			error, created_at, updated_at, started_at, completed_at
		FROM agent_tasks WHERE tenant_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// UpdateTaskStatus implements TaskStore.UpdateStatus.
func (s *SQLiteStores) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, upd TaskUpdate) error {
	var resultJSON any
	if upd.Result != nil {
		data, err := json.Marshal(upd.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(data)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE agent_tasks SET
			status = ?,
			updated_at = ?,
			result = COALESCE(?, result),
			error = CASE WHEN ? != '' THEN ? ELSE error END,
			started_at = COALESCE(?, started_at),
			completed_at = COALESCE(?, completed_at)
		WHERE id = ?
	`, string(status), time.Now().UTC(), resultJSON, upd.Error, upd.Error,
		nullableTime(upd.StartedAt), nullableTime(upd.CompletedAt), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTaskSteps implements TaskStore.UpdateSteps.
func (s *SQLiteStores) UpdateTaskSteps(ctx context.Context, id string, steps []models.Step) error {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE agent_tasks SET steps = ?, updated_at = ? WHERE id = ?
	`, string(stepsJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update task steps: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLead implements LeadStore.Create.
func (s *SQLiteStores) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead == nil || lead.ID == "" {
		return fmt.Errorf("lead with id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, tenant_id, user_id, name, title, company, email, phone,
			linkedin_url, location, source, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID, lead.TenantID, lead.UserID, lead.Name, lead.Title, lead.Company,
		lead.Email, lead.Phone, lead.LinkedIn, lead.Location, lead.Source,
		lead.Notes, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// UpsertLead implements LeadStore.Upsert. The tenant's existing lead with
// the same email is updated in place; otherwise a new row is inserted.
func (s *SQLiteStores) UpsertLead(ctx context.Context, lead *models.Lead) (bool, error) {
	if lead == nil || lead.ID == "" {
		return false, fmt.Errorf("lead with id is required")
	}
	if lead.Email != "" {
		var existingID string
		var createdAt time.Time
		err := s.db.QueryRowContext(ctx, `
			SELECT id, created_at FROM leads WHERE tenant_id = ? AND email = ?
		`, lead.TenantID, lead.Email).Scan(&existingID, &createdAt)
		switch {
		case err == nil:
			_, err = s.db.ExecContext(ctx, `
				UPDATE leads SET user_id = ?, name = ?, title = ?, company = ?,
					phone = ?, linkedin_url = ?, location = ?, source = ?,
					notes = ?, updated_at = ?
				WHERE id = ?
			`, lead.UserID, lead.Name, lead.Title, lead.Company, lead.Phone,
				lead.LinkedIn, lead.Location, lead.Source, lead.Notes,
				lead.UpdatedAt, existingID)
			if err != nil {
				return false, fmt.Errorf("update lead: %w", err)
			}
			lead.ID = existingID
			lead.CreatedAt = createdAt
			return false, nil
		case !errors.Is(err, sql.ErrNoRows):
			return false, fmt.Errorf("find lead: %w", err)
		}
	}
	if err := s.CreateLead(ctx, lead); err != nil {
		return false, err
	}
	return true, nil
}

// GetLead implements LeadStore.Get.
func (s *SQLiteStores) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, name, title, company, email, phone,
			linkedin_url, location, source, notes, created_at, updated_at
		FROM leads WHERE id = ?
	`, id)
	var lead models.Lead
	err := row.Scan(&lead.ID, &lead.TenantID, &lead.UserID, &lead.Name,
		&lead.Title, &lead.Company, &lead.Email, &lead.Phone, &lead.LinkedIn,
		&lead.Location, &lead.Source, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return &lead, nil
}

// ListLeads implements LeadStore.List.
func (s *SQLiteStores) ListLeads(ctx context.Context, tenantID string, limit int) ([]*models.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, name, title, company, email, phone,
			linkedin_url, location, source, notes, created_at, updated_at
		FROM leads WHERE tenant_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*models.Lead
	for rows.Next() {
		var lead models.Lead
		if err := rows.Scan(&lead.ID, &lead.TenantID, &lead.UserID, &lead.Name,
			&lead.Title, &lead.Company, &lead.Email, &lead.Phone, &lead.LinkedIn,
			&lead.Location, &lead.Source, &lead.Notes, &lead.CreatedAt,
			&lead.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, &lead)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var taskType, status, stepsJSON string
	var resultJSON sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&task.ID, &task.TenantID, &task.UserID, &taskType,
		&task.Prompt, &status, &stepsJSON, &resultJSON, &task.Error,
		&task.CreatedAt, &task.UpdatedAt, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Type = models.TaskType(taskType)
	task.Status = models.TaskStatus(status)
	if err := json.Unmarshal([]byte(stepsJSON), &task.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var result models.TaskResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		task.Result = &result
	}
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
