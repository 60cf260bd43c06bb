package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/haasonsaas/leadflow/pkg/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SQLiteStores) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock, NewSQLiteStoresFromDB(db)
}

func TestSQLiteStores_UpsertSettings(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	settings := &models.ProviderSettings{
		TenantID:  "t1",
		Provider:  "rocketreach",
		IsEnabled: true,
		BaseURL:   "https://api.rocketreach.co",
		APIKeyEncrypted: models.EncryptedSecret{
			Cipher:  "c2VjcmV0",
			Version: 0,
		},
		Concurrency: 2,
		RetryPolicy: models.RetryPolicy{MaxRetries: 5, BaseDelayMs: 500, MaxDelayMs: 30000},
		Version:     1,
		UpdatedAt:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO provider_settings").
		WithArgs(
			"t1",
			"rocketreach",
			true,
			"https://api.rocketreach.co",
			sqlmock.AnyArg(), // credential envelope JSON
			0,
			2,
			sqlmock.AnyArg(), // retry policy JSON
			1,
			"",
			sqlmock.AnyArg(), // updated_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Upsert(context.Background(), settings); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStores_GetSettings_NotFound(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM provider_settings").
		WithArgs("t1", "rocketreach").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "t1", "rocketreach")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStores_GetSettings(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"tenant_id", "provider", "is_enabled", "base_url", "api_key_encrypted",
		"daily_limit", "concurrency", "retry_policy", "version", "updated_by", "updated_at",
	}).AddRow(
		"t1", "rocketreach", true, "https://api.rocketreach.co",
		`{"cipher":"c2VjcmV0","ver":0}`,
		1000, 2, `{"max_retries":5,"base_delay_ms":500,"max_delay_ms":30000}`,
		3, "admin@acme.example", now,
	)
	mock.ExpectQuery("SELECT (.+) FROM provider_settings").
		WithArgs("t1", "rocketreach").
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), "t1", "rocketreach")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RetryPolicy.MaxRetries != 5 || got.RetryPolicy.BaseDelayMs != 500 {
		t.Errorf("unexpected retry policy: %+v", got.RetryPolicy)
	}
	if got.APIKeyEncrypted.Cipher != "c2VjcmV0" || got.APIKeyEncrypted.Version != 0 {
		t.Errorf("unexpected envelope: %+v", got.APIKeyEncrypted)
	}
	if got.Version != 3 {
		t.Errorf("expected version 3, got %d", got.Version)
	}
}

func TestSQLiteStores_InsertUsage(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	rec := &models.UsageRecord{
		ID:         "u1",
		TenantID:   "t1",
		Provider:   "rocketreach",
		Endpoint:   "/api/v2/search",
		Method:     "POST",
		Units:      1,
		Status:     models.UsageSuccess,
		DurationMs: 240,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO usage_records").
		WithArgs("u1", "t1", "rocketreach", "/api/v2/search", "POST", 1,
			"success", int64(240), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStores_TaskRoundTrip(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	task := &models.Task{
		ID:        "task-1",
		TenantID:  "t1",
		UserID:    "u1",
		Type:      models.TaskResearch,
		Prompt:    "research Acme",
		Status:    models.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO agent_tasks").
		WithArgs("task-1", "t1", "u1", "research", "research Acme", "pending",
			"[]", nil, "", sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "user_id", "type", "prompt", "status", "steps",
		"result", "error", "created_at", "updated_at", "started_at", "completed_at",
	}).AddRow(
		"task-1", "t1", "u1", "research", "research Acme", "completed",
		`[{"step_number":1,"tool_name":"thinking","timestamp":"2026-01-02T15:04:05Z","duration_ms":120}]`,
		`{"text":"summary","finish_reason":"stop"}`, "", now, now, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM agent_tasks WHERE id").
		WithArgs("task-1").
		WillReturnRows(rows)

	got, err := store.GetTask(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != models.TaskCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if len(got.Steps) != 1 || got.Steps[0].ToolName != "thinking" {
		t.Errorf("unexpected steps: %+v", got.Steps)
	}
	if got.Result == nil || got.Result.Text != "summary" {
		t.Errorf("unexpected result: %+v", got.Result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStores_UpdateTaskSteps(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	steps := []models.Step{
		{StepNumber: 1, ToolName: "search_leads", Timestamp: time.Now(), DurationMs: 350},
	}

	mock.ExpectExec("UPDATE agent_tasks SET steps").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateTaskSteps(context.Background(), "task-1", steps); err != nil {
		t.Fatalf("UpdateTaskSteps: %v", err)
	}

	mock.ExpectExec("UPDATE agent_tasks SET steps").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.UpdateTaskSteps(context.Background(), "missing", steps); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStores_InsertAudit(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	entry := &models.AuditEntry{
		ID:       "a1",
		TenantID: "t1",
		ActorID:  "u1",
		Action:   models.AuditProviderUpdated,
		Target:   "provider_settings",
		TargetID: "rocketreach",
		Meta:     map[string]any{"version": 2},
	}
	entry.CreatedAt = time.Now()

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs("a1", "t1", "u1", "", models.AuditProviderUpdated,
			"provider_settings", "rocketreach", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.InsertAudit(context.Background(), entry); err != nil {
		t.Fatalf("InsertAudit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
