package audit

import (
	"context"
	"errors"
	"testing"

	"stakegov/internal/audit/domain"
)

// mockAuditRepo implements audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByActor(ctx context.Context, actor string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo)
	ctx := context.Background()

	logger.LogEvent(ctx, "alice", ParseSubject("stakegov.op.vote"), OutcomeOK, `{"proposal_id":3}`)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.Actor != "alice" {
		t.Errorf("actor = %q, want %q", entry.Actor, "alice")
	}
	if entry.Action != "vote" {
		t.Errorf("action = %q, want %q", entry.Action, "vote")
	}
	if entry.Resource != "proposal" {
		t.Errorf("resource = %q, want %q", entry.Resource, "proposal")
	}
	if entry.Outcome != OutcomeOK {
		t.Errorf("outcome = %q, want %q", entry.Outcome, OutcomeOK)
	}
	if entry.Metadata != `{"proposal_id":3}` {
		t.Errorf("metadata = %q", entry.Metadata)
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry CreatedAt should be set")
	}
}

func TestLogger_LogEvent_FailureOutcome(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo)
	ctx := context.Background()

	logger.LogEvent(ctx, "bob", ParseSubject("stakegov.op.execute"), "voting_still_active", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].Outcome != "voting_still_active" {
		t.Errorf("outcome = %q, want %q", repo.entries[0].Outcome, "voting_still_active")
	}
}

func TestLogger_LogEvent_SentinelActor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo)
	ctx := context.Background()

	logger.LogEvent(ctx, "", ParseSubject("stakegov.op.deposit"), OutcomeOK, "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].Actor != SentinelActor {
		t.Errorf("actor = %q, want %q", repo.entries[0].Actor, SentinelActor)
	}
}

func TestLogger_LogEvent_RepositoryError(t *testing.T) {
	repo := &mockAuditRepo{
		createErr: errors.New("database error"),
	}
	logger := NewLogger(repo)
	ctx := context.Background()

	// Should not panic or return error - best-effort logging
	logger.LogEvent(ctx, "alice", ParseSubject("stakegov.op.join"), OutcomeOK, "")
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	logger := NewLogger(nil)
	ctx := context.Background()

	// Should not panic - no-op when repo is nil
	logger.LogEvent(ctx, "alice", ParseSubject("stakegov.op.join"), OutcomeOK, "")
}
