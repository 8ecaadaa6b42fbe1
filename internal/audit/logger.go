package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"stakegov/internal/audit/domain"
	auditrepo "stakegov/internal/audit/repository"
)

// SentinelActor is the actor recorded for operations with no caller identity
// (e.g. bare treasury transfers observed on the deposit subject).
const SentinelActor = "_system"

// OutcomeOK is recorded when an operation succeeds; failures record the
// operation's wire error code instead.
const OutcomeOK = "ok"

// AuditLogger is the audit surface the server depends on. LogEvent is
// best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actor string, ar ActionResource, outcome, metadata string)
	ListByActor(ctx context.Context, actor string, limit, offset int32) ([]*domain.AuditLog, error)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

var _ AuditLogger = (*Logger)(nil)

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, actor string, ar ActionResource, outcome, metadata string) {
	if l.repo == nil {
		return
	}
	if actor == "" {
		actor = SentinelActor
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    ar.Action,
		Resource:  ar.Resource,
		Outcome:   outcome,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", ar.Action, outcome, err)
	}
}

// ListByActor returns audit entries for the actor, newest first. Returns
// nil when no repository is configured.
func (l *Logger) ListByActor(ctx context.Context, actor string, limit, offset int32) ([]*domain.AuditLog, error) {
	if l.repo == nil {
		return nil, nil
	}
	return l.repo.ListByActor(ctx, actor, limit, offset)
}
