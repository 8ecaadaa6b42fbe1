package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"stakegov/internal/audit"
	"stakegov/internal/governance/domain"
	"stakegov/internal/governance/engine"
	"stakegov/internal/security"
)

// Subject prefixes for the request/reply boundary. Mutating operations
// live under the op prefix, read-only queries under the query prefix.
const (
	opPrefix    = "stakegov.op."
	queryPrefix = "stakegov.q."
)

// Boundary failures that have no governance sentinel. Their wire codes
// are part of the external contract, same as the domain codes.
var (
	errBadRequest   = errors.New("malformed request payload")
	errUnauthorized = errors.New("missing or invalid operator token")
)

// Service answers governance requests over NATS request/reply. Each
// subscription delivers messages in order; the engine serializes state
// access, so callers always observe fully committed operations.
type Service struct {
	engine  *engine.Engine
	tokens  *security.TokenProvider
	audit   audit.AuditLogger
	metrics *operationMetrics
}

// New builds a Service. tokens may be nil, in which case the
// administrative subjects (pause, unpause, admin_withdraw) are refused.
// auditLogger may be nil to disable audit writes.
func New(eng *engine.Engine, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *Service {
	return &Service{
		engine:  eng,
		tokens:  tokens,
		audit:   auditLogger,
		metrics: newOperationMetrics(),
	}
}

// Serve subscribes to the boundary subjects and blocks until ctx is
// cancelled. Subscriptions are drained on the way out so in-flight
// requests still get their replies.
func (s *Service) Serve(ctx context.Context, nc *nats.Conn) error {
	subs := make([]*nats.Subscription, 0, 2)
	for _, subject := range []string{opPrefix + ">", queryPrefix + ">"} {
		sub, err := nc.Subscribe(subject, s.respond)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	log.Printf("server: serving governance subjects on %s", nc.ConnectedUrl())
	<-ctx.Done()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			log.Printf("server: drain %s: %v", sub.Subject, err)
		}
	}
	return nil
}

func (s *Service) respond(msg *nats.Msg) {
	payload := s.Handle(context.Background(), msg.Subject, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(payload); err != nil {
		log.Printf("server: respond %s: %v", msg.Subject, err)
	}
}

// Handle dispatches one request and returns the marshaled reply
// envelope. It never returns an empty payload: every failure, including
// an unknown subject, is reported through the envelope's error field.
func (s *Service) Handle(ctx context.Context, subject string, data []byte) []byte {
	start := time.Now()
	op := operationSuffix(subject)

	result, actor, err := s.dispatch(ctx, subject, op, data)

	outcome := audit.OutcomeOK
	if err != nil {
		outcome = wireCode(err)
	}
	s.metrics.record(ctx, op, outcome, time.Since(start))
	if s.audit != nil && strings.HasPrefix(subject, opPrefix) && op != "ping" {
		if actor == "" {
			actor = audit.SentinelActor
		}
		s.audit.LogEvent(ctx, actor, audit.ParseSubject(subject), outcome, "")
	}

	if err != nil {
		return marshalEnvelope(envelope{OK: false, Error: &wireError{Code: wireCode(err), Message: err.Error()}})
	}
	return marshalEnvelope(envelope{OK: true, Result: result})
}

func (s *Service) dispatch(ctx context.Context, subject, op string, data []byte) (any, string, error) {
	switch {
	case strings.HasPrefix(subject, opPrefix):
		return s.dispatchOp(ctx, op, data)
	case strings.HasPrefix(subject, queryPrefix):
		result, err := s.dispatchQuery(ctx, op, data)
		return result, "", err
	}
	return nil, "", domain.ErrUnknownOperation
}

// operationSuffix returns the token after the last dot, used as the
// operation name for dispatch, metrics, and audit.
func operationSuffix(subject string) string {
	if i := strings.LastIndex(subject, "."); i >= 0 && i+1 < len(subject) {
		return subject[i+1:]
	}
	return subject
}

// operatorSubject validates the operator token and returns its subject
// as the acting identity for administrative operations.
func (s *Service) operatorSubject(token string) (string, error) {
	if s.tokens == nil || token == "" {
		return "", errUnauthorized
	}
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return "", errUnauthorized
	}
	return subject, nil
}

func wireCode(err error) string {
	switch {
	case errors.Is(err, errBadRequest):
		return "bad_request"
	case errors.Is(err, errUnauthorized):
		return "unauthorized"
	default:
		return domain.Code(err)
	}
}

type envelope struct {
	OK     bool       `json:"ok"`
	Result any        `json:"result,omitempty"`
	Error  *wireError `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func marshalEnvelope(env envelope) []byte {
	payload, err := json.Marshal(env)
	if err != nil {
		// Result types are plain structs; this cannot fail for them.
		log.Printf("server: marshal envelope: %v", err)
		return []byte(`{"ok":false,"error":{"code":"internal","message":"reply encoding failed"}}`)
	}
	return payload
}

func decode(data []byte, v any) error {
	if len(data) == 0 {
		return errBadRequest
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
