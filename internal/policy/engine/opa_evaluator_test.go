package engine

import (
	"context"
	"testing"
)

func newEvaluator(t *testing.T) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestAuthorizeDefaultPolicy(t *testing.T) {
	e := newEvaluator(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     Input
		allow  bool
		reason string
	}{
		{"member op while running", Input{Operation: "vote", Caller: "alice", Owner: "owner"}, true, ""},
		{"member op while paused", Input{Operation: "vote", Caller: "alice", Owner: "owner", Paused: true}, false, "paused"},
		{"deposit while paused", Input{Operation: "deposit", Caller: "alice", Owner: "owner", Paused: true}, false, "paused"},
		{"pause by owner", Input{Operation: "pause", Caller: "owner", Owner: "owner"}, true, ""},
		{"pause by stranger", Input{Operation: "pause", Caller: "mallory", Owner: "owner"}, false, "not_owner"},
		{"pause while paused", Input{Operation: "pause", Caller: "owner", Owner: "owner", Paused: true}, false, "paused"},
		{"unpause while paused", Input{Operation: "unpause", Caller: "owner", Owner: "owner", Paused: true}, true, ""},
		{"admin withdraw while paused", Input{Operation: "admin_withdraw", Caller: "owner", Owner: "owner", Paused: true}, true, ""},
		{"admin withdraw by stranger", Input{Operation: "admin_withdraw", Caller: "mallory", Owner: "owner"}, false, "not_owner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Authorize(ctx, tt.in)
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if d.Allow != tt.allow {
				t.Errorf("allow = %v, want %v", d.Allow, tt.allow)
			}
			if d.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestNewOPAEvaluatorRejectsBadPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator("package broken\nallow if {"); err == nil {
		t.Fatal("expected compile error for malformed policy")
	}
}

func TestAuthorizeCustomPolicy(t *testing.T) {
	// A stricter variant that also freezes deposits for non-owners.
	const custom = `package stakegov.access

default allow := false
default reason := "not_owner"

allow if { input.caller == input.owner }

reason := "" if { input.caller == input.owner }
`
	e, err := NewOPAEvaluator(custom)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	d, err := e.Authorize(context.Background(), Input{Operation: "deposit", Caller: "alice", Owner: "owner"})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allow || d.Reason != "not_owner" {
		t.Errorf("decision = %+v, want deny/not_owner", d)
	}
}
