package audit

import (
	"testing"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		subject      string
		wantAction   string
		wantResource string
	}{
		{"stakegov.op.join", "join", "membership"},
		{"stakegov.op.leave", "leave", "membership"},
		{"stakegov.op.create_proposal", "create_proposal", "proposal"},
		{"stakegov.op.vote", "vote", "proposal"},
		{"stakegov.op.execute", "execute", "proposal"},
		{"stakegov.op.deposit", "deposit", "treasury"},
		{"stakegov.op.admin_withdraw", "admin_withdraw", "treasury"},
		{"stakegov.op.pause", "pause", "control"},
		{"stakegov.op.unpause", "unpause", "control"},
		{"stakegov.op.bogus", "bogus", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			ar := ParseSubject(tt.subject)
			if ar.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", ar.Action, tt.wantAction)
			}
			if ar.Resource != tt.wantResource {
				t.Errorf("resource = %q, want %q", ar.Resource, tt.wantResource)
			}
		})
	}
}

func TestParseSubject_Malformed(t *testing.T) {
	for _, subject := range []string{"", "nodots", "trailing."} {
		ar := ParseSubject(subject)
		if ar.Action != "unknown" || ar.Resource != "unknown" {
			t.Errorf("ParseSubject(%q) = %+v, want unknown/unknown", subject, ar)
		}
	}
}
