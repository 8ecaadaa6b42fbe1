package domain

import "time"

// AuditLog represents one recorded governance operation.
type AuditLog struct {
	ID        string
	Actor     string
	Action    string
	Resource  string
	Outcome   string
	Metadata  string
	CreatedAt time.Time
}
