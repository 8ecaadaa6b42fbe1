package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the governance engine, one per successful
// mutating operation.
const (
	TypeMemberJoined     = "member_joined"
	TypeMemberLeft       = "member_left"
	TypeProposalCreated  = "proposal_created"
	TypeVoteCast         = "vote_cast"
	TypeProposalExecuted = "proposal_executed"
	TypeFundsDeposited   = "funds_deposited"
	TypeFundsWithdrawn   = "funds_withdrawn"
	TypeEnginePaused     = "engine_paused"
	TypeEngineUnpaused   = "engine_unpaused"
)

// Event is a governance notification record. Delivery is fire-and-forget
// and best-effort; events are consumed by external observers for
// indexing and auditing, never read back by the engine.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"event_type"`
	Actor      string          `json:"actor,omitempty"`
	ProposalID uint64          `json:"proposal_id,omitempty"`
	Amount     uint64          `json:"amount,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
