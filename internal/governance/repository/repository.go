// Package repository persists a durable projection of the governance
// engine's in-memory state. The engine is authoritative; writes here are
// best-effort mirrors and Load is only used to rehydrate at boot.
package repository

import (
	"context"
	"time"

	"stakegov/internal/governance/domain"
)

// MemberRow is a persisted member with its slot in the active index.
// Position is -1 for inactive members.
type MemberRow struct {
	Member   domain.Member
	Position int
}

// VoteRow is one recorded ballot.
type VoteRow struct {
	ProposalID uint64
	Voter      string
	Support    bool
	Power      uint64
	CreatedAt  time.Time
}

// State is a full snapshot loaded at boot. Members are ordered by
// position so the active index can be rebuilt exactly.
type State struct {
	OwnerID         string
	Paused          bool
	TreasuryBalance domain.Amount
	EscrowBalance   domain.Amount
	NextProposalID  uint64
	Active          []domain.Member
	Inactive        []domain.Member
	Proposals       []domain.Proposal
	Votes           map[uint64][]string
}

// Projection defines the persistence operations the engine calls after
// each successful mutation.
type Projection interface {
	SaveMember(ctx context.Context, m domain.Member, position int) error
	SaveProposal(ctx context.Context, p domain.Proposal) error
	SaveVote(ctx context.Context, v VoteRow) error
	SaveTreasury(ctx context.Context, balance, escrow domain.Amount) error
	SaveControl(ctx context.Context, ownerID string, paused bool, nextProposalID uint64) error
	Load(ctx context.Context) (*State, error)
}
