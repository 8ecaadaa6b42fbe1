package domain

import "time"

const (
	// TitleMaxLen bounds proposal titles (bytes).
	TitleMaxLen = 100
	// DescriptionMaxLen bounds proposal descriptions (bytes).
	DescriptionMaxLen = 1000
)

// VotingPeriod is how long a proposal accepts votes after creation.
const VotingPeriod = 7 * 24 * time.Hour

// Proposal is a funding request. IDs are 1-based and monotonic. Tallies,
// Active, and Executed are the only fields that change after creation;
// once Executed is set the proposal is terminal.
type Proposal struct {
	ID            uint64
	Proposer      string
	Title         string
	Description   string
	FundingAmount Amount
	VotesFor      uint64
	VotesAgainst  uint64
	CreatedAt     time.Time
	VotingEndTime time.Time
	Active        bool
	Executed      bool
}

// VotingStats is the live participation picture for a proposal. Derived
// values are recomputed from current state on every read, never cached.
type VotingStats struct {
	ProposalID    uint64
	VotesFor      uint64
	VotesAgainst  uint64
	TotalVotes    uint64
	TotalPower    uint64
	QuorumReached bool
	Passing       bool
}

// ExecutionResult reports the outcome of executing a proposal.
type ExecutionResult struct {
	ProposalID uint64
	Approved   bool
	AmountPaid Amount
}
