package engine

import (
	"stakegov/internal/governance/domain"
)

// Read-only accessors. Derived values (quorum, participation) are
// recomputed from live state on every call, never cached. Reads share
// the operation mutex and the settlement guard, so they observe only
// committed state.

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// TotalVotingPower sums the power of the current active member set.
func (e *Engine) TotalVotingPower() (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalVotingPower(), nil
}

// ActiveMembers returns the active identities in index order.
func (e *Engine) ActiveMembers() ([]string, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ActiveMembers(), nil
}

// Member returns the member record for id.
func (e *Engine) Member(id string) (domain.Member, error) {
	if err := e.guard(); err != nil {
		return domain.Member{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.ledger.Member(id)
	if !ok {
		return domain.Member{}, domain.ErrNotAMember
	}
	return m, nil
}

// Proposal returns a snapshot of the proposal with the given id.
func (e *Engine) Proposal(id uint64) (domain.Proposal, error) {
	if err := e.guard(); err != nil {
		return domain.Proposal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pr, ok := e.store.Get(id)
	if !ok {
		return domain.Proposal{}, domain.ErrProposalNotFound
	}
	return pr, nil
}

// MemberProposals returns the ids of proposals created by the identity,
// in creation order.
func (e *Engine) MemberProposals(id string) ([]uint64, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByProposer(id), nil
}

// Balance returns the current treasury balance. Escrowed stake is not
// included.
func (e *Engine) Balance() (domain.Amount, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.treasury.Balance(), nil
}

// HasVoted reports whether the identity has voted on the proposal.
func (e *Engine) HasVoted(proposalID uint64, voter string) (bool, error) {
	if err := e.guard(); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.HasVoted(proposalID, voter)
}

// VotingStats computes the live participation picture for a proposal.
func (e *Engine) VotingStats(proposalID uint64) (domain.VotingStats, error) {
	if err := e.guard(); err != nil {
		return domain.VotingStats{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pr, ok := e.store.Get(proposalID)
	if !ok {
		return domain.VotingStats{}, domain.ErrProposalNotFound
	}
	totalPower := e.ledger.TotalVotingPower()
	totalVotes := pr.VotesFor + pr.VotesAgainst
	quorum := totalPower > 0 && totalVotes*100 >= totalPower*e.quorumPercent
	return domain.VotingStats{
		ProposalID:    proposalID,
		VotesFor:      pr.VotesFor,
		VotesAgainst:  pr.VotesAgainst,
		TotalVotes:    totalVotes,
		TotalPower:    totalPower,
		QuorumReached: quorum,
		Passing:       quorum && pr.VotesFor > pr.VotesAgainst,
	}, nil
}
