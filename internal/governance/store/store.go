// Package store holds proposal records keyed by a monotonically
// increasing 1-based id, together with each proposal's voter set. The
// voter set supports membership tests only; it is never iterated.
package store

import (
	"time"

	"stakegov/internal/governance/domain"
)

type record struct {
	proposal domain.Proposal
	voters   map[string]struct{}
}

// Store is the proposal store. Plain data structure; the engine
// serializes access.
type Store struct {
	proposals  map[uint64]*record
	byProposer map[string][]uint64
	nextID     uint64
}

// New returns an empty store. The first allocated proposal id is 1.
func New() *Store {
	return &Store{
		proposals:  make(map[uint64]*record),
		byProposer: make(map[string][]uint64),
		nextID:     1,
	}
}

// Create allocates the next id and inserts an active proposal.
func (s *Store) Create(proposer, title, description string, amount domain.Amount, createdAt, votingEnd time.Time) domain.Proposal {
	p := domain.Proposal{
		ID:            s.nextID,
		Proposer:      proposer,
		Title:         title,
		Description:   description,
		FundingAmount: amount,
		CreatedAt:     createdAt,
		VotingEndTime: votingEnd,
		Active:        true,
	}
	s.nextID++
	s.proposals[p.ID] = &record{proposal: p, voters: make(map[string]struct{})}
	s.byProposer[proposer] = append(s.byProposer[proposer], p.ID)
	return p
}

// Get returns a snapshot of the proposal with the given id.
func (s *Store) Get(id uint64) (domain.Proposal, bool) {
	r, ok := s.proposals[id]
	if !ok {
		return domain.Proposal{}, false
	}
	return r.proposal, true
}

// HasVoted reports whether voter is in the proposal's voter set.
func (s *Store) HasVoted(id uint64, voter string) (bool, error) {
	r, ok := s.proposals[id]
	if !ok {
		return false, domain.ErrProposalNotFound
	}
	_, voted := r.voters[voter]
	return voted, nil
}

// RecordVote adds power to the for/against tally and marks the voter.
// The power recorded is the voter's power at vote time; later power
// changes never adjust cast votes.
func (s *Store) RecordVote(id uint64, voter string, support bool, power uint64) error {
	r, ok := s.proposals[id]
	if !ok {
		return domain.ErrProposalNotFound
	}
	if _, voted := r.voters[voter]; voted {
		return domain.ErrAlreadyVoted
	}
	if support {
		r.proposal.VotesFor += power
	} else {
		r.proposal.VotesAgainst += power
	}
	r.voters[voter] = struct{}{}
	return nil
}

// MarkExecuted moves the proposal to its terminal state.
func (s *Store) MarkExecuted(id uint64) error {
	r, ok := s.proposals[id]
	if !ok {
		return domain.ErrProposalNotFound
	}
	r.proposal.Executed = true
	r.proposal.Active = false
	return nil
}

// ByProposer returns the ids of proposals created by the identity, in
// creation order.
func (s *Store) ByProposer(proposer string) []uint64 {
	ids := s.byProposer[proposer]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// Count returns the number of proposals ever created.
func (s *Store) Count() uint64 {
	return s.nextID - 1
}

// Restore rebuilds the store from persisted proposals and votes. votes
// maps proposal id to the identities that have voted on it.
func (s *Store) Restore(proposals []domain.Proposal, votes map[uint64][]string, nextID uint64) {
	s.proposals = make(map[uint64]*record, len(proposals))
	s.byProposer = make(map[string][]uint64)
	for _, p := range proposals {
		voters := make(map[string]struct{}, len(votes[p.ID]))
		for _, v := range votes[p.ID] {
			voters[v] = struct{}{}
		}
		s.proposals[p.ID] = &record{proposal: p, voters: voters}
		s.byProposer[p.Proposer] = append(s.byProposer[p.Proposer], p.ID)
	}
	if nextID < 1 {
		nextID = 1
	}
	s.nextID = nextID
}
