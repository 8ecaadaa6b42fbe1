// Package ledger tracks active members, their voting power, and the
// stake escrowed on join. Removal is O(1): the membership index is an
// ordered slice plus an identity→position map kept in lock-step, and a
// departing member's slot is back-filled by the last entry.
package ledger

import (
	"time"

	"stakegov/internal/governance/domain"
)

// Ledger is the membership ledger. It is a plain data structure; the
// engine serializes access to it.
type Ledger struct {
	members map[string]*domain.Member
	ids     []string
	index   map[string]int
	escrow  domain.Amount
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		members: make(map[string]*domain.Member),
		index:   make(map[string]int),
	}
}

// Join registers an identity with the given stake. The stake is added to
// the escrow pool, never to treasury funds. Returns the created member.
func (l *Ledger) Join(id string, stake domain.Amount, at time.Time) (domain.Member, error) {
	if m, ok := l.members[id]; ok && m.Active {
		return domain.Member{}, domain.ErrAlreadyMember
	}
	if stake < domain.MinStake {
		return domain.Member{}, domain.ErrInsufficientStake
	}
	m := &domain.Member{
		ID:          id,
		Active:      true,
		VotingPower: domain.VotingPowerFor(stake),
		Stake:       stake,
		JoinedAt:    at,
	}
	l.members[id] = m
	l.index[id] = len(l.ids)
	l.ids = append(l.ids, id)
	l.escrow += stake
	return *m, nil
}

// Bootstrap seeds an implicit member with the given power and no escrowed
// stake. Used once, for the owner, when the engine starts with no prior
// state.
func (l *Ledger) Bootstrap(id string, power uint64, at time.Time) domain.Member {
	m := &domain.Member{
		ID:          id,
		Active:      true,
		VotingPower: power,
		JoinedAt:    at,
	}
	l.members[id] = m
	l.index[id] = len(l.ids)
	l.ids = append(l.ids, id)
	return *m
}

// Leave deactivates a member and removes it from the index via
// swap-and-pop. It returns the stake owed back to the member (released
// from escrow) and the identity moved into the vacated slot, if any.
func (l *Ledger) Leave(id string) (refund domain.Amount, moved string, err error) {
	m, ok := l.members[id]
	if !ok || !m.Active {
		return 0, "", domain.ErrNotAMember
	}

	pos := l.index[id]
	last := len(l.ids) - 1
	if pos != last {
		moved = l.ids[last]
		l.ids[pos] = moved
		l.index[moved] = pos
	}
	l.ids[last] = ""
	l.ids = l.ids[:last]
	delete(l.index, id)

	refund = m.Stake
	l.escrow -= refund
	m.Active = false
	m.Stake = 0
	m.VotingPower = 0
	return refund, moved, nil
}

// TotalVotingPower sums the power of the current active set. Computed
// fresh on every call.
func (l *Ledger) TotalVotingPower() uint64 {
	var total uint64
	for _, id := range l.ids {
		total += l.members[id].VotingPower
	}
	return total
}

// ActiveMembers returns the active identities in index order.
func (l *Ledger) ActiveMembers() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Member returns a snapshot of the member record for id.
func (l *Ledger) Member(id string) (domain.Member, bool) {
	m, ok := l.members[id]
	if !ok {
		return domain.Member{}, false
	}
	return *m, true
}

// Position returns the index slot for an active identity.
func (l *Ledger) Position(id string) (int, bool) {
	pos, ok := l.index[id]
	return pos, ok
}

// Len returns the number of active members.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// Escrow returns the total stake currently owed back to members.
func (l *Ledger) Escrow() domain.Amount {
	return l.escrow
}

// Restore rebuilds the ledger from persisted records. active must be
// ordered by index position; inactive records are kept for history only.
func (l *Ledger) Restore(active []domain.Member, inactive []domain.Member, escrow domain.Amount) {
	l.members = make(map[string]*domain.Member, len(active)+len(inactive))
	l.ids = make([]string, 0, len(active))
	l.index = make(map[string]int, len(active))
	for i := range active {
		m := active[i]
		l.members[m.ID] = &m
		l.index[m.ID] = len(l.ids)
		l.ids = append(l.ids, m.ID)
	}
	for i := range inactive {
		m := inactive[i]
		l.members[m.ID] = &m
	}
	l.escrow = escrow
}
