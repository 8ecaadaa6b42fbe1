package domain

import "time"

// Member is a registered participant. A member is created on join and
// mutated only by join/leave; Active is true exactly while the identity
// is present in the membership index.
type Member struct {
	ID          string
	Active      bool
	VotingPower uint64
	Stake       Amount
	JoinedAt    time.Time
}
