package domain

import "fmt"

// Amount is a quantity of value counted in micro-units. One governance
// unit is UnitScale micro-units; all balances, stakes, and funding
// amounts are carried in micro-units so arithmetic stays integral.
type Amount uint64

// UnitScale is the number of micro-units in one governance unit.
const UnitScale Amount = 1_000_000

const (
	// MinStake is the smallest stake accepted on join (0.01 unit).
	MinStake Amount = UnitScale / 100
	// MinProposalAmount is the smallest funding amount a proposal may request.
	MinProposalAmount Amount = UnitScale / 100
)

const (
	// PowerPerUnit is the voting power granted per staked unit.
	PowerPerUnit uint64 = 100
	// MaxVotingPower caps the power a single member can hold.
	MaxVotingPower uint64 = 1000
	// MinQuorumPercent is the share of total voting power that must
	// participate for a proposal outcome to count.
	MinQuorumPercent uint64 = 30
)

// VotingPowerFor derives the voting power granted for a stake: one power
// per hundredth of a unit, clamped to [1, MaxVotingPower]. The divide
// keeps the computation in range for any uint64 stake.
func VotingPowerFor(stake Amount) uint64 {
	power := uint64(stake / (UnitScale / Amount(PowerPerUnit)))
	if power < 1 {
		power = 1
	}
	if power > MaxVotingPower {
		power = MaxVotingPower
	}
	return power
}

// String renders the amount in units with micro-unit precision, e.g. "1.250000".
func (a Amount) String() string {
	return fmt.Sprintf("%d.%06d", uint64(a/UnitScale), uint64(a%UnitScale))
}
