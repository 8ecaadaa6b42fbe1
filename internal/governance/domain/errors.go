package domain

import "errors"

// Sentinel errors for governance operations. The boundary maps them to
// stable wire codes via Code; Kind groups them for audit and metrics.
var (
	// Membership.
	ErrAlreadyMember     = errors.New("already an active member")
	ErrNotAMember        = errors.New("not an active member")
	ErrInsufficientStake = errors.New("stake below minimum")

	// Proposals.
	ErrInvalidTitle       = errors.New("title length out of bounds")
	ErrInvalidDescription = errors.New("description length out of bounds")
	ErrInvalidAmount      = errors.New("amount out of bounds")
	ErrInsufficientFunds  = errors.New("funding amount exceeds treasury balance")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrVotingClosed       = errors.New("voting period is closed")
	ErrAlreadyVoted       = errors.New("already voted on this proposal")
	ErrVotingStillActive  = errors.New("voting period has not ended")
	ErrAlreadyExecuted    = errors.New("proposal already executed")
	ErrProposalInactive   = errors.New("proposal is not active")
	ErrNoVotingPower      = errors.New("no voting power registered")

	// Treasury.
	ErrZeroDeposit         = errors.New("deposit amount must be positive")
	ErrAmountOverflow      = errors.New("amount overflows balance accounting")
	ErrInsufficientBalance = errors.New("amount exceeds treasury balance")
	ErrTransferFailed      = errors.New("value transfer failed")
	ErrPayoutFailed        = errors.New("proposal payout failed")

	// Administrative control.
	ErrContractPaused = errors.New("engine is paused")
	ErrNotPaused      = errors.New("engine is not paused")
	ErrNotOwner       = errors.New("caller is not the owner")

	// Execution environment.
	ErrReentrantCall    = errors.New("reentrant call rejected")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Code returns the stable snake_case wire code for a governance error, or
// "internal" for anything unrecognized. Codes are part of the boundary
// contract and must not change.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, ErrInsufficientStake):
		return "insufficient_stake"
	case errors.Is(err, ErrInvalidTitle):
		return "invalid_title"
	case errors.Is(err, ErrInvalidDescription):
		return "invalid_description"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrProposalNotFound):
		return "proposal_not_found"
	case errors.Is(err, ErrVotingClosed):
		return "voting_closed"
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrVotingStillActive):
		return "voting_still_active"
	case errors.Is(err, ErrAlreadyExecuted):
		return "already_executed"
	case errors.Is(err, ErrProposalInactive):
		return "proposal_inactive"
	case errors.Is(err, ErrNoVotingPower):
		return "no_voting_power"
	case errors.Is(err, ErrZeroDeposit):
		return "zero_deposit"
	case errors.Is(err, ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrPayoutFailed):
		return "payout_failed"
	case errors.Is(err, ErrContractPaused):
		return "contract_paused"
	case errors.Is(err, ErrNotPaused):
		return "not_paused"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	default:
		return "internal"
	}
}

// Kind returns the taxonomy class for a governance error: validation,
// authorization, state, resource, transfer, availability, or internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTitle),
		errors.Is(err, ErrInvalidDescription),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientStake),
		errors.Is(err, ErrZeroDeposit),
		errors.Is(err, ErrAmountOverflow),
		errors.Is(err, ErrUnknownOperation):
		return "validation"
	case errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrNotAMember):
		return "authorization"
	case errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrAlreadyVoted),
		errors.Is(err, ErrAlreadyExecuted),
		errors.Is(err, ErrVotingStillActive),
		errors.Is(err, ErrVotingClosed),
		errors.Is(err, ErrProposalInactive),
		errors.Is(err, ErrProposalNotFound),
		errors.Is(err, ErrNotPaused):
		return "state"
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrNoVotingPower):
		return "resource"
	case errors.Is(err, ErrTransferFailed),
		errors.Is(err, ErrPayoutFailed),
		errors.Is(err, ErrReentrantCall):
		return "transfer"
	case errors.Is(err, ErrContractPaused):
		return "availability"
	default:
		return "internal"
	}
}
