// Package engine orchestrates the governance lifecycle: membership,
// proposals, voting, execution settlement, and administrative control.
// The engine owns the authoritative in-memory state; every mutating
// operation runs fully serialized, commits atomically, emits exactly one
// event on success, and mirrors the result to the durable projection
// best-effort.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stakegov/internal/governance/domain"
	"stakegov/internal/governance/ledger"
	"stakegov/internal/governance/repository"
	"stakegov/internal/governance/store"
	"stakegov/internal/governance/treasury"
	policy "stakegov/internal/policy/engine"
	"stakegov/internal/telemetry"
	events "stakegov/internal/telemetry/domain"
)

// OwnerBootstrapPower is the voting power seeded for the owner, who joins
// implicitly at bootstrap without escrowing stake.
const OwnerBootstrapPower = 100

// Config collects the engine's collaborators and tunables.
type Config struct {
	// Owner is the identity bootstrapped as the implicit first member. Required.
	Owner string
	// VotingPeriod overrides the proposal voting window; 0 uses the default.
	VotingPeriod time.Duration
	// QuorumPercent overrides the quorum threshold; 0 uses the default.
	QuorumPercent uint64
	// Clock supplies the wall-clock oracle; nil uses time.Now.
	Clock func() time.Time
	// Transferer settles outbound value transfers (leave refunds, payouts,
	// admin withdrawals). nil means transfers succeed trivially.
	Transferer treasury.Transferer
	// Gate authorizes operations; nil compiles the default policy.
	Gate policy.Evaluator
	// Projection mirrors state durably; nil disables persistence.
	Projection repository.Projection
	// Emitter receives one event per successful mutating operation; nil
	// disables emission.
	Emitter telemetry.EventEmitter
}

// Engine is the governance state aggregate. All operations are safe for
// concurrent use; mutating operations are serialized by a single mutex
// and guarded against reentrancy during external value transfers.
type Engine struct {
	mu       sync.Mutex
	settling atomic.Bool

	now           func() time.Time
	owner         string
	paused        bool
	votingPeriod  time.Duration
	quorumPercent uint64

	ledger     *ledger.Ledger
	store      *store.Store
	treasury   *treasury.Treasury
	transferer treasury.Transferer
	gate       policy.Evaluator
	projection repository.Projection
	emitter    telemetry.EventEmitter
}

// New builds an engine and seeds the owner as the implicit first member
// with OwnerBootstrapPower and no escrowed stake.
func New(cfg Config) (*Engine, error) {
	if cfg.Owner == "" {
		return nil, errors.New("engine: owner must be set")
	}
	gate := cfg.Gate
	if gate == nil {
		var err error
		gate, err = policy.NewOPAEvaluator("")
		if err != nil {
			return nil, fmt.Errorf("engine: default policy: %w", err)
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	votingPeriod := cfg.VotingPeriod
	if votingPeriod <= 0 {
		votingPeriod = domain.VotingPeriod
	}
	quorum := cfg.QuorumPercent
	if quorum == 0 {
		quorum = domain.MinQuorumPercent
	}

	e := &Engine{
		now:           clock,
		owner:         cfg.Owner,
		votingPeriod:  votingPeriod,
		quorumPercent: quorum,
		ledger:        ledger.New(),
		store:         store.New(),
		treasury:      treasury.New(),
		transferer:    cfg.Transferer,
		gate:          gate,
		projection:    cfg.Projection,
		emitter:       cfg.Emitter,
	}
	e.ledger.Bootstrap(cfg.Owner, OwnerBootstrapPower, clock().UTC())
	return e, nil
}

// Restore replaces engine state with a persisted snapshot. Called once at
// boot before the engine serves requests; st may be nil (fresh database),
// in which case the bootstrap state is mirrored out instead: the control
// row must exist before any treasury update can land, and the owner's
// implicit membership has no other write path.
func (e *Engine) Restore(ctx context.Context, st *repository.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st == nil {
		e.project(func(p repository.Projection) error {
			if err := p.SaveControl(ctx, e.owner, e.paused, e.store.Count()+1); err != nil {
				return err
			}
			m, _ := e.ledger.Member(e.owner)
			pos, _ := e.ledger.Position(e.owner)
			if err := p.SaveMember(ctx, m, pos); err != nil {
				return err
			}
			return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
		})
		return
	}
	if st.OwnerID != "" {
		e.owner = st.OwnerID
	}
	e.paused = st.Paused
	e.treasury.Restore(st.TreasuryBalance)
	e.ledger.Restore(st.Active, st.Inactive, st.EscrowBalance)
	nextID := st.NextProposalID
	if nextID == 0 {
		nextID = 1
	}
	e.store.Restore(st.Proposals, st.Votes, nextID)
}

// Owner returns the owner identity.
func (e *Engine) Owner() string { return e.owner }

// authorize runs the policy gate for op. Fails closed: evaluation errors
// deny the operation.
func (e *Engine) authorize(ctx context.Context, op, caller string) error {
	dec, err := e.gate.Authorize(ctx, policy.Input{
		Operation: op,
		Caller:    caller,
		Owner:     e.owner,
		Paused:    e.paused,
	})
	if err != nil {
		return fmt.Errorf("authorize %s: %w", op, err)
	}
	if !dec.Allow {
		if dec.Reason == policy.ReasonPaused {
			return domain.ErrContractPaused
		}
		return domain.ErrNotOwner
	}
	return nil
}

// transfer settles an outbound value transfer with the reentrancy guard
// held, so a callback into any engine operation fails with ReentrantCall
// instead of observing intermediate state.
func (e *Engine) transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	if e.transferer == nil || amount == 0 {
		return nil
	}
	e.settling.Store(true)
	defer e.settling.Store(false)
	return e.transferer.Transfer(ctx, recipient, amount)
}

func (e *Engine) project(fn func(p repository.Projection) error) {
	if e.projection == nil {
		return
	}
	if err := fn(e.projection); err != nil {
		log.Printf("governance: projection write failed: %v", err)
	}
}

func (e *Engine) emit(ctx context.Context, eventType, actor string, proposalID uint64, amount domain.Amount, metadata any) {
	if e.emitter == nil {
		return
	}
	var raw json.RawMessage
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("governance: event metadata: %v", err)
		} else {
			raw = b
		}
	}
	telemetry.EmitAsync(e.emitter, ctx, &events.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Actor:      actor,
		ProposalID: proposalID,
		Amount:     uint64(amount),
		Metadata:   raw,
		CreatedAt:  e.now().UTC(),
	})
}

// guard rejects mutating (and state-reading) entry while a value transfer
// is settling. Checked before the mutex so a nested call from transfer
// callback fails fast instead of deadlocking.
func (e *Engine) guard() error {
	if e.settling.Load() {
		return domain.ErrReentrantCall
	}
	return nil
}

// Join registers caller as an active member escrowing stake.
func (e *Engine) Join(ctx context.Context, caller string, stake domain.Amount) (domain.Member, error) {
	if err := e.guard(); err != nil {
		return domain.Member{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "join", caller); err != nil {
		return domain.Member{}, err
	}
	m, err := e.ledger.Join(caller, stake, e.now().UTC())
	if err != nil {
		return domain.Member{}, err
	}
	pos, _ := e.ledger.Position(caller)
	e.project(func(p repository.Projection) error {
		if err := p.SaveMember(ctx, m, pos); err != nil {
			return err
		}
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeMemberJoined, caller, 0, stake, map[string]any{"voting_power": m.VotingPower})
	return m, nil
}

// Leave deactivates caller and refunds the escrowed stake. The refund
// transfer settles before membership state commits; a failed transfer
// leaves the member active.
func (e *Engine) Leave(ctx context.Context, caller string) (domain.Amount, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "leave", caller); err != nil {
		return 0, err
	}
	m, ok := e.ledger.Member(caller)
	if !ok || !m.Active {
		return 0, domain.ErrNotAMember
	}
	if err := e.transfer(ctx, caller, m.Stake); err != nil {
		return 0, domain.ErrTransferFailed
	}
	refund, moved, err := e.ledger.Leave(caller)
	if err != nil {
		return 0, err
	}
	e.project(func(p repository.Projection) error {
		left, _ := e.ledger.Member(caller)
		if err := p.SaveMember(ctx, left, -1); err != nil {
			return err
		}
		if moved != "" {
			mm, _ := e.ledger.Member(moved)
			pos, _ := e.ledger.Position(moved)
			if err := p.SaveMember(ctx, mm, pos); err != nil {
				return err
			}
		}
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeMemberLeft, caller, 0, refund, nil)
	return refund, nil
}

// CreateProposal submits a funding request from an active member.
func (e *Engine) CreateProposal(ctx context.Context, caller, title, description string, amount domain.Amount) (domain.Proposal, error) {
	if err := e.guard(); err != nil {
		return domain.Proposal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "create_proposal", caller); err != nil {
		return domain.Proposal{}, err
	}
	m, ok := e.ledger.Member(caller)
	if !ok || !m.Active {
		return domain.Proposal{}, domain.ErrNotAMember
	}
	if len(title) == 0 || len(title) > domain.TitleMaxLen {
		return domain.Proposal{}, domain.ErrInvalidTitle
	}
	if len(description) == 0 || len(description) > domain.DescriptionMaxLen {
		return domain.Proposal{}, domain.ErrInvalidDescription
	}
	if amount < domain.MinProposalAmount {
		return domain.Proposal{}, domain.ErrInvalidAmount
	}
	if amount > e.treasury.Balance() {
		return domain.Proposal{}, domain.ErrInsufficientFunds
	}
	now := e.now().UTC()
	pr := e.store.Create(caller, title, description, amount, now, now.Add(e.votingPeriod))
	e.project(func(p repository.Projection) error {
		if err := p.SaveProposal(ctx, pr); err != nil {
			return err
		}
		return p.SaveControl(ctx, e.owner, e.paused, e.store.Count()+1)
	})
	e.emit(ctx, events.TypeProposalCreated, caller, pr.ID, amount, map[string]any{"title": title})
	return pr, nil
}

// Vote records caller's ballot on a proposal, weighted by their current
// voting power. Power changes after voting never adjust cast votes.
func (e *Engine) Vote(ctx context.Context, caller string, proposalID uint64, support bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "vote", caller); err != nil {
		return err
	}
	pr, ok := e.store.Get(proposalID)
	if !ok {
		return domain.ErrProposalNotFound
	}
	if !pr.Active || e.now().After(pr.VotingEndTime) {
		return domain.ErrVotingClosed
	}
	m, ok := e.ledger.Member(caller)
	if !ok || !m.Active {
		return domain.ErrNotAMember
	}
	if err := e.store.RecordVote(proposalID, caller, support, m.VotingPower); err != nil {
		return err
	}
	e.project(func(p repository.Projection) error {
		updated, _ := e.store.Get(proposalID)
		if err := p.SaveProposal(ctx, updated); err != nil {
			return err
		}
		return p.SaveVote(ctx, repository.VoteRow{
			ProposalID: proposalID,
			Voter:      caller,
			Support:    support,
			Power:      m.VotingPower,
			CreatedAt:  e.now().UTC(),
		})
	})
	e.emit(ctx, events.TypeVoteCast, caller, proposalID, 0, map[string]any{"support": support, "power": m.VotingPower})
	return nil
}

// Execute closes a proposal whose voting window has ended. The proposal
// reaches its terminal state whatever the outcome; an approved proposal
// additionally pays its funding amount to the proposer, and a failed
// payout transfer aborts the whole execution with no state change.
func (e *Engine) Execute(ctx context.Context, caller string, proposalID uint64) (domain.ExecutionResult, error) {
	if err := e.guard(); err != nil {
		return domain.ExecutionResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "execute", caller); err != nil {
		return domain.ExecutionResult{}, err
	}
	pr, ok := e.store.Get(proposalID)
	if !ok {
		return domain.ExecutionResult{}, domain.ErrProposalNotFound
	}
	if pr.Executed {
		return domain.ExecutionResult{}, domain.ErrAlreadyExecuted
	}
	if !pr.Active {
		return domain.ExecutionResult{}, domain.ErrProposalInactive
	}
	if !e.now().After(pr.VotingEndTime) {
		return domain.ExecutionResult{}, domain.ErrVotingStillActive
	}
	totalPower := e.ledger.TotalVotingPower()
	if totalPower == 0 {
		return domain.ExecutionResult{}, domain.ErrNoVotingPower
	}

	totalVotes := pr.VotesFor + pr.VotesAgainst
	quorum := totalVotes*100 >= totalPower*e.quorumPercent
	approved := quorum && pr.VotesFor > pr.VotesAgainst

	var paid domain.Amount
	if approved && e.treasury.Balance() >= pr.FundingAmount {
		e.settling.Store(true)
		err := e.treasury.Payout(ctx, e.transferer, pr.Proposer, pr.FundingAmount)
		e.settling.Store(false)
		if err != nil {
			if errors.Is(err, domain.ErrTransferFailed) {
				return domain.ExecutionResult{}, domain.ErrPayoutFailed
			}
			return domain.ExecutionResult{}, err
		}
		paid = pr.FundingAmount
	}

	if err := e.store.MarkExecuted(proposalID); err != nil {
		return domain.ExecutionResult{}, err
	}
	e.project(func(p repository.Projection) error {
		updated, _ := e.store.Get(proposalID)
		if err := p.SaveProposal(ctx, updated); err != nil {
			return err
		}
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeProposalExecuted, caller, proposalID, paid, map[string]any{"approved": approved})
	return domain.ExecutionResult{ProposalID: proposalID, Approved: approved, AmountPaid: paid}, nil
}

// Deposit credits the treasury. actor may be empty for bare transfers
// observed on the deposit path.
func (e *Engine) Deposit(ctx context.Context, actor string, amount domain.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "deposit", actor); err != nil {
		return err
	}
	if err := e.treasury.Deposit(amount); err != nil {
		return err
	}
	e.project(func(p repository.Projection) error {
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeFundsDeposited, actor, 0, amount, nil)
	return nil
}

// Credit records an unsolicited inbound transfer as a deposit. Unlike
// Deposit it skips the policy gate: value already received must never be
// turned away, even while paused, or it would be stranded outside both
// the treasury and the escrow ledger.
func (e *Engine) Credit(ctx context.Context, sender string, amount domain.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.treasury.Deposit(amount); err != nil {
		return err
	}
	e.project(func(p repository.Projection) error {
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeFundsDeposited, sender, 0, amount, nil)
	return nil
}

// Pause halts all mutating operations except unpause and admin withdrawal.
// Owner only.
func (e *Engine) Pause(ctx context.Context, caller string) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "pause", caller); err != nil {
		return err
	}
	e.paused = true
	e.project(func(p repository.Projection) error {
		return p.SaveControl(ctx, e.owner, e.paused, e.store.Count()+1)
	})
	e.emit(ctx, events.TypeEnginePaused, caller, 0, 0, nil)
	return nil
}

// Unpause resumes normal operation. Owner only; fails NotPaused when the
// engine is already running.
func (e *Engine) Unpause(ctx context.Context, caller string) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "unpause", caller); err != nil {
		return err
	}
	if !e.paused {
		return domain.ErrNotPaused
	}
	e.paused = false
	e.project(func(p repository.Projection) error {
		return p.SaveControl(ctx, e.owner, e.paused, e.store.Count()+1)
	})
	e.emit(ctx, events.TypeEngineUnpaused, caller, 0, 0, nil)
	return nil
}

// AdminWithdraw transfers treasury funds to recipient. Owner only, and
// deliberately reachable while paused. Empty recipient pays the caller.
func (e *Engine) AdminWithdraw(ctx context.Context, caller, recipient string, amount domain.Amount) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.authorize(ctx, "admin_withdraw", caller); err != nil {
		return err
	}
	if recipient == "" {
		recipient = caller
	}
	e.settling.Store(true)
	err := e.treasury.Payout(ctx, e.transferer, recipient, amount)
	e.settling.Store(false)
	if err != nil {
		return err
	}
	e.project(func(p repository.Projection) error {
		return p.SaveTreasury(ctx, e.treasury.Balance(), e.ledger.Escrow())
	})
	e.emit(ctx, events.TypeFundsWithdrawn, caller, 0, amount, map[string]any{"recipient": recipient})
	return nil
}
