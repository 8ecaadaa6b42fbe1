package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"stakegov/internal/governance/domain"
)

type PostgresProjection struct {
	db *sql.DB
}

// NewPostgresProjection returns a projection that mirrors engine state to
// the given db.
func NewPostgresProjection(db *sql.DB) *PostgresProjection {
	return &PostgresProjection{db: db}
}

// SaveMember upserts a member row. position is the member's slot in the
// active index, or -1 for inactive members.
func (p *PostgresProjection) SaveMember(ctx context.Context, m domain.Member, position int) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO members (id, active, voting_power, stake, position, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active,
			voting_power = EXCLUDED.voting_power,
			stake = EXCLUDED.stake,
			position = EXCLUDED.position,
			joined_at = EXCLUDED.joined_at,
			updated_at = now()`,
		m.ID, m.Active, int64(m.VotingPower), int64(m.Stake), position, m.JoinedAt)
	return err
}

// SaveProposal upserts a proposal row.
func (p *PostgresProjection) SaveProposal(ctx context.Context, pr domain.Proposal) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO proposals (id, proposer, title, description, funding_amount,
			votes_for, votes_against, created_at, voting_end_time, active, executed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			votes_for = EXCLUDED.votes_for,
			votes_against = EXCLUDED.votes_against,
			active = EXCLUDED.active,
			executed = EXCLUDED.executed,
			updated_at = now()`,
		int64(pr.ID), pr.Proposer, pr.Title, pr.Description, int64(pr.FundingAmount),
		int64(pr.VotesFor), int64(pr.VotesAgainst), pr.CreatedAt, pr.VotingEndTime,
		pr.Active, pr.Executed)
	return err
}

// SaveVote inserts a ballot row. Ballots are immutable; conflicts are
// ignored so replays are harmless.
func (p *PostgresProjection) SaveVote(ctx context.Context, v VoteRow) error {
	at := v.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO proposal_votes (proposal_id, voter, support, power, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (proposal_id, voter) DO NOTHING`,
		int64(v.ProposalID), v.Voter, v.Support, int64(v.Power), at)
	return err
}

// SaveTreasury updates the treasury and escrow balances on the state row.
func (p *PostgresProjection) SaveTreasury(ctx context.Context, balance, escrow domain.Amount) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE engine_state SET treasury_balance = $1, escrow_balance = $2, updated_at = now()
		WHERE singleton`, int64(balance), int64(escrow))
	return err
}

// SaveControl upserts the singleton state row.
func (p *PostgresProjection) SaveControl(ctx context.Context, ownerID string, paused bool, nextProposalID uint64) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO engine_state (singleton, owner_id, paused, next_proposal_id, updated_at)
		VALUES (TRUE, $1, $2, $3, now())
		ON CONFLICT (singleton) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			paused = EXCLUDED.paused,
			next_proposal_id = EXCLUDED.next_proposal_id,
			updated_at = now()`,
		ownerID, paused, int64(nextProposalID))
	return err
}

// Load reads the full snapshot. Returns nil if no state row exists yet
// (fresh database).
func (p *PostgresProjection) Load(ctx context.Context) (*State, error) {
	st := &State{Votes: make(map[uint64][]string)}

	var treasury, escrow, nextID int64
	err := p.db.QueryRowContext(ctx, `
		SELECT owner_id, paused, treasury_balance, escrow_balance, next_proposal_id
		FROM engine_state WHERE singleton`).
		Scan(&st.OwnerID, &st.Paused, &treasury, &escrow, &nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.TreasuryBalance = domain.Amount(treasury)
	st.EscrowBalance = domain.Amount(escrow)
	st.NextProposalID = uint64(nextID)

	members, err := p.loadMembers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Position < members[j].Position })
	for _, row := range members {
		if row.Member.Active {
			st.Active = append(st.Active, row.Member)
		} else {
			st.Inactive = append(st.Inactive, row.Member)
		}
	}

	if err := p.loadProposals(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *PostgresProjection) loadMembers(ctx context.Context) ([]MemberRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, active, voting_power, stake, position, joined_at FROM members`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MemberRow
	for rows.Next() {
		var row MemberRow
		var power, stake int64
		if err := rows.Scan(&row.Member.ID, &row.Member.Active, &power, &stake, &row.Position, &row.Member.JoinedAt); err != nil {
			return nil, err
		}
		row.Member.VotingPower = uint64(power)
		row.Member.Stake = domain.Amount(stake)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *PostgresProjection) loadProposals(ctx context.Context, st *State) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, proposer, title, description, funding_amount, votes_for, votes_against,
			created_at, voting_end_time, active, executed
		FROM proposals ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pr domain.Proposal
		var id, amount, votesFor, votesAgainst int64
		if err := rows.Scan(&id, &pr.Proposer, &pr.Title, &pr.Description, &amount,
			&votesFor, &votesAgainst, &pr.CreatedAt, &pr.VotingEndTime, &pr.Active, &pr.Executed); err != nil {
			return err
		}
		pr.ID = uint64(id)
		pr.FundingAmount = domain.Amount(amount)
		pr.VotesFor = uint64(votesFor)
		pr.VotesAgainst = uint64(votesAgainst)
		st.Proposals = append(st.Proposals, pr)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	voteRows, err := p.db.QueryContext(ctx, `
		SELECT proposal_id, voter FROM proposal_votes ORDER BY proposal_id`)
	if err != nil {
		return err
	}
	defer voteRows.Close()
	for voteRows.Next() {
		var id int64
		var voter string
		if err := voteRows.Scan(&id, &voter); err != nil {
			return err
		}
		st.Votes[uint64(id)] = append(st.Votes[uint64(id)], voter)
	}
	return voteRows.Err()
}
