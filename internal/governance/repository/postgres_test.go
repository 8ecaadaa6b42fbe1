package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"stakegov/internal/db"
	"stakegov/internal/db/migrate"
	"stakegov/internal/governance/domain"
)

// openTestDB connects to the database named by DATABASE_URL and applies
// migrations, or skips the test when the variable is unset.
func openTestDB(t *testing.T) *PostgresProjection {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	// Each run starts from a clean projection.
	for _, table := range []string{"proposal_votes", "proposals", "members", "engine_state"} {
		if _, err := database.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	return NewPostgresProjection(database)
}

func TestLoad_FreshDatabaseReturnsNil(t *testing.T) {
	p := openTestDB(t)

	st, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != nil {
		t.Fatalf("state = %+v, want nil on fresh database", st)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	p := openTestDB(t)
	ctx := context.Background()
	joined := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	if err := p.SaveControl(ctx, "owner-1", true, 3); err != nil {
		t.Fatalf("SaveControl: %v", err)
	}
	if err := p.SaveTreasury(ctx, 5_000_000, 1_000_000); err != nil {
		t.Fatalf("SaveTreasury: %v", err)
	}

	members := []struct {
		m   domain.Member
		pos int
	}{
		{domain.Member{ID: "owner-1", Active: true, VotingPower: 100, JoinedAt: joined}, 0},
		{domain.Member{ID: "alice", Active: true, VotingPower: 100, Stake: 1_000_000, JoinedAt: joined}, 1},
		{domain.Member{ID: "bob", Active: false, JoinedAt: joined}, -1},
	}
	for _, row := range members {
		if err := p.SaveMember(ctx, row.m, row.pos); err != nil {
			t.Fatalf("SaveMember(%s): %v", row.m.ID, err)
		}
	}

	pr := domain.Proposal{
		ID:            1,
		Proposer:      "alice",
		Title:         "Fund the work",
		Description:   "details",
		FundingAmount: 2_000_000,
		VotesFor:      100,
		CreatedAt:     joined,
		VotingEndTime: joined.Add(domain.VotingPeriod),
		Active:        true,
	}
	if err := p.SaveProposal(ctx, pr); err != nil {
		t.Fatalf("SaveProposal: %v", err)
	}
	vote := VoteRow{ProposalID: 1, Voter: "alice", Support: true, Power: 100, CreatedAt: joined}
	if err := p.SaveVote(ctx, vote); err != nil {
		t.Fatalf("SaveVote: %v", err)
	}
	// Ballot replays are ignored, not duplicated.
	if err := p.SaveVote(ctx, vote); err != nil {
		t.Fatalf("SaveVote replay: %v", err)
	}

	st, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st == nil {
		t.Fatal("state = nil, want snapshot")
	}
	if st.OwnerID != "owner-1" || !st.Paused || st.NextProposalID != 3 {
		t.Errorf("control = %s/%v/%d, want owner-1/true/3", st.OwnerID, st.Paused, st.NextProposalID)
	}
	if st.TreasuryBalance != 5_000_000 || st.EscrowBalance != 1_000_000 {
		t.Errorf("balances = %d/%d, want 5000000/1000000", st.TreasuryBalance, st.EscrowBalance)
	}
	if len(st.Active) != 2 || st.Active[0].ID != "owner-1" || st.Active[1].ID != "alice" {
		t.Errorf("active = %+v, want owner-1 then alice in index order", st.Active)
	}
	if len(st.Inactive) != 1 || st.Inactive[0].ID != "bob" {
		t.Errorf("inactive = %+v, want bob", st.Inactive)
	}
	if len(st.Proposals) != 1 || st.Proposals[0].VotesFor != 100 {
		t.Errorf("proposals = %+v, want one with 100 votes for", st.Proposals)
	}
	if voters := st.Votes[1]; len(voters) != 1 || voters[0] != "alice" {
		t.Errorf("votes[1] = %v, want [alice]", voters)
	}
}

func TestSaveProposal_UpdatesTallies(t *testing.T) {
	p := openTestDB(t)
	ctx := context.Background()
	joined := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	if err := p.SaveControl(ctx, "owner-1", false, 2); err != nil {
		t.Fatalf("SaveControl: %v", err)
	}
	pr := domain.Proposal{
		ID: 1, Proposer: "alice", Title: "t", Description: "d",
		FundingAmount: 1_000_000, CreatedAt: joined,
		VotingEndTime: joined.Add(domain.VotingPeriod), Active: true,
	}
	if err := p.SaveProposal(ctx, pr); err != nil {
		t.Fatalf("SaveProposal: %v", err)
	}
	pr.VotesFor = 40
	pr.VotesAgainst = 10
	pr.Active = false
	pr.Executed = true
	if err := p.SaveProposal(ctx, pr); err != nil {
		t.Fatalf("SaveProposal update: %v", err)
	}

	st, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := st.Proposals[0]
	if got.VotesFor != 40 || got.VotesAgainst != 10 || !got.Executed || got.Active {
		t.Errorf("proposal = %+v, want executed with 40/10 tallies", got)
	}
}
