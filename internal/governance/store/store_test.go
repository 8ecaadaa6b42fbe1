package store

import (
	"errors"
	"testing"
	"time"

	"stakegov/internal/governance/domain"
)

var (
	t0  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end = t0.Add(domain.VotingPeriod)
)

func TestCreateAllocatesMonotonicIDs(t *testing.T) {
	s := New()
	p1 := s.Create("alice", "first", "d", domain.UnitScale, t0, end)
	p2 := s.Create("bob", "second", "d", domain.UnitScale, t0, end)
	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("ids = %d,%d, want 1,2", p1.ID, p2.ID)
	}
	if !p1.Active || p1.Executed {
		t.Errorf("new proposal state = active:%v executed:%v, want active and not executed", p1.Active, p1.Executed)
	}
	if got := s.Count(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestRecordVote(t *testing.T) {
	s := New()
	p := s.Create("alice", "t", "d", domain.UnitScale, t0, end)

	if err := s.RecordVote(p.ID, "bob", true, 100); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := s.RecordVote(p.ID, "carol", false, 40); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := s.RecordVote(p.ID, "bob", false, 100); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("double vote err = %v, want ErrAlreadyVoted", err)
	}

	got, _ := s.Get(p.ID)
	if got.VotesFor != 100 || got.VotesAgainst != 40 {
		t.Errorf("tallies = %d/%d, want 100/40 (double vote must not change them)", got.VotesFor, got.VotesAgainst)
	}

	if voted, err := s.HasVoted(p.ID, "bob"); err != nil || !voted {
		t.Errorf("HasVoted(bob) = %v,%v, want true,nil", voted, err)
	}
	if voted, _ := s.HasVoted(p.ID, "dan"); voted {
		t.Error("HasVoted(dan) = true, want false")
	}

	if err := s.RecordVote(99, "bob", true, 1); !errors.Is(err, domain.ErrProposalNotFound) {
		t.Errorf("missing proposal err = %v, want ErrProposalNotFound", err)
	}
}

func TestMarkExecutedIsTerminal(t *testing.T) {
	s := New()
	p := s.Create("alice", "t", "d", domain.UnitScale, t0, end)
	if err := s.MarkExecuted(p.ID); err != nil {
		t.Fatalf("mark executed: %v", err)
	}
	got, _ := s.Get(p.ID)
	if !got.Executed || got.Active {
		t.Errorf("state = executed:%v active:%v, want executed and inactive", got.Executed, got.Active)
	}
}

func TestByProposer(t *testing.T) {
	s := New()
	s.Create("alice", "a1", "d", domain.UnitScale, t0, end)
	s.Create("bob", "b1", "d", domain.UnitScale, t0, end)
	s.Create("alice", "a2", "d", domain.UnitScale, t0, end)

	got := s.ByProposer("alice")
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("ByProposer(alice) = %v, want [1 3]", got)
	}
	if got := s.ByProposer("nobody"); len(got) != 0 {
		t.Errorf("ByProposer(nobody) = %v, want empty", got)
	}
}

func TestRestore(t *testing.T) {
	s := New()
	proposals := []domain.Proposal{
		{ID: 1, Proposer: "alice", Title: "t", VotesFor: 100, CreatedAt: t0, VotingEndTime: end, Active: true},
		{ID: 2, Proposer: "alice", Title: "t2", CreatedAt: t0, VotingEndTime: end, Executed: true},
	}
	s.Restore(proposals, map[uint64][]string{1: {"bob"}}, 3)

	if voted, _ := s.HasVoted(1, "bob"); !voted {
		t.Error("restored voter set lost bob")
	}
	p := s.Create("carol", "t3", "d", domain.UnitScale, t0, end)
	if p.ID != 3 {
		t.Errorf("next id after restore = %d, want 3", p.ID)
	}
	if got := s.ByProposer("alice"); len(got) != 2 {
		t.Errorf("ByProposer(alice) = %v, want two ids", got)
	}
}
