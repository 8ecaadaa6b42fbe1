package server

import (
	"context"
	"time"

	"stakegov/internal/governance/domain"
)

// Request payloads. Amounts are micro-units (uint64) on the wire.

type joinRequest struct {
	Caller string `json:"caller"`
	Stake  uint64 `json:"stake"`
}

type leaveRequest struct {
	Caller string `json:"caller"`
}

type createProposalRequest struct {
	Caller      string `json:"caller"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      uint64 `json:"amount"`
}

type voteRequest struct {
	Caller     string `json:"caller"`
	ProposalID uint64 `json:"proposal_id"`
	Support    bool   `json:"support"`
}

type executeRequest struct {
	Caller     string `json:"caller"`
	ProposalID uint64 `json:"proposal_id"`
}

type depositRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

// adminRequest covers pause, unpause, and admin_withdraw. The acting
// identity comes from the operator token, never from the payload.
type adminRequest struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
}

type idRequest struct {
	ID string `json:"id"`
}

type proposalIDRequest struct {
	ProposalID uint64 `json:"proposal_id"`
}

type hasVotedRequest struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
}

type auditLogsRequest struct {
	Actor  string `json:"actor"`
	Limit  int32  `json:"limit,omitempty"`
	Offset int32  `json:"offset,omitempty"`
}

// Reply payloads.

type memberView struct {
	ID          string    `json:"id"`
	Active      bool      `json:"active"`
	VotingPower uint64    `json:"voting_power"`
	Stake       uint64    `json:"stake"`
	JoinedAt    time.Time `json:"joined_at"`
}

type proposalView struct {
	ID            uint64    `json:"id"`
	Proposer      string    `json:"proposer"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	FundingAmount uint64    `json:"funding_amount"`
	VotesFor      uint64    `json:"votes_for"`
	VotesAgainst  uint64    `json:"votes_against"`
	CreatedAt     time.Time `json:"created_at"`
	VotingEndTime time.Time `json:"voting_end_time"`
	Active        bool      `json:"active"`
	Executed      bool      `json:"executed"`
}

type executionView struct {
	ProposalID uint64 `json:"proposal_id"`
	Approved   bool   `json:"approved"`
	AmountPaid uint64 `json:"amount_paid"`
}

type leaveView struct {
	Refund uint64 `json:"refund"`
}

type balanceView struct {
	Balance uint64 `json:"balance"`
}

type pausedView struct {
	Paused bool `json:"paused"`
}

type votingStatsView struct {
	ProposalID    uint64 `json:"proposal_id"`
	VotesFor      uint64 `json:"votes_for"`
	VotesAgainst  uint64 `json:"votes_against"`
	TotalVotes    uint64 `json:"total_votes"`
	TotalPower    uint64 `json:"total_power"`
	QuorumReached bool   `json:"quorum_reached"`
	Passing       bool   `json:"passing"`
}

type auditLogView struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

type pingView struct {
	Status        string `json:"status"`
	Paused        bool   `json:"paused"`
	ActiveMembers int    `json:"active_members"`
}

func viewMember(m domain.Member) memberView {
	return memberView{
		ID:          m.ID,
		Active:      m.Active,
		VotingPower: m.VotingPower,
		Stake:       uint64(m.Stake),
		JoinedAt:    m.JoinedAt,
	}
}

func viewProposal(p domain.Proposal) proposalView {
	return proposalView{
		ID:            p.ID,
		Proposer:      p.Proposer,
		Title:         p.Title,
		Description:   p.Description,
		FundingAmount: uint64(p.FundingAmount),
		VotesFor:      p.VotesFor,
		VotesAgainst:  p.VotesAgainst,
		CreatedAt:     p.CreatedAt,
		VotingEndTime: p.VotingEndTime,
		Active:        p.Active,
		Executed:      p.Executed,
	}
}

func (s *Service) dispatchOp(ctx context.Context, op string, data []byte) (any, string, error) {
	switch op {
	case "join":
		var req joinRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		m, err := s.engine.Join(ctx, req.Caller, domain.Amount(req.Stake))
		if err != nil {
			return nil, req.Caller, err
		}
		return viewMember(m), req.Caller, nil

	case "leave":
		var req leaveRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		refund, err := s.engine.Leave(ctx, req.Caller)
		if err != nil {
			return nil, req.Caller, err
		}
		return leaveView{Refund: uint64(refund)}, req.Caller, nil

	case "create_proposal":
		var req createProposalRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		pr, err := s.engine.CreateProposal(ctx, req.Caller, req.Title, req.Description, domain.Amount(req.Amount))
		if err != nil {
			return nil, req.Caller, err
		}
		return viewProposal(pr), req.Caller, nil

	case "vote":
		var req voteRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		if err := s.engine.Vote(ctx, req.Caller, req.ProposalID, req.Support); err != nil {
			return nil, req.Caller, err
		}
		pr, err := s.engine.Proposal(req.ProposalID)
		if err != nil {
			return nil, req.Caller, err
		}
		return viewProposal(pr), req.Caller, nil

	case "execute":
		var req executeRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		res, err := s.engine.Execute(ctx, req.Caller, req.ProposalID)
		if err != nil {
			return nil, req.Caller, err
		}
		return executionView{ProposalID: res.ProposalID, Approved: res.Approved, AmountPaid: uint64(res.AmountPaid)}, req.Caller, nil

	case "deposit":
		var req depositRequest
		if err := decode(data, &req); err != nil {
			return nil, "", err
		}
		if err := s.engine.Deposit(ctx, req.Caller, domain.Amount(req.Amount)); err != nil {
			return nil, req.Caller, err
		}
		balance, err := s.engine.Balance()
		if err != nil {
			return nil, req.Caller, err
		}
		return balanceView{Balance: uint64(balance)}, req.Caller, nil

	case "pause", "unpause", "admin_withdraw":
		return s.dispatchAdmin(ctx, op, data)

	case "ping":
		members, err := s.engine.ActiveMembers()
		if err != nil {
			return nil, "", err
		}
		return pingView{Status: "ok", Paused: s.engine.Paused(), ActiveMembers: len(members)}, "", nil
	}
	return nil, "", domain.ErrUnknownOperation
}

func (s *Service) dispatchAdmin(ctx context.Context, op string, data []byte) (any, string, error) {
	var req adminRequest
	if err := decode(data, &req); err != nil {
		return nil, "", err
	}
	caller, err := s.operatorSubject(req.Token)
	if err != nil {
		return nil, "", err
	}

	switch op {
	case "pause":
		if err := s.engine.Pause(ctx, caller); err != nil {
			return nil, caller, err
		}
		return pausedView{Paused: true}, caller, nil
	case "unpause":
		if err := s.engine.Unpause(ctx, caller); err != nil {
			return nil, caller, err
		}
		return pausedView{Paused: false}, caller, nil
	case "admin_withdraw":
		if err := s.engine.AdminWithdraw(ctx, caller, req.Recipient, domain.Amount(req.Amount)); err != nil {
			return nil, caller, err
		}
		balance, err := s.engine.Balance()
		if err != nil {
			return nil, caller, err
		}
		return balanceView{Balance: uint64(balance)}, caller, nil
	}
	return nil, caller, domain.ErrUnknownOperation
}

func (s *Service) dispatchQuery(ctx context.Context, op string, data []byte) (any, error) {
	switch op {
	case "total_voting_power":
		total, err := s.engine.TotalVotingPower()
		if err != nil {
			return nil, err
		}
		return struct {
			TotalVotingPower uint64 `json:"total_voting_power"`
		}{total}, nil

	case "active_members":
		members, err := s.engine.ActiveMembers()
		if err != nil {
			return nil, err
		}
		return struct {
			Members []string `json:"members"`
		}{members}, nil

	case "member":
		var req idRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		m, err := s.engine.Member(req.ID)
		if err != nil {
			return nil, err
		}
		return viewMember(m), nil

	case "proposal":
		var req proposalIDRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		pr, err := s.engine.Proposal(req.ProposalID)
		if err != nil {
			return nil, err
		}
		return viewProposal(pr), nil

	case "member_proposals":
		var req idRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		ids, err := s.engine.MemberProposals(req.ID)
		if err != nil {
			return nil, err
		}
		return struct {
			ProposalIDs []uint64 `json:"proposal_ids"`
		}{ids}, nil

	case "balance":
		balance, err := s.engine.Balance()
		if err != nil {
			return nil, err
		}
		return balanceView{Balance: uint64(balance)}, nil

	case "has_voted":
		var req hasVotedRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		voted, err := s.engine.HasVoted(req.ProposalID, req.Voter)
		if err != nil {
			return nil, err
		}
		return struct {
			HasVoted bool `json:"has_voted"`
		}{voted}, nil

	case "voting_stats":
		var req proposalIDRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		st, err := s.engine.VotingStats(req.ProposalID)
		if err != nil {
			return nil, err
		}
		return votingStatsView{
			ProposalID:    st.ProposalID,
			VotesFor:      st.VotesFor,
			VotesAgainst:  st.VotesAgainst,
			TotalVotes:    st.TotalVotes,
			TotalPower:    st.TotalPower,
			QuorumReached: st.QuorumReached,
			Passing:       st.Passing,
		}, nil

	case "audit_logs":
		var req auditLogsRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		if s.audit == nil {
			return struct {
				Logs []auditLogView `json:"logs"`
			}{}, nil
		}
		limit := req.Limit
		if limit <= 0 || limit > 100 {
			limit = 50
		}
		entries, err := s.audit.ListByActor(ctx, req.Actor, limit, req.Offset)
		if err != nil {
			return nil, err
		}
		logs := make([]auditLogView, 0, len(entries))
		for _, entry := range entries {
			logs = append(logs, auditLogView{
				ID:        entry.ID,
				Actor:     entry.Actor,
				Action:    entry.Action,
				Resource:  entry.Resource,
				Outcome:   entry.Outcome,
				CreatedAt: entry.CreatedAt,
			})
		}
		return struct {
			Logs []auditLogView `json:"logs"`
		}{logs}, nil
	}
	return nil, domain.ErrUnknownOperation
}
