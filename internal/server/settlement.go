package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"stakegov/internal/governance/domain"
	"stakegov/internal/governance/engine"
)

// Settlement subjects. Outbound transfers (stake refunds, payouts,
// administrative withdrawals) go out as request/reply; inbound messages
// are bare credits recorded as deposits.
const (
	SettlementOutSubject = "stakegov.settlement.out"
	SettlementInSubject  = "stakegov.settlement.in"
)

const settlementTimeout = 5 * time.Second

var errSettlementRejected = errors.New("settlement rejected")

type settlementRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

type settlementAck struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type inboundCredit struct {
	Sender string `json:"sender"`
	Amount uint64 `json:"amount"`
}

// NATSSettlement sends outbound value transfers to the settlement
// processor over request/reply. A missing or negative acknowledgement
// fails the transfer, which rolls back the triggering operation.
type NATSSettlement struct {
	nc      *nats.Conn
	timeout time.Duration
}

func NewNATSSettlement(nc *nats.Conn) *NATSSettlement {
	return &NATSSettlement{nc: nc, timeout: settlementTimeout}
}

func (s *NATSSettlement) Transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	payload, err := json.Marshal(settlementRequest{Recipient: recipient, Amount: uint64(amount)})
	if err != nil {
		return fmt.Errorf("encode settlement request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msg, err := s.nc.RequestWithContext(ctx, SettlementOutSubject, payload)
	if err != nil {
		return fmt.Errorf("settlement request: %w", err)
	}
	var ack settlementAck
	if err := json.Unmarshal(msg.Data, &ack); err != nil {
		return fmt.Errorf("decode settlement ack: %w", err)
	}
	if !ack.OK {
		if ack.Message != "" {
			return fmt.Errorf("%w: %s", errSettlementRejected, ack.Message)
		}
		return errSettlementRejected
	}
	return nil
}

// SubscribeInbound records unsolicited credits on the settlement
// subject as treasury deposits. Credits bypass the pause gate so value
// already received is never stranded; malformed or zero credits are
// logged and dropped since there is no reply path to refuse them.
func SubscribeInbound(nc *nats.Conn, eng *engine.Engine) (*nats.Subscription, error) {
	return nc.Subscribe(SettlementInSubject, func(msg *nats.Msg) {
		var credit inboundCredit
		if err := json.Unmarshal(msg.Data, &credit); err != nil {
			log.Printf("settlement: malformed inbound credit: %v", err)
			return
		}
		sender := credit.Sender
		if sender == "" {
			sender = "unknown"
		}
		if err := eng.Credit(context.Background(), sender, domain.Amount(credit.Amount)); err != nil {
			log.Printf("settlement: inbound credit from %s rejected: %v", sender, err)
		}
	})
}
