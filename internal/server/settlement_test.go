package server

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"stakegov/internal/governance/domain"
	"stakegov/internal/governance/engine"
)

// connectNATS returns a connection to the server named by NATS_URL, or
// skips the test when the variable is unset.
func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set; skipping integration test")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("nats.Connect: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSSettlement_Transfer(t *testing.T) {
	nc := connectNATS(t)

	sub, err := nc.Subscribe(SettlementOutSubject, func(msg *nats.Msg) {
		var req settlementRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			t.Errorf("unmarshal settlement request: %v", err)
			return
		}
		ack := settlementAck{OK: req.Recipient != "blocked"}
		if !ack.OK {
			ack.Message = "recipient blocked"
		}
		payload, _ := json.Marshal(ack)
		if err := msg.Respond(payload); err != nil {
			t.Errorf("respond: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	settlement := NewNATSSettlement(nc)
	ctx := context.Background()

	if err := settlement.Transfer(ctx, "alice", domain.Amount(domain.UnitScale)); err != nil {
		t.Errorf("Transfer: %v", err)
	}
	if err := settlement.Transfer(ctx, "blocked", domain.Amount(domain.UnitScale)); !errors.Is(err, errSettlementRejected) {
		t.Errorf("blocked transfer: err = %v, want errSettlementRejected", err)
	}
}

func TestSubscribeInbound_RecordsDeposit(t *testing.T) {
	nc := connectNATS(t)

	eng, err := engine.New(engine.Config{Owner: testOwner})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	sub, err := SubscribeInbound(nc, eng)
	if err != nil {
		t.Fatalf("SubscribeInbound: %v", err)
	}
	defer sub.Unsubscribe()

	payload, _ := json.Marshal(inboundCredit{Sender: "benefactor", Amount: uint64(domain.UnitScale)})
	if err := nc.Publish(SettlementInSubject, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		balance, err := eng.Balance()
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if balance == domain.Amount(domain.UnitScale) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("balance = %d, want %d", balance, domain.UnitScale)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
