// seed inserts development sample data for local testing by running a
// small governance scenario through the engine with the Postgres
// projection attached. Idempotent: skips when persisted state exists.
package main

import (
	"context"
	"log"

	"stakegov/internal/config"
	"stakegov/internal/db"
	"stakegov/internal/governance/domain"
	"stakegov/internal/governance/engine"
	govrepo "stakegov/internal/governance/repository"
)

const (
	seedMemberA = "dev-member-001"
	seedMemberB = "dev-member-002"
	seedFunder  = "dev-funder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("seed: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	projection := govrepo.NewPostgresProjection(database)

	state, err := projection.Load(ctx)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	if state != nil {
		log.Println("seed: persisted state exists, nothing to do")
		return
	}

	eng, err := engine.New(engine.Config{
		Owner:      cfg.OwnerID,
		Projection: projection,
	})
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	eng.Restore(ctx, nil)

	if err := eng.Deposit(ctx, seedFunder, 100*domain.UnitScale); err != nil {
		log.Fatalf("deposit: %v", err)
	}
	if _, err := eng.Join(ctx, seedMemberA, 2*domain.UnitScale); err != nil {
		log.Fatalf("join %s: %v", seedMemberA, err)
	}
	if _, err := eng.Join(ctx, seedMemberB, domain.UnitScale/2); err != nil {
		log.Fatalf("join %s: %v", seedMemberB, err)
	}

	pr, err := eng.CreateProposal(ctx, seedMemberA,
		"Fund integration environment",
		"Covers one month of shared staging infrastructure.",
		10*domain.UnitScale)
	if err != nil {
		log.Fatalf("create proposal: %v", err)
	}
	if err := eng.Vote(ctx, seedMemberA, pr.ID, true); err != nil {
		log.Fatalf("vote %s: %v", seedMemberA, err)
	}
	if err := eng.Vote(ctx, seedMemberB, pr.ID, false); err != nil {
		log.Fatalf("vote %s: %v", seedMemberB, err)
	}

	log.Printf("seed: owner %s, members %s/%s, proposal %d with open voting",
		cfg.OwnerID, seedMemberA, seedMemberB, pr.ID)
}
