// Server runs the governance engine behind NATS request/reply.
// Set NATS_URL and OWNER_ID; DATABASE_URL enables the durable projection,
// OTLP_ENDPOINT enables telemetry export, KAFKA_BROKERS enables event publishing.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"stakegov/internal/audit"
	auditrepo "stakegov/internal/audit/repository"
	"stakegov/internal/config"
	"stakegov/internal/db"
	"stakegov/internal/governance/engine"
	govrepo "stakegov/internal/governance/repository"
	"stakegov/internal/security"
	"stakegov/internal/server"
	"stakegov/internal/telemetry"
	"stakegov/internal/telemetry/otel"
	"stakegov/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "stakegov-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// Event pipeline: Kafka for the worker, OTel logs for the collector.
	var emitters telemetry.Fanout
	if brokers := cfg.EventsKafkaBrokersList(); len(brokers) > 0 {
		kafkaProducer, err := producer.NewKafkaProducer(brokers, cfg.EventsKafkaTopic)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}
	emitters = append(emitters, otel.NewEventEmitter(providers.LoggerProvider))

	nc, err := nats.Connect(cfg.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Fatalf("nats connect: %v", err)
	}
	defer nc.Close()

	engCfg := engine.Config{
		Owner:         cfg.OwnerID,
		VotingPeriod:  cfg.VotingPeriodDuration(),
		QuorumPercent: uint64(cfg.MinQuorumPercent),
		Transferer:    server.NewNATSSettlement(nc),
		Emitter:       emitters,
	}

	var auditLogger audit.AuditLogger
	if cfg.DatabaseURL != "" {
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
		engCfg.Projection = govrepo.NewPostgresProjection(database)
		auditLogger = audit.NewLogger(auditrepo.NewPostgresRepository(database))
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	if projection, ok := engCfg.Projection.(*govrepo.PostgresProjection); ok {
		state, err := projection.Load(ctx)
		if err != nil {
			log.Fatalf("rehydrate: %v", err)
		}
		eng.Restore(ctx, state)
		if state != nil {
			log.Printf("rehydrated state for owner %s", state.OwnerID)
		} else {
			log.Println("fresh database, seeded bootstrap state")
		}
	}

	var tokens *security.TokenProvider
	if cfg.JWTPublicKey != "" {
		pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			log.Fatalf("jwt public key: %v", err)
		}
		tokens = security.NewTokenProvider(nil, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	} else {
		log.Println("JWT_PUBLIC_KEY not set; administrative subjects are disabled")
	}

	inbound, err := server.SubscribeInbound(nc, eng)
	if err != nil {
		log.Fatalf("settlement subscribe: %v", err)
	}
	defer inbound.Unsubscribe()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("shutting down...")
		cancel()
	}()

	svc := server.New(eng, tokens, auditLogger)
	if err := svc.Serve(ctx, nc); err != nil {
		log.Fatalf("serve: %v", err)
	}

	// Give async event emission a chance to drain before the producers close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	log.Println("server stopped")
}
