// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// NATSURL is the NATS server URL the governance service connects to (e.g. nats://localhost:4222).
	NATSURL string `mapstructure:"NATS_URL"`
	// DatabaseURL is the Postgres DSN for the durable projection; empty disables persistence.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// OwnerID is the member identity bootstrapped as contract owner. Required.
	OwnerID string `mapstructure:"OWNER_ID"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; only needed to mint operator tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; required to validate operator tokens on admin subjects.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "stakegov-admin").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "stakegov-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTTokenTTL is the operator token lifetime (e.g. "1h").
	JWTTokenTTL string `mapstructure:"JWT_TOKEN_TTL"`
	// VotingPeriod overrides the proposal voting window (e.g. "168h"). Empty uses the default.
	VotingPeriod string `mapstructure:"VOTING_PERIOD"`
	// MinQuorumPercent overrides the quorum threshold in percent of total voting power. 0 uses the default.
	MinQuorumPercent int `mapstructure:"MIN_QUORUM_PERCENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Events (optional). When Kafka brokers are set, the engine publishes governance events to Kafka.
	// EventsKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	EventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the Kafka topic for governance events (default stakegov-events).
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the events worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.NATSURL == "" {
		return nil, errors.New("config: NATS_URL must be set")
	}
	if cfg.OwnerID == "" {
		return nil, errors.New("config: OWNER_ID must be set")
	}
	return cfg, nil
}

// LoadTool loads config for auxiliary binaries (events worker, migrator)
// that never touch the governance engine, so the owner identity and NATS
// URL are not required.
func LoadTool() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OWNER_ID", "")
	v.SetDefault("JWT_ISSUER", "stakegov-admin")
	v.SetDefault("JWT_AUDIENCE", "stakegov-api")
	v.SetDefault("JWT_TOKEN_TTL", "1h")
	v.SetDefault("VOTING_PERIOD", "")
	v.SetDefault("MIN_QUORUM_PERCENT", 0)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "stakegov-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "stakegov-events-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.MinQuorumPercent < 0 || cfg.MinQuorumPercent > 100 {
		return nil, errors.New("config: MIN_QUORUM_PERCENT must be between 0 and 100")
	}

	return &cfg, nil
}

// TokenTTL parses JWTTokenTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTokenTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// VotingPeriodDuration parses VotingPeriod as a time.Duration. Returns 0 if
// unset or invalid; callers fall back to the engine default.
func (c *Config) VotingPeriodDuration() time.Duration {
	d, err := time.ParseDuration(c.VotingPeriod)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// EventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) EventsKafkaBrokersList() []string {
	if c == nil || c.EventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.EventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
