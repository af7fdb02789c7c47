package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr          string
	Env           string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string

	// Ledger (blockchain) settings. When the RPC URL is empty the service
	// runs against the in-process dev chain.
	LedgerRPCURL    string
	ContractAddress string
	LedgerTimeout   time.Duration

	// Audit event stream. Empty brokers disable Kafka publishing.
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables with development
// defaults.
func FromEnv() Server {
	cfg := Server{
		Addr:            getenv("CLEARVOTE_ADDR", ":8080"),
		Env:             getenv("CLEARVOTE_ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSigningKey:   getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		LedgerRPCURL:    os.Getenv("BLOCKCHAIN_RPC_URL"),
		ContractAddress: os.Getenv("VOTE_LEDGER_CONTRACT_ADDRESS"),
		LedgerTimeout:   5 * time.Second,
		KafkaTopic:      getenv("AUDIT_KAFKA_TOPIC", "clearvote.audit"),
	}

	if d, err := time.ParseDuration(os.Getenv("LEDGER_TIMEOUT")); err == nil && d > 0 {
		cfg.LedgerTimeout = d
	}
	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
