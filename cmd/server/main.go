package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/admin"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/auth"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/geography"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/jwtauth"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/ethchain"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/identity"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/memchain"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/config"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/httpserver"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/logger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/metrics"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/postgres"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/redis"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/tally"
	httptransport "github.com/killm0ng3r/ClearVote-Kenya/internal/transport/http"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/vote"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Ledger address assignments survive restarts only with Redis behind
	// them; the memory store is for development.
	var identityStore identity.Store
	if redisClient != nil {
		identityStore = identity.NewRedisStore(redisClient.Client)
	} else {
		identityStore = identity.NewMemoryStore()
	}

	var ledgerClient ledger.Client
	if cfg.LedgerRPCURL != "" {
		ethClient, err := ethchain.Dial(ctx, cfg.LedgerRPCURL, cfg.ContractAddress, identityStore, cfg.LedgerTimeout, log)
		if err != nil {
			return err
		}
		defer ethClient.Close()
		ledgerClient = ethClient
		log.Info("ledger backend: ethereum rpc", "url", cfg.LedgerRPCURL)
	} else {
		ledgerClient = memchain.New(identity.NewAllocator(identityStore, identity.FreshKeyAddress), log)
		log.Info("ledger backend: in-process dev chain")
	}

	var auditPub audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafkaPub.Close()
		auditPub = kafkaPub
		log.Info("audit trail: kafka", "topic", cfg.KafkaTopic)
	} else {
		auditPub = audit.NewMemorySink()
		log.Warn("AUDIT_KAFKA_BROKERS not set, audit events stay in memory")
	}

	var (
		userStore     auth.Store
		geoStore      geography.Store
		electionStore election.Store
		voteStore     vote.Store
	)
	if db != nil {
		userStore = auth.NewPostgresStore(db)
		geoStore = geography.NewPostgresStore(db)
		electionStore = election.NewPostgresStore(db)
		voteStore = vote.NewPostgresStore(db)
	} else {
		userStore = auth.NewMemoryStore()
		geoStore = geography.NewMemoryStore()
		electionStore = election.NewMemoryStore()
		voteStore = vote.NewMemoryStore()
	}

	tokens := jwtauth.NewService(cfg.JWTSigningKey)
	authSvc := auth.NewService(userStore, geoStore, tokens, auditPub, metrics.New(), log)
	voteSvc := vote.NewService(voteStore, electionStore, auth.NewDirectory(userStore),
		ledgerClient, auditPub, cfg.LedgerTimeout, vote.NewMetrics(), log)
	tallySvc := tally.NewService(ledgerClient, voteStore, electionStore, log)
	adminSvc := admin.NewService(ledgerClient, electionStore, log)

	health := func(ctx context.Context) map[string]string {
		status := make(map[string]string)
		if db != nil {
			status["database"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				status["database"] = "unreachable"
			}
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				status["redis"] = "unreachable"
			}
		}
		status["ledger"] = "disconnected"
		if ledgerClient.IsConnected(ctx) {
			status["ledger"] = "connected"
		}
		return status
	}

	router := httptransport.NewRouter(log, health,
		auth.NewHandler(authSvc, tokens, log),
		geography.NewHandler(geoStore, log),
		election.NewHandler(electionStore, log, tokens, auditPub),
		vote.NewHandler(voteSvc, ledgerClient, auditPub, tokens, log),
		tally.NewHandler(tallySvc, log),
		admin.NewHandler(adminSvc, tokens, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
