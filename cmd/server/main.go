package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	adminhandler "aquita/internal/admin/handler"
	"aquita/internal/dispatch"
	intakesvc "aquita/internal/intake/service"
	"aquita/internal/intake/store/conversation"
	"aquita/internal/platform/config"
	"aquita/internal/platform/httpserver"
	"aquita/internal/platform/logger"
	"aquita/internal/platform/metrics"
	platformredis "aquita/internal/platform/redis"
	streamstore "aquita/internal/records/store/stream"
	userstore "aquita/internal/records/store/user"
	regsvc "aquita/internal/registration/service"
	httptransport "aquita/internal/transport/http"
	"aquita/internal/verify"
	webhookhandler "aquita/internal/webhook/handler"
	"aquita/pkg/platform/audit/publisher"
	auditkafka "aquita/pkg/platform/audit/store/kafka"
	auditmemory "aquita/pkg/platform/audit/store/memory"
)

// main wires configuration, stores, services, and the HTTP surface. Business
// logic lives in the internal services packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	for _, secret := range cfg.MissingSecrets() {
		log.Warn("secret not configured", "env", secret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Record stores: postgres when configured, in-memory otherwise.
	var (
		users   regsvc.UserStore
		finder  intakesvc.UserFinder
		streams intakesvc.StreamStore
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		userPG := userstore.NewPostgres(db)
		streamPG := streamstore.NewPostgres(db)
		if err := userPG.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := streamPG.EnsureSchema(ctx); err != nil {
			return err
		}
		users, finder, streams = userPG, userPG, streamPG
		log.Info("using postgres record stores")
	} else {
		userMem := userstore.NewInMemoryStore()
		users, finder, streams = userMem, userMem, streamstore.NewInMemoryStore()
		log.Info("using in-memory record stores")
	}

	// Conversation state: redis when configured, in-memory otherwise.
	var convs intakesvc.ConversationStore = conversation.NewInMemoryStore()
	if rc, err := platformredis.New(cfg.RedisURL); err != nil {
		return err
	} else if rc != nil {
		defer rc.Close()
		convs = conversation.NewRedisStore(rc.Client, 0)
		log.Info("using redis conversation store")
	}

	// Audit trail: kafka when brokers are configured, in-memory otherwise.
	var auditStore publisher.Store = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		ks, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer ks.Close()
		auditStore = ks
		log.Info("using kafka audit store", "topic", cfg.AuditTopic)
	}
	audit := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)
	defer audit.Close()

	verifier := verify.NewClient(cfg.CedulaAPIBaseURL, cfg.CedulaAppID, cfg.CedulaAPIToken, cfg.ExternalTimeout)
	dispatcher := dispatch.NewGreenAPIClient(
		cfg.GreenAPIBaseURL, cfg.GreenAPIIDInstance, cfg.GreenAPITokenInstance, cfg.ExternalTimeout)

	registrar := regsvc.New(users, verifier, log,
		regsvc.WithMetrics(m),
		regsvc.WithAudit(audit),
	)

	intakeOpts := []intakesvc.Option{
		intakesvc.WithMetrics(m),
		intakesvc.WithAudit(audit),
	}
	if !cfg.RequireStreamOwner {
		intakeOpts = append(intakeOpts, intakesvc.WithOptionalStreamOwner())
	}
	intake := intakesvc.New(convs, registrar, finder, streams, dispatcher, log, intakeOpts...)

	router := httptransport.NewRouter(httptransport.Deps{
		Webhook:        webhookhandler.New(intake, log),
		Admin:          adminhandler.New(registrar, cfg.AdminAPIKey, log),
		Logger:         log,
		RequestTimeout: cfg.ExternalTimeout * 2,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting aquita", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
