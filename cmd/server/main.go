package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"kycdesk/internal/access"
	accesshandler "kycdesk/internal/access/handler"
	"kycdesk/internal/access/token"
	"kycdesk/internal/events"
	httpapi "kycdesk/internal/http"
	"kycdesk/internal/platform/config"
	"kycdesk/internal/platform/httpserver"
	"kycdesk/internal/platform/kafka"
	"kycdesk/internal/platform/logger"
	"kycdesk/internal/platform/metrics"
	"kycdesk/internal/platform/postgres"
	"kycdesk/internal/platform/redis"
	"kycdesk/internal/platform/sqlite"
	"kycdesk/internal/recordstore"
	"kycdesk/internal/submission"
	submissionhandler "kycdesk/internal/submission/handler"
	"kycdesk/internal/verification"
	"kycdesk/internal/verification/providers/facematch"
	"kycdesk/internal/verification/providers/ocr"
	"kycdesk/internal/wizard"
	wizardhandler "kycdesk/internal/wizard/handler"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("kycdesk stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("kycdesk stopped")
}

// closers run in reverse order on shutdown.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var cleanup closers
	defer cleanup.run()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checks := map[string]httpapi.HealthCheck{}

	store, err := openStore(ctx, cfg, log, checks, &cleanup)
	if err != nil {
		return err
	}
	records := recordstore.NewRecords(store,
		recordstore.WithLogger(log),
		recordstore.WithCache(cfg.Store.CacheMax, cfg.Store.CacheTTL),
	)

	publisher, err := openPublisher(ctx, cfg.Kafka, log, reg, checks, &cleanup)
	if err != nil {
		return err
	}

	faces, err := faceComparer(ctx, cfg.AI, log)
	if err != nil {
		return err
	}
	verifier, err := verification.New(ocr.New(), faces,
		verification.WithLogger(log),
		verification.WithMetrics(verification.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	submissions := submission.New(records,
		submission.WithLogger(log),
		submission.WithPublisher(publisher),
	)
	wizards := wizard.New(verifier, submissions, records,
		wizard.WithLogger(log),
		wizard.WithMetrics(wizard.NewMetrics(reg)),
		wizard.WithSessionLimits(cfg.Wizard.MaxSessions, cfg.Wizard.SessionTTL),
	)

	tokens := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	accessSvc := access.New(records,
		access.WithLogger(log),
		access.WithPublisher(publisher),
		access.WithTokens(tokens, cfg.Auth.TokenTTL),
	)
	if err := accessSvc.Bootstrap(ctx, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
		return fmt.Errorf("bootstrap access control: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         checks,
		Handlers: []httpapi.Registrar{
			wizardhandler.New(wizards, log),
			submissionhandler.New(submissions, accessSvc, tokens, log),
			accesshandler.New(accessSvc, log, tokens),
		},
	})
	srv := httpserver.New(cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting kycdesk",
			"addr", cfg.Server.Addr,
			"store", cfg.Store.Backend,
			"kafka", len(cfg.Kafka.Brokers) > 0,
			"face_matcher", faceMatcherName(cfg.AI),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httpapi.HealthCheck, cleanup *closers) (recordstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		log.Warn("using in-memory record store; data is lost on restart")
		return recordstore.NewInMemory(), nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		cleanup.add(func() { _ = db.Close() })
		checks["store"] = db.PingContext
		return recordstore.NewSQLite(db), nil

	case config.BackendRedis:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cleanup.add(func() { _ = client.Close() })
		checks["store"] = client.Health
		return recordstore.NewRedis(client.Client, client.Prefix), nil

	case config.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres store")
		}
		if err := postgres.UpMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		cleanup.add(pool.Close)
		checks["store"] = pool.Ping
		return recordstore.NewPostgres(pool), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
}

func openPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, reg prometheus.Registerer, checks map[string]httpapi.HealthCheck, cleanup *closers) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.NewMemory(1000), nil
	}
	producer, err := kafka.NewProducer(ctx, cfg.Brokers, cfg.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	cleanup.add(producer.Close)
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		log.Warn("could not provision event topic", "topic", cfg.Topic, "error", err)
	}
	checks["events"] = producer.Health
	return events.NewKafka(producer, events.NewMetrics(reg)), nil
}

func faceComparer(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (verification.FaceMatcher, error) {
	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; face comparison uses the fixed-score stub", "score", cfg.StubScore)
		return facematch.NewStub(cfg.StubScore), nil
	}
	return facematch.NewGemini(ctx, facematch.GeminiConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, nil)
}

func faceMatcherName(cfg config.AIConfig) string {
	if cfg.APIKey == "" {
		return "stub"
	}
	return "gemini"
}
