package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bsm/redislock"
	"github.com/prometheus/client_golang/prometheus"

	"counsel/internal/integrity/cache"
	integritymetrics "counsel/internal/integrity/metrics"
	"counsel/internal/integrity/models"
	"counsel/internal/integrity/ports"
	"counsel/internal/integrity/repair"
	"counsel/internal/integrity/rules"
	"counsel/internal/integrity/service"
	"counsel/internal/platform/config"
	"counsel/internal/platform/logger"
	platformmetrics "counsel/internal/platform/metrics"
	"counsel/internal/platform/postgres"
	redisclient "counsel/internal/platform/redis"
	"counsel/internal/storage"
	pgstore "counsel/internal/storage/postgres"
	audit "counsel/pkg/platform/audit"
	"counsel/pkg/platform/audit/publisher"
	"counsel/pkg/platform/audit/publishers/kafka"
	auditmemory "counsel/pkg/platform/audit/store/memory"
	auditpostgres "counsel/pkg/platform/audit/store/postgres"
	"counsel/pkg/platform/circuit"
)

// app holds the wired process dependencies.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	svc       *service.Service
	registry  *prometheus.Registry
	db        *sql.DB
	redis     *redisclient.Client
	locker    *redislock.Client
	publisher *publisher.Publisher
	closers   []func() error
}

// buildApp wires stores, cache, audit sinks, and the service from cfg.
// Postgres, Redis, and Kafka are each optional; without them the process
// runs on in-memory stores, an in-memory cache, and an in-memory audit log.
func buildApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		logger:   logger.NewWithWriter(os.Stderr, cfg.Log.Format, cfg.Log.Level),
		registry: platformmetrics.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.db = db

	var (
		stores     ports.Stores
		auditStore audit.Appender
		repairOpts []repair.Option
	)
	if db != nil {
		a.closers = append(a.closers, db.Close)
		if err := pgstore.Migrate(ctx, db); err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, auditpostgres.Schema); err != nil {
			return nil, fmt.Errorf("apply audit schema: %w", err)
		}
		stores = pgstore.New(db).Ports()
		auditStore = auditpostgres.New(db)
		repairOpts = append(repairOpts, repair.WithTransactor(postgres.NewTransactor(db)))
	} else {
		a.logger.WarnContext(ctx, "no database configured; using in-memory stores")
		stores = storage.NewInMemory().Ports()
		auditStore = auditmemory.NewInMemoryStore()
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	local := cache.NewMemory(cfg.Integrity.CacheTTL)
	var resultCache service.ResultCache = local
	if rc != nil {
		a.redis = rc
		a.closers = append(a.closers, rc.Close)
		a.locker = redislock.New(rc.Client)
		if cfg.Integrity.CacheBackend == "redis" {
			resultCache = cache.NewFallback(
				cache.NewRedis(rc.Client, cfg.Integrity.CacheTTL),
				local,
				circuit.New("integrity-cache"),
				a.logger,
			)
		}
	} else if cfg.Integrity.CacheBackend == "redis" {
		return nil, errors.New("cache_backend redis requires redis.url")
	}

	sink := auditStore
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewClient(cfg.Kafka.Brokers)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		sink = audit.Multi{auditStore, kafka.New(client, cfg.Kafka.Topic)}
	}
	pubOpts := []publisher.Option{publisher.WithLogger(a.logger)}
	if cfg.Kafka.AsyncBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Kafka.AsyncBuffer))
	}
	a.publisher = publisher.NewPublisher(sink, pubOpts...)
	// drain buffered audit entries before the sinks close
	a.closers = append([]func() error{a.publisher.Close}, a.closers...)

	executor, err := repair.New(stores, repairOpts...)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.StaffStatus, 0, len(cfg.Integrity.ValidStaffStatuses))
	for _, s := range cfg.Integrity.ValidStaffStatuses {
		statuses = append(statuses, models.StaffStatus(s))
	}
	svc, err := service.New(stores,
		service.WithLogger(a.logger),
		service.WithMetrics(integritymetrics.NewWithRegisterer(a.registry)),
		service.WithCache(resultCache),
		service.WithRepairer(executor),
		service.WithAuditPublisher(a.publisher),
		service.WithBuiltinOptions(rules.BuiltinOptions{
			ValidStaffStatuses: statuses,
			DefaultStaffStatus: models.StaffStatus(cfg.Integrity.DefaultStaffStatus),
		}),
		service.WithDisabledRules(cfg.Integrity.DisabledRules...),
	)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return a, nil
}

// Health pings the configured backing services.
func (a *app) Health(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close drains the audit publisher, then closes connections.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
