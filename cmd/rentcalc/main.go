package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"rentcalc/internal/app"
	"rentcalc/internal/app/fixtures"
	"rentcalc/internal/app/middleware"
	appoutbox "rentcalc/internal/app/outbox"
	"rentcalc/internal/app/policies"
	"rentcalc/internal/app/uow"
	"rentcalc/internal/infra/broker/kafka"
	rediscache "rentcalc/internal/infra/cache/redis"
	"rentcalc/internal/infra/config"
	mongostore "rentcalc/internal/infra/db/mongo"
	ginserver "rentcalc/internal/infra/http/gin"
	"rentcalc/internal/infra/inbox"
	"rentcalc/internal/infra/obs"
	outboxworker "rentcalc/internal/infra/outbox"
	"rentcalc/internal/infra/schedule"
	"rentcalc/internal/infra/storage/memory"
	"rentcalc/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(obs.LoggerOptions{Env: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	rt, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer rt.close(logger)

	application := app.New(app.Deps{
		UoWFactory:    rt.uow,
		Outbox:        rt.outbox,
		Idempotency:   rt.idempotency,
		Cache:         rt.cache,
		Validator:     validation.New(),
		Logger:        logger,
		MaxWindowDays: cfg.MaxWindowDays,
	})

	if cfg.StorageMode == config.StorageMemory {
		path := cfg.FixturesPath
		if path == "" {
			path = fixtures.DefaultPath()
		}
		sum, err := fixtures.LoadFile(ctx, path, application.Commands, logger)
		if err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", path)
		} else if sum.Properties > 0 {
			logger.Info("fixtures loaded", "path", path, "properties", sum.Properties,
				"pricing_periods", sum.PricingPeriods, "reservations", sum.Reservations, "rejected", sum.Rejected)
		}
	}

	var wg sync.WaitGroup
	for _, bg := range rt.background {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background task stopped", "task", name, "error", err)
			}
		}(bg.name, bg.run)
	}

	if rt.scheduler != nil {
		rt.scheduler.Start()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks:  rt.checks,
		Timeout: 2 * time.Second,
	}, ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: application.Queries, Commands: application.Commands, Logger: logger},
		Pricing:      ginserver.PricingHandler{Queries: application.Queries, Commands: application.Commands, Logger: logger},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if rt.scheduler != nil {
			rt.scheduler.Stop(shutdownCtx)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "cache", cfg.CacheMode, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
	}
	stop()
	wg.Wait()
	logger.Info("HTTP server stopped")
}

type backgroundTask struct {
	name string
	run  func(context.Context) error
}

type services struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	cache       policies.SnapshotCache

	checks     map[string]obs.Check
	background []backgroundTask
	scheduler  *schedule.Scheduler
	closers    []func(context.Context) error
}

func buildServices(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *services, err error) {
	rt := &services{checks: map[string]obs.Check{}}
	defer func() {
		if err != nil {
			rt.close(logger)
		}
	}()

	groupID := cfg.InvalidationGroupID(instanceID())
	var deduper kafka.Deduper
	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		rt.checks["mongo"] = client.Ping
		rt.uow = mongostore.NewFactory(client.DB)
		rt.idempotency = mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := outboxworker.NewStore(client.DB)
		rt.outbox = store
		deduper = inbox.NewStore(client.DB, groupID, cfg.IdempotencyTTL)
		if cfg.KafkaEnabled() {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, err
			}
			rt.closers = append(rt.closers, func(context.Context) error { return producer.Close() })
			worker := &outboxworker.Worker{
				Store:       store,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			rt.background = append(rt.background, backgroundTask{name: "outbox-worker", run: worker.Run})
		} else {
			logger.Warn("kafka brokers not configured; outbox records will not be published")
		}
	default:
		rt.uow = memory.Factory{Store: memory.NewStore()}
		rt.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		rt.outbox = memory.NewOutbox(logger)
	}

	switch cfg.CacheMode {
	case config.CacheRedis:
		client := rediscache.NewClient(rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		cache := rediscache.NewSnapshotCache(client, "", cfg.CacheTTL)
		rt.checks["redis"] = cache.Ping
		rt.cache = cache
	case config.CacheMemory:
		rt.cache = memory.NewSnapshotCache(cfg.CacheTTL)
	}

	if rt.cache != nil && cfg.KafkaEnabled() {
		handler := kafka.InvalidationHandler{Cache: rt.cache, Inbox: deduper}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, groupID, nil, handler, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return consumer.Close() })
		topics := kafka.Topics(cfg.KafkaTopicPrefix)
		rt.background = append(rt.background, backgroundTask{
			name: "cache-invalidation",
			run:  func(ctx context.Context) error { return consumer.Run(ctx, topics) },
		})
	}

	if rt.cache != nil && cfg.CacheFlushSchedule != "" {
		rt.scheduler = schedule.New(logger, time.Minute)
		if err := rt.scheduler.Add("snapshot-cache-flush", cfg.CacheFlushSchedule, schedule.FlushJob(rt.cache)); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// instanceID names this process among the replicas of the service.
func instanceID() string {
	suffix := uuid.NewString()[:8]
	if host, err := os.Hostname(); err == nil && host != "" {
		return host + "-" + suffix
	}
	return suffix
}

// close releases resources in reverse order of acquisition.
func (rt *services) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
