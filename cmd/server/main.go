package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pulsefit/internal/catalog"
	"pulsefit/internal/notify"
	"pulsefit/internal/platform/config"
	"pulsefit/internal/platform/httpserver"
	"pulsefit/internal/platform/logger"
	platformmetrics "pulsefit/internal/platform/metrics"
	"pulsefit/internal/platform/middleware"
	"pulsefit/internal/platform/postgres"
	platformredis "pulsefit/internal/platform/redis"
	"pulsefit/internal/ratelimit"
	"pulsefit/internal/registration"
	reghandler "pulsefit/internal/registration/handler"
	regmetrics "pulsefit/internal/registration/metrics"
	regservice "pulsefit/internal/registration/service"
	regstore "pulsefit/internal/registration/store"
	httptransport "pulsefit/internal/transport/http"
)

// main wires dependencies from config and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		cat    catalog.Store
		ledger registration.Ledger
		outbox *notify.OutboxStore
	)
	if cfg.PostgresURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres pool", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()

		sqlDB, err := postgres.NewSQLDB(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres sql handle", "error", err.Error())
			os.Exit(1)
		}
		defer sqlDB.Close()

		cat = catalog.NewPostgres(pool)
		ledger = regstore.NewPostgres(pool)
		outbox = notify.NewOutboxStore(sqlDB)
	} else {
		log.Info("POSTGRES_URL not set, using in-memory stores")
		cat = catalog.NewInMemoryStore()
		ledger = regstore.NewInMemoryLedger()
	}

	// Notification delivery: Kafka when configured, log output otherwise.
	var publisher notify.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka publisher", "error", err.Error())
			os.Exit(1)
		}
		publisher = kafka
	} else {
		publisher = &notify.LogPublisher{Logger: log}
	}
	defer publisher.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	// Decision events flow through the outbox when PostgreSQL backs the
	// ledger, or an in-process buffer otherwise.
	var sink notify.Sink
	if outbox != nil {
		sink = outbox
		worker := notify.NewWorker(outbox, publisher, log)
		group.Go(func() error {
			if err := worker.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		buffer := notify.NewBuffer(publisher, 1024, log)
		sink = buffer
		group.Go(func() error {
			if err := buffer.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	// Rate limiter: Redis when configured, in-process otherwise.
	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis client", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.Middleware(limitStore, cfg.RateLimit, cfg.RateLimitWindow, log)

	admission, err := regservice.New(cat, ledger, sink, log, regmetrics.New())
	if err != nil {
		log.Error("admission service", "error", err.Error())
		os.Exit(1)
	}

	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)
	httpMetrics := platformmetrics.New()
	router := httptransport.NewRouter(log, httpMetrics,
		reghandler.New(admission, log, validator, limiter),
	)

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("starting pulsefit", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
