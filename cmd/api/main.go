package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ordercache "nftloan-backend/internal/adapter/cache"
	httpadp "nftloan-backend/internal/adapter/http"
	"nftloan-backend/internal/adapter/ledger"
	"nftloan-backend/internal/adapter/notifier"
	"nftloan-backend/internal/adapter/repository/gormstore"
	"nftloan-backend/internal/config"
	"nftloan-backend/internal/infrastructure/cache"
	"nftloan-backend/internal/infrastructure/db"
	"nftloan-backend/internal/infrastructure/kafka"
	"nftloan-backend/internal/infrastructure/logger"
	"nftloan-backend/internal/infrastructure/metrics"
	"nftloan-backend/internal/usecase/custody"
	"nftloan-backend/internal/usecase/order"
	"nftloan-backend/internal/usecase/relay"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	shutdownTimeout      = 30 * time.Second
	httpShutdownTimeout  = 10 * time.Second
	lifecycleWaitTimeout = 10 * time.Second
	outboxFlushTimeout   = 5 * time.Second
	cacheWatchBufferSize = 256
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), db.DefaultPool, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := gormstore.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.OpenRedis(cache.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// committed events: outbox -> relay -> redis, kafka
	sinks := notifier.NewFanout().
		Add("redis", notifier.NewRedisPublisher(rdb, cfg.EventsRedisChannel, log))
	var kafkaPub *notifier.KafkaPublisher
	if brokers := kafka.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaPub = notifier.NewKafkaPublisher(kafka.NewWriter(brokers, cfg.KafkaTopic))
		sinks.Add("kafka", kafkaPub)
	}
	rel := relay.New(gormstore.NewOutboxRepository(gdb), sinks, m, log, relay.Options{
		PollInterval: cfg.RelayPollInterval,
		BatchSize:    cfg.RelayBatchSize,
	})

	tx := gormstore.NewGormUoW(gdb)
	acc := ledger.NewAccessor(gormstore.NewOrderRepository(gdb), tx, log)
	orders := ordercache.NewOrderCache(rdb, cfg.OrderCacheTTL, log)
	engine := order.NewEngine(order.NewRepository(acc, orders, log), rel, m, log, order.Options{
		DefaultMaturity:     cfg.DefaultMaturity,
		RejectLateRepayment: cfg.RejectLateRepayment,
	})

	e := httpadp.NewRouter(httpadp.RouterDeps{
		Health: httpadp.NewHandler(map[string]httpadp.Pinger{
			"db":    httpadp.PingFunc(func(ctx context.Context) error { return db.Ping(ctx, gdb) }),
			"redis": httpadp.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}),
		Orders:         httpadp.NewOrderHandler(engine),
		Custody:        httpadp.NewCustodyHandler(custody.NewUsecase(tx)),
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Gatherer:       reg,
		Log:            log,
		AdminToken:     cfg.CustodyAdminToken,
	})

	if cfg.CustodyAdminToken == "" {
		log.Info("custody write routes disabled, CUSTODY_ADMIN_TOKEN is unset")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var lifecycle conc.WaitGroup

	lifecycle.Go(func() {
		if err := rel.Run(ctx); err != nil {
			log.Error("outbox relay stopped", zap.Error(err))
		}
	})

	// Every instance's events, this one's included, come back over redis and
	// fan out in-process. The cache watch is the single event-driven
	// invalidation; ApplyTransition still drops the key right after commit.
	hub := notifier.NewHub(log)
	local, unsubscribe := hub.Subscribe(cacheWatchBufferSize)
	lifecycle.Go(func() {
		defer unsubscribe()
		orders.Watch(ctx, local)
	})
	if err := hub.Feed(ctx, notifier.NewRedisSubscriber(rdb, cfg.EventsRedisChannel, log)); err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.EventsRedisChannel, err)
	}

	addr := ":" + cfg.AppPort
	lifecycle.Go(func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			cancel()
		}
	})

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	start := time.Now()
	performGracefulShutdown(shutdownCtx, log, gracefulShutdownConfig{
		server:     e,
		mainCancel: cancel,
		lifecycle:  &lifecycle,
		relay:      rel,
		kafka:      kafkaPub,
		redis:      rdb,
		db:         gdb,
	})
	log.Info("shutdown completed", zap.Duration("took", time.Since(start)))
	return nil
}

type gracefulShutdownConfig struct {
	server     *echo.Echo
	mainCancel context.CancelFunc
	lifecycle  *conc.WaitGroup
	relay      *relay.Relay
	kafka      *notifier.KafkaPublisher
	redis      *redis.Client
	db         *gorm.DB
}

func performGracefulShutdown(ctx context.Context, log *zap.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		log.Info("shutdown: " + name)
		if err := fn(stepCtx); err != nil {
			log.Warn("shutdown: "+name+" failed", zap.Error(err))
		}
	}

	shutdownStep("stopping http server", httpShutdownTimeout, func(stepCtx context.Context) error {
		return cfg.server.Shutdown(stepCtx)
	})

	cfg.mainCancel()

	shutdownStep("waiting for lifecycle goroutines", lifecycleWaitTimeout, func(stepCtx context.Context) error {
		done := make(chan struct{})
		go func() {
			cfg.lifecycle.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-stepCtx.Done():
			return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
		}
	})

	// events committed after the relay's last poll
	shutdownStep("flushing outbox", outboxFlushTimeout, func(stepCtx context.Context) error {
		n, err := cfg.relay.Drain(stepCtx)
		if n > 0 {
			log.Info("outbox flushed", zap.Int("events", n))
		}
		return err
	})

	if cfg.kafka != nil {
		shutdownStep("closing kafka writer", outboxFlushTimeout, func(context.Context) error {
			return cfg.kafka.Close()
		})
	}
	shutdownStep("closing redis", time.Second, func(context.Context) error {
		return cfg.redis.Close()
	})
	shutdownStep("closing database", time.Second, func(context.Context) error {
		sqlDB, err := cfg.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
}
