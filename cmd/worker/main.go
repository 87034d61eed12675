package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/vetclinic/internal/config"
	"github.com/jwalitptl/vetclinic/internal/handler/health"
	"github.com/jwalitptl/vetclinic/internal/handler/prometheus"
	"github.com/jwalitptl/vetclinic/internal/repository/postgres"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/messaging/redis"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
	"github.com/jwalitptl/vetclinic/pkg/worker"
)

const healthAddr = ":8081"

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != "postgres" {
		fmt.Fprintf(os.Stderr, "worker requires the postgres driver, got %q\n", cfg.Database.Driver)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	}).WithFields(map[string]interface{}{"component": "worker"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()
	repos := postgres.NewRepositories(db, nil)

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryBackoff: time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}, log)
	if err != nil {
		log.Fatal(err, "failed to create redis broker")
	}
	defer broker.Close()

	m := metrics.New("vetclinic_worker")
	reg := prom.NewRegistry()
	if err := m.Register(reg); err != nil {
		log.Fatal(err, "failed to register metrics")
	}

	processor, err := worker.NewOutboxProcessor(repos.Outbox, broker, worker.OutboxProcessorConfig{
		Channel:       cfg.Redis.Channel,
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.MaxRetries,
		RetryDelay:    time.Second,
	}, log, m)
	if err != nil {
		log.Fatal(err, "invalid outbox configuration")
	}
	cleaner := worker.NewAuditCleanupWorker(repos.Audit, cfg.Audit.Retention, cfg.Audit.CleanupInterval, log)

	srv := healthServer(reg, health.Check{Name: "database", Ping: db.PingContext})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health check server failed")
			cancel()
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleaner.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "health server forced to shutdown")
	}
}

func healthServer(gatherer prom.Gatherer, checks ...health.Check) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks...).RegisterRoutes(&engine.RouterGroup)
	prometheus.New(gatherer).RegisterRoutes(engine)

	return &http.Server{Addr: healthAddr, Handler: engine, ReadHeaderTimeout: 5 * time.Second}
}
