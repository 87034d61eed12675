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

	"github.com/jmoiron/sqlx"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/config"
	"github.com/jwalitptl/vetclinic/internal/email"
	appointmentHandler "github.com/jwalitptl/vetclinic/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/vetclinic/internal/handler/audit"
	authHandler "github.com/jwalitptl/vetclinic/internal/handler/auth"
	clinicalHandler "github.com/jwalitptl/vetclinic/internal/handler/clinical"
	employeeHandler "github.com/jwalitptl/vetclinic/internal/handler/employee"
	"github.com/jwalitptl/vetclinic/internal/handler/health"
	invoiceHandler "github.com/jwalitptl/vetclinic/internal/handler/invoice"
	ownerHandler "github.com/jwalitptl/vetclinic/internal/handler/owner"
	petHandler "github.com/jwalitptl/vetclinic/internal/handler/pet"
	"github.com/jwalitptl/vetclinic/internal/handler/prometheus"
	"github.com/jwalitptl/vetclinic/internal/middleware"
	"github.com/jwalitptl/vetclinic/internal/repository"
	"github.com/jwalitptl/vetclinic/internal/repository/memory"
	"github.com/jwalitptl/vetclinic/internal/repository/postgres"
	"github.com/jwalitptl/vetclinic/internal/router"
	"github.com/jwalitptl/vetclinic/internal/service/access"
	appointmentService "github.com/jwalitptl/vetclinic/internal/service/appointment"
	auditService "github.com/jwalitptl/vetclinic/internal/service/audit"
	authService "github.com/jwalitptl/vetclinic/internal/service/auth"
	clinicalService "github.com/jwalitptl/vetclinic/internal/service/clinical"
	employeeService "github.com/jwalitptl/vetclinic/internal/service/employee"
	eventService "github.com/jwalitptl/vetclinic/internal/service/event"
	invoiceService "github.com/jwalitptl/vetclinic/internal/service/invoice"
	ownerService "github.com/jwalitptl/vetclinic/internal/service/owner"
	petService "github.com/jwalitptl/vetclinic/internal/service/pet"
	"github.com/jwalitptl/vetclinic/pkg/auth"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
	"github.com/jwalitptl/vetclinic/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	// Initialize storage
	repos, db, err := openRepositories(cfg)
	if err != nil {
		log.Fatal(err, "failed to initialize storage", "driver", cfg.Database.Driver)
	}
	if db != nil {
		defer db.Close()
	}

	// Initialize metrics
	m := metrics.New("vetclinic")
	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := m.Register(reg); err != nil {
		log.Fatal(err, "failed to register metrics")
	}

	// Initialize shared collaborators
	auditor := auditService.NewService(repos.Audit)
	guard := access.NewGuard(authz.NewEngine(), repos, auditor, m, log)
	events := eventService.NewService(repos.Outbox, log)
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	// Initialize services
	authSvc := authService.NewService(repos, jwtSvc, hasher, guard, auditor, log)
	ownerSvc := ownerService.NewService(repos.Owners, guard, events)
	petSvc := petService.NewService(repos, guard, events)
	employeeSvc := employeeService.NewService(repos.Employees, guard, events, hasher)
	appointmentSvc := appointmentService.NewService(repos, guard, events, m)
	clinicalSvc := clinicalService.NewService(repos, guard, events, log)
	invoiceSvc := invoiceService.NewService(repos, guard, events, email.New(cfg.SMTP, log), m, log)

	// Initialize handlers
	var checks []health.Check
	if db != nil {
		checks = append(checks, health.Check{Name: "database", Ping: db.PingContext})
	}
	handlers := router.Handlers{
		Auth:        authHandler.NewHandler(authSvc),
		Owner:       ownerHandler.NewHandler(ownerSvc),
		Pet:         petHandler.NewHandler(petSvc),
		Employee:    employeeHandler.NewHandler(employeeSvc),
		Appointment: appointmentHandler.NewHandler(appointmentSvc),
		Clinical:    clinicalHandler.NewHandler(clinicalSvc),
		Invoice:     invoiceHandler.NewHandler(invoiceSvc),
		Audit:       auditHandler.NewHandler(auditor),
		Health:      health.NewHandler(checks...),
		Metrics:     prometheus.New(reg),
	}

	r, err := router.NewRouter(handlers, middleware.NewAuthMiddleware(authSvc), m, log, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit: middleware.RateLimiterConfig{
			RPS:     cfg.RateLimit.RequestsPerSecond,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		},
		RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		MaxBodyBytes:   1 << 20,
	})
	if err != nil {
		log.Fatal(err, "failed to build router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "server forced to shutdown")
	}
	log.Info("server exited")
}

// openRepositories returns the configured store. db is nil for the memory driver.
func openRepositories(cfg *config.Config) (repository.Repositories, *sqlx.DB, error) {
	if cfg.Database.Driver == "memory" {
		return memory.NewStore().Repositories(), nil, nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return repository.Repositories{}, nil, err
	}

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
	}

	var cipher postgres.FieldCipher
	if key := cfg.Security.EncryptionKey; key != "" {
		c, err := security.NewFieldCipher([]byte(key))
		if err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
		cipher = c
	}
	return postgres.NewRepositories(db, cipher), db, nil
}
