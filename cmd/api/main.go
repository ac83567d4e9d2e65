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
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/clinic-billing/internal/config"
	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/events"
	"github.com/josh-kwaku/clinic-billing/internal/handler"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
	"github.com/josh-kwaku/clinic-billing/internal/metrics"
	"github.com/josh-kwaku/clinic-billing/internal/middleware"
	"github.com/josh-kwaku/clinic-billing/internal/migration"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
	"github.com/josh-kwaku/clinic-billing/internal/service/billing"
	"github.com/josh-kwaku/clinic-billing/internal/service/report"
)

const version = "1.0.0"

type eventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("clinic-billing-api", cfg.LogLevel, cfg.AppEnv)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		PingAttempts:     cfg.DBPingAttempts,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migration.Up(db); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var publisher eventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("publishing billing events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "clinic_billing"),
	)

	documentRepo := repository.NewDocumentRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	billingSvc := billing.NewService(
		documentRepo,
		repository.NewLineItemRepository(db),
		repository.NewPaymentEventRepository(db),
		repository.NewCatalogRepository(db),
		publisher,
		metrics.New(registry),
		db,
		domain.PaymentPolicy{AllowAfterClose: cfg.AllowPaymentAfterClose},
	)
	reportSvc := report.NewService(documentRepo, location)

	documents := handler.NewDocumentHandler(billingSvc)
	reports := handler.NewReportHandler(reportSvc, location)
	health := handler.NewHealthHandler(db, version)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/documents", documents.Open)
	api.HandleFunc("GET /api/v1/documents/{id}", documents.Get)
	api.HandleFunc("POST /api/v1/documents/{id}/close", documents.Close)
	api.HandleFunc("POST /api/v1/documents/{id}/services", documents.AddService)
	api.HandleFunc("POST /api/v1/documents/{id}/medications", documents.AddMedication)
	api.HandleFunc("POST /api/v1/documents/{id}/feed-items", documents.AddFeedItem)
	api.HandleFunc("POST /api/v1/documents/{id}/adjustments", documents.AddAdjustment)
	api.HandleFunc("POST /api/v1/documents/{id}/payments", documents.ApplyPayment)
	api.HandleFunc("GET /api/v1/subjects/{ref}/documents", documents.ListBySubject)
	api.HandleFunc("GET /api/v1/reports/revenue", reports.Revenue)
	api.HandleFunc("GET /api/v1/reports/outstanding", reports.Outstanding)
	api.HandleFunc("GET /api/v1/reports/staff-earnings", reports.StaffEarnings)
	api.HandleFunc("GET /api/v1/reports/clients/{ref}", reports.ClientSummary)

	protected := middleware.Auth(cfg.JWTSecret)(middleware.Idempotency(idempotencyRepo, cfg.IdempotencyTTL)(api))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec())
	mux.Handle("/api/v1/", protected)

	root := middleware.Recovery(middleware.Tracing(middleware.Logging(logger)(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(root, "clinic-billing-api"),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	go pruneIdempotencyCache(workerCtx, idempotencyRepo, time.Hour)

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stopWorkers()
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func pruneIdempotencyCache(ctx context.Context, repo *repository.IdempotencyRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				slog.Warn("idempotency cache prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("idempotency cache pruned", "removed", n)
			}
		}
	}
}
