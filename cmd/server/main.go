package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"paygate-be/internal/config"
	"paygate-be/internal/db"
	"paygate-be/internal/invoice"
	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/middleware"
	"paygate-be/internal/payment"
	"paygate-be/internal/payment/webhook"
	"paygate-be/internal/transport"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Seams for tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped with error", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	var database *sql.DB
	if cfg.StoreDriver == config.StoreDriverPostgres {
		database = initDBFunc(cfg)
		defer database.Close()
	}

	srv := newServer(cfg, database)
	defer srv.Close()

	addr := ":" + cfg.AppPort
	logger.L().Info("paygate server starting",
		zap.String("addr", addr),
		zap.String("app_url", cfg.AppURL),
		zap.String("env", cfg.AppEnv),
	)
	return startServerFunc(addr, srv)
}

// server is the fully wired HTTP handler plus the resources it owns.
type server struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	store   invoice.Repository
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *server) Close() {
	s.limiter.Stop()
}

func newServer(cfg *config.Config, database *sql.DB) *server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store := newInvoiceRepository(cfg, database, m)
	gateway := payment.NewPaystackGateway(cfg.PaystackSecretKey, cfg.PaystackBaseURL, m)
	invoiceSvc := invoice.NewService(store, gateway, m, invoice.Options{
		AppURL:          cfg.AppURL,
		DefaultCurrency: cfg.DefaultCurrency,
		CountryCode:     cfg.PhoneCountryCode,
	})

	api := transport.NewHandler(invoiceSvc)
	webhookHandler := webhook.NewWebhookHandler(invoiceSvc, gateway)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	limiter := middleware.NewRateLimiter()
	chain := alice.New(
		logger.RequestIDMiddleware,
		middleware.RecoverPanic,
		middleware.LoggingMiddleware,
		middleware.CORS(cfg.CORSAllowedOrigins),
		limiter.Middleware,
	)

	return &server{
		handler: chain.Then(setupRouter(api, webhookHandler.WebhookHandler, metricsHandler)),
		limiter: limiter,
		store:   store,
	}
}

func newInvoiceRepository(cfg *config.Config, database *sql.DB, m *metrics.Metrics) invoice.Repository {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if database != nil {
			return invoice.NewRepository(database)
		}
		logger.L().Warn("postgres store selected without a database, using file store")
	case config.StoreDriverMemory:
		logger.L().Warn("invoice store is in-memory, invoices are lost on restart")
		return invoice.NewMemoryRepository()
	}

	logger.L().Info("invoice file store", zap.String("path", cfg.StorePath))
	return invoice.NewFileRepository(cfg.StorePath, m)
}

// startServer serves until SIGINT or SIGTERM, then drains in-flight requests.
func startServer(addr string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
