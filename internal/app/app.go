// Package app holds the startup wiring shared by the service binaries:
// infrastructure connections, the HTTP router and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ms-booking/internal/auth"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/gateway"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/metrics"
	"ms-booking/internal/models"
	"ms-booking/internal/payment/processor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

// Infra is the set of external connections a service runs on. Redis and
// Producer are nil when disabled in config.
type Infra struct {
	DB       *bun.DB
	Redis    *redis.Client
	Producer *kafka.Producer
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Bootstrap connects postgres, applies migrations and opens the optional
// redis and kafka connections.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Infra, error) {
	infra := &Infra{Metrics: metrics.New(), Logger: log}

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	infra.DB = bunDB

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir, log)
		if err := runner.MigrateUp(); err != nil {
			infra.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		client, err := database.ConnectRedis(ctx, cfg.Redis.Addr, log)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = client
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.TopicNames(cfg.Kafka.Topics), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		infra.Producer = kafka.NewProducer(cfg.Kafka, log)
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %s", strings.Join(cfg.Kafka.Brokers, ",")))
	}

	return infra, nil
}

func (i *Infra) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.Logger.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.Logger.Error("REDIS", fmt.Sprintf("Failed to close redis: %v", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			i.Logger.Error("DATABASE", fmt.Sprintf("Failed to close database: %v", err))
		}
	}
}

// TokenSource returns the client-credentials source for outbound calls, or nil
// when M2M auth is not configured. The token is shared through redis when available.
func TokenSource(cfg config.AuthConfig, services config.ServicesConfig, rdb *redis.Client, log *logger.Logger) gateway.TokenSource {
	if !cfg.M2MEnabled() {
		return nil
	}
	var cache auth.TokenCache = auth.NewMemoryTokenCache()
	if rdb != nil {
		cache = auth.NewRedisTokenCache(rdb)
	}
	m2m := models.M2MConfig{
		KeycloakURL:   cfg.KeycloakURL,
		KeycloakRealm: cfg.KeycloakRealm,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
	}
	log.Info("AUTH", fmt.Sprintf("M2M tokens enabled for client %s", cfg.ClientID))
	return auth.NewM2MTokenSource(m2m, &http.Client{Timeout: services.Timeout}, cache, log)
}

// Gateway returns the sibling-service client, attaching M2M tokens when configured.
func Gateway(cfg *config.Config, rdb *redis.Client, log *logger.Logger) *gateway.HTTPClient {
	var opts []gateway.Option
	if ts := TokenSource(cfg.Auth, cfg.Services, rdb, log); ts != nil {
		opts = append(opts, gateway.WithTokenSource(ts))
	}
	return gateway.NewHTTPClient(cfg.Services, log, opts...)
}

// PaymentGateway picks the outcome provider named in cfg.Gateway.
func PaymentGateway(cfg config.PaymentConfig, log *logger.Logger) (processor.Gateway, error) {
	switch strings.ToLower(cfg.Gateway) {
	case "stripe":
		return processor.NewStripeGateway(cfg.StripeSecretKey, cfg.StripePaymentMethod, log)
	case "simulated", "":
		log.Info("PAYMENT", fmt.Sprintf("Using simulated payment gateway with success rate %.2f", cfg.SuccessRate))
		return processor.NewSimulatedGateway(cfg.SuccessRate), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
	}
}

// NewRouter builds the root router with request metrics, /health and /metrics.
// mount registers the service routes, behind OIDC verification when an
// issuer is configured.
func NewRouter(ctx context.Context, cfg config.AuthConfig, m *metrics.Metrics, log *logger.Logger, mount func(r chi.Router)) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler())

	if cfg.OIDCIssuer == "" {
		log.Warn("AUTH", "OIDC_ISSUER not set, API routes are not authenticated")
		mount(r)
		return r, nil
	}

	verifier, err := auth.NewVerifier(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("oidc verifier: %w", err)
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		log.Info("AUTH", "JWT middleware applied to API routes")
		mount(r)
	})
	return r, nil
}

// Serve runs srv until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// it down and runs cleanup with the remaining shutdown budget.
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, log *logger.Logger, cleanup ...func(context.Context)) error {
	server := &http.Server{
		Addr:         cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Listening on %s", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	}
	for _, fn := range cleanup {
		fn(shutdownCtx)
	}
	log.Info("APP", "✅ Shutdown complete")
	return err
}
