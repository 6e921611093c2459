// cmd/evaluation-server/main.go
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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vc-readiness/internal/antigaming"
	"vc-readiness/internal/api"
	"vc-readiness/internal/catalog"
	"vc-readiness/internal/common/aws"
	"vc-readiness/internal/common/config"
	"vc-readiness/internal/common/database"
	"vc-readiness/internal/common/logger"
	"vc-readiness/internal/common/observability"
	"vc-readiness/internal/evaluation"
	"vc-readiness/internal/notify"
	"vc-readiness/internal/premium"
	"vc-readiness/internal/report"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting evaluation server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Catalog (fail fast) ---
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("question catalog is invalid", zap.Error(err))
	}
	zapLog.Info("Question catalog loaded", zap.Int("sections", len(cat.Sections)))

	checks := map[string]api.ReadinessCheck{}

	// --- Rate-limit store ---
	var limits antigaming.Store
	switch cfg.AntiGaming.Store {
	case "redis":
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		limits = antigaming.NewRedisStore(redis.GetClient(), redis.KeyPrefix)
		checks["redis"] = redis.Ping
	default:
		limits, err = antigaming.NewMemoryStore(cfg.AntiGaming.MemoryCapacity)
		if err != nil {
			zapLog.Fatal("rate-limit store init failed", zap.Error(err))
		}
	}

	// --- Evaluation store ---
	var store evaluation.Store
	switch cfg.Evaluation.Store {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		if err := database.EnsureSchema(ctx, pg.GetDB()); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		store = evaluation.NewPostgresStore(pg.GetDB())
		checks["postgres"] = pg.Ping
	default:
		store = evaluation.NewMemoryStore()
	}

	provider, err := buildPaymentProvider(cfg, zapLog)
	if err != nil {
		zapLog.Fatal("payment provider init failed", zap.Error(err))
	}

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	// --- Services ---
	policy := antigaming.Policy{
		MinDwell:      config.GetDuration(cfg.AntiGaming.MinDwellTime),
		HoneypotField: cfg.AntiGaming.HoneypotField,
		Limit: antigaming.Limit{
			Max:    cfg.AntiGaming.MaxSubmissions,
			Window: config.GetDuration(cfg.AntiGaming.Window),
		},
		ContentChecks: cfg.AntiGaming.ContentChecks,
	}
	if cfg.AntiGaming.MaxPerOrigin > 0 {
		policy.OriginLimit = antigaming.Limit{
			Max:    cfg.AntiGaming.MaxPerOrigin,
			Window: config.GetDuration(cfg.AntiGaming.Window),
		}
	}
	guard := antigaming.NewGuard(cat, limits, policy, log)
	evaluations := evaluation.NewService(cat, guard, store, notifier, log)
	premiumSvc := premium.NewService(
		premium.Config{AmountCents: cfg.Payment.AmountCents, Currency: cfg.Payment.Currency},
		provider, store, report.NewGenerator(cat), notifier, log,
	)

	handler := api.NewHandler(api.Deps{
		Catalog:         cat,
		Evaluations:     evaluations,
		Premium:         premiumSvc,
		Observability:   obs,
		Logger:          log,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RequestTimeout:  config.GetDuration(cfg.Server.RequestTimeout),
		ReadinessChecks: checks,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Evaluation server stopped gracefully")
}

// buildPaymentProvider selects the configured payment provider.
func buildPaymentProvider(cfg *config.Config, log *zap.Logger) (premium.PaymentProvider, error) {
	switch cfg.Payment.Provider {
	case "mock":
		log.Warn("Mock payment provider enabled: every issued payment intent verifies as paid",
			zap.String("environment", cfg.App.Environment),
			zap.Bool("allowMock", cfg.Payment.AllowMock),
		)
		return premium.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Payment.Provider)
	}
}

// buildNotifier wires the enabled notification channels.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Notifier, error) {
	var notifiers notify.Multi
	n := cfg.Notifications

	if n.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, n.AWS.Region, n.AWS.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		notifiers = append(notifiers, notify.NewSNSNotifier(client, n.SNS.TopicARN, log))
	}
	if n.Email.Enabled {
		client, err := aws.NewSESClient(ctx, n.AWS.Region, n.AWS.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(client, n.Email.FromEmail, n.Email.Recipients, log))
	}

	if len(notifiers) == 0 {
		return notify.Nop{}, nil
	}
	return notifiers, nil
}
