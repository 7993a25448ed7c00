package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/carefinder/libs/auth"
	"github.com/md-rashed-zaman/carefinder/libs/config"
	"github.com/md-rashed-zaman/carefinder/libs/db"
	"github.com/md-rashed-zaman/carefinder/libs/httpx"
	"github.com/md-rashed-zaman/carefinder/libs/kafkax"
	otelx "github.com/md-rashed-zaman/carefinder/libs/otel"
	"github.com/md-rashed-zaman/carefinder/libs/runtime"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/facility"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage/memory"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "booking-service",
		Short:         "Appointment booking and facility search API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context) error {
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	pool, err := db.Open(ctx, dbURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	if err := storage.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("schema applied")
	return nil
}

func serve() error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	checks := []runtime.ReadyCheck{}

	var (
		store storage.Store
		pool  *db.Pool
	)
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store (single process only)")
		store = memory.New()
	} else {
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			return err
		}
		defer pool.Close()
		store = storage.NewPostgres(pool, outbox.NewRepository())
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}

	var source facility.Source = store
	limiter := httpx.Limiter(httpx.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute))
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		source = facility.NewCachedSource(store, rdb, cfg.FacilityCacheTTL, logger)
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMin, time.Minute, "rl:"+cfg.Service)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if cfg.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: cfg.OutboxPoll,
		BatchSize: cfg.OutboxBatch,
	})
	go publisher.Run(ctx)

	metrics, err := booking.NewMetrics()
	if err != nil {
		logger.Warn("booking metrics unavailable", "err", err)
		metrics = &booking.Metrics{}
	}
	svc := booking.NewService(store, logger, metrics, booking.Config{
		Location:           cfg.Location,
		StoreTimeout:       cfg.StoreTimeout,
		CancellationNotice: cfg.CancellationNotice,
	})
	search := facility.NewSearcher(source, logger, cfg.StoreTimeout)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux,
		handlers.NewAppointmentHandler(svc, logger),
		handlers.NewFacilityHandler(search, logger),
		auth.RequireAuth(cfg.JWTSecret),
		auth.OptionalAuth(cfg.JWTSecret),
	)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.RateLimit(limiter, httpx.ClientIP, logger, true),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server error", "err", err)
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}
