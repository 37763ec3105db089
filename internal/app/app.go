package app

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showbook/internal/config"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/payment"
	"github.com/kirinyoku/showbook/internal/postgres"
	redisx "github.com/kirinyoku/showbook/internal/redis"
	"github.com/kirinyoku/showbook/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/showbook/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/showbook/internal/repository/redis"
	"github.com/kirinyoku/showbook/internal/service"
	"github.com/kirinyoku/showbook/internal/service/catalog"
	"github.com/kirinyoku/showbook/internal/service/reservation"
	"github.com/kirinyoku/showbook/internal/telemetry"
	httpgin "github.com/kirinyoku/showbook/internal/transport/http/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	services *service.Services
	pool     *pgxpool.Pool
	rdb      *redis.Client
	pubsub   *redisx.ShowsPubSub

	shutdownTelemetry func(context.Context)
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{cfg: cfg, logger: logger}

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint: cfg.Telemetry.Endpoint,
		Env:      cfg.Telemetry.Env,
		Version:  version,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to initialize telemetry: %w", op, err)
	}
	a.shutdownTelemetry = shutdownTelemetry

	backend, err := a.backend(ctx)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		cache   *redisrepo.Cache
		idem    httpgin.IdempotencyStore
		pub     catalog.Publisher
		alerter reservation.Alerter
		limiter httpgin.RateLimiter
	)

	if cfg.Redis.Addr != "" {
		rdb, err := redisx.New(ctx, redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("%s: failed to initialize redis: %w", op, err)
		}
		a.rdb = rdb
		a.pubsub = redisx.NewShowsPubSub(rdb)

		cache = redisrepo.New(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)
		pub = a.pubsub
		alerter = &ledgerAlerts{pub: redisx.NewAlertPublisher(rdb), log: logger}
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "bookings", cfg.Booking.RateLimitPerMinute, time.Minute)
	} else {
		logger.Info("redis not configured, caching and idempotency disabled")
	}

	payments, err := payment.New(payment.Config{
		Method:               cfg.Payment.Method,
		WalletInitialBalance: cfg.Payment.WalletInitialBalance,
		StripeSecretKey:      cfg.Payment.StripeSecretKey,
		StripePaymentMethod:  cfg.Payment.StripePaymentMethod,
	}, logger)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.services = service.NewServices(service.Deps{
		Backend:  backend,
		Cache:    cache,
		PubSub:   pub,
		Payments: payments,
		Alerter:  alerter,
		Logger:   logger,
	}, service.Config{
		Reservation: reservation.Config{PaymentTimeout: cfg.Payment.Timeout},
	})

	router := httpgin.NewRouter(a.services, idem, limiter, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) backend(ctx context.Context) (service.Backend, error) {
	switch a.cfg.Storage {
	case config.StoragePostgres:
		dsn := a.cfg.Postgres.DSN()

		if err := postgres.Migrate(dsn); err != nil {
			return service.Backend{}, fmt.Errorf("failed to migrate postgres: %w", err)
		}

		pool, err := postgres.New(ctx, postgres.Config{
			DSN:      dsn,
			MaxConns: a.cfg.Postgres.MaxConns,
			MinConns: 2,
		})
		if err != nil {
			return service.Backend{}, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.pool = pool

		store := postgresrepo.NewStore(pool)
		return service.Backend{
			Catalog: store.Catalog(),
			Seats:   store.Seats(),
			Users:   store.Users(),
			Ledger:  store.Bookings(),
			Tx:      store,
		}, nil
	default:
		a.logger.Warn("using in-memory storage, data is lost on restart")

		store := memory.NewStore()
		return service.Backend{
			Catalog: store.Catalog(),
			Seats:   store.Seats(),
			Users:   store.Users(),
			Ledger:  store.Bookings(),
			Tx:      store,
		}, nil
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Other instances publish show changes; drop our cached listings for them.
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, a.services.Catalog.HandleShowChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("show change subscription stopped", "error", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := a.httpServer.Shutdown(ctx)
		a.close(ctx)
		return err
	})

	return g.Wait()
}

func (a *App) close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.shutdownTelemetry != nil {
		a.shutdownTelemetry(ctx)
	}
}

// ledgerAlerts forwards charges without a recorded booking to the operator
// alert channel.
type ledgerAlerts struct {
	pub *redisx.AlertPublisher
	log *slog.Logger
}

func (a *ledgerAlerts) LedgerWriteFailed(ctx context.Context, lerr *reservation.LedgerWriteFailedError) {
	seats := make([]string, len(lerr.Draft.Seats))
	for i, s := range lerr.Draft.Seats {
		seats[i] = s.ID
	}

	err := a.pub.Publish(ctx, "ledger_write_failed", map[string]any{
		"user_id":     lerr.Draft.UserID,
		"show_id":     lerr.Draft.ShowID,
		"seats":       seats,
		"amount":      lerr.Draft.Amount,
		"seat_status": lerr.SeatStatus,
		"error":       lerr.Err.Error(),
	})
	if err != nil {
		a.log.ErrorContext(ctx, "publishing ledger alert", "error", err)
	}
}

func (a *ledgerAlerts) ChargeAfterTimeout(ctx context.Context, c domain.Charge, seatIDs []string) {
	err := a.pub.Publish(ctx, "charge_after_timeout", map[string]any{
		"reference": c.Reference,
		"user_id":   c.UserID,
		"show_id":   c.ShowID,
		"seats":     seatIDs,
		"amount":    c.Amount,
	})
	if err != nil {
		a.log.ErrorContext(ctx, "publishing late charge alert", "error", err)
	}
}
