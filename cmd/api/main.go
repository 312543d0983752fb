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

	"currency-exchange/config"
	httpHandler "currency-exchange/internal/adapter/http/handler"
	"currency-exchange/internal/adapter/metrics"
	memStorage "currency-exchange/internal/adapter/storage/memory"
	pgStorage "currency-exchange/internal/adapter/storage/postgres"
	redisStorage "currency-exchange/internal/adapter/storage/redis"
	"currency-exchange/internal/core/ports"
	"currency-exchange/internal/service"
	"currency-exchange/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// storage bundles the repositories of the selected driver.
type storage struct {
	offers       ports.OfferRepository
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	idempotency  ports.IdempotencyRepository
	audit        ports.AuditRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting currency exchange")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	seedMin, seedMax, err := cfg.Wallet.SeedRange()
	if err != nil {
		return err
	}

	var (
		opts      []service.Option
		checkers  = []ports.HealthChecker{store.health}
		routerDep = httpHandler.RouterDeps{
			RequestTimeout: cfg.Server.RequestTimeout,
			Logger:         log,
		}
	)

	// Redis backs the idempotency fast path, rate limiting and the event stream.
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		opts = append(opts, service.WithIdempotencyCache(redisStorage.NewIdempotencyCache(rdb)))
		if cfg.Events.Enabled {
			opts = append(opts, service.WithEventPublisher(
				redisStorage.NewEventPublisher(rdb, cfg.Events.Stream, cfg.Events.MaxLen)))
		}
		routerDep.RateLimitStore = redisStorage.NewRateLimitStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder := metrics.New(reg)
		opts = append(opts, service.WithMetrics(recorder))
		routerDep.HTTPMetrics = recorder
		routerDep.MetricsGatherer = reg
	}

	// Initialize business services
	settlementSvc := service.NewSettlementService(
		store.offers,
		store.wallets,
		store.transactions,
		store.idempotency,
		store.transactor,
		cfg.Wallet.Currencies,
		log,
		opts...,
	)
	walletSvc := service.NewWalletService(store.wallets, store.transactor, cfg.Wallet.Currencies, seedMin, seedMax, log)
	reportingSvc := service.NewReportingService(store.transactions, store.wallets)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(store.audit, log)
	defer auditSvc.Wait()

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	routerDep.SettlementSvc = settlementSvc
	routerDep.WalletSvc = walletSvc
	routerDep.ReportingSvc = reportingSvc
	routerDep.TokenSvc = tokenSvc
	routerDep.AuditSvc = auditSvc
	routerDep.HealthCheckers = checkers
	router := httpHandler.SetupRouter(routerDep)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if cfg.Matcher.Enabled {
		matcher := service.NewMatcher(
			store.offers,
			store.wallets,
			store.transactions,
			store.transactor,
			cfg.Matcher.BatchSize,
			log,
			opts...,
		)
		g.Go(func() error {
			return matcher.Run(gctx, cfg.Matcher.Interval)
		})
	}

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		st := memStorage.NewStore()
		log.Warn().Msg("Using in-memory storage; state is lost on restart")
		return &storage{
			offers:       memStorage.NewOfferRepo(st),
			wallets:      memStorage.NewWalletRepo(st),
			transactions: memStorage.NewTransactionRepo(st),
			idempotency:  memStorage.NewIdempotencyRepo(st),
			audit:        memStorage.NewAuditRepo(st),
			transactor:   st,
			health:       st,
			close:        func() {},
		}, nil
	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("PostgreSQL connected")
		return &storage{
			offers:       pgStorage.NewOfferRepo(pool),
			wallets:      pgStorage.NewWalletRepo(pool),
			transactions: pgStorage.NewTransactionRepo(pool),
			idempotency:  pgStorage.NewIdempotencyRepo(pool),
			audit:        pgStorage.NewAuditRepo(pool),
			transactor:   pgStorage.NewTransactor(pool),
			health:       pgStorage.NewHealthCheck(pool),
			close:        pool.Close,
		}, nil
	}
}
