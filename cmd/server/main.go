package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/iho/vaultledger/internal/adapter/chain"
	httpAdapter "github.com/iho/vaultledger/internal/adapter/http"
	"github.com/iho/vaultledger/internal/adapter/http/handler"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/vaultledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/vaultledger/internal/adapter/repository/redis"
	"github.com/iho/vaultledger/internal/adapter/sandbox"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
	"github.com/iho/vaultledger/internal/infrastructure/config"
	"github.com/iho/vaultledger/internal/infrastructure/eventpublisher"
	"github.com/iho/vaultledger/internal/infrastructure/logger"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/infrastructure/postgres"
	"github.com/iho/vaultledger/internal/infrastructure/redis"
	"github.com/iho/vaultledger/internal/usecase"
)

// limiterSweepInterval is how often idle rate limiter entries are dropped.
const limiterSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zlog.Logger = log
	slog.SetDefault(logger.NewSlog(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	app.startBackground(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.Storage).
			Str("chain", cfg.ChainMode).
			Str("sink", cfg.EventSink).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// application is the wired service: the HTTP handler plus its background workers.
type application struct {
	handler   http.Handler
	bank      *usecase.BankUseCase
	limiter   *middleware.RateLimiter
	publisher *eventpublisher.EventPublisher
	log       zerolog.Logger
	closers   []func()
}

// storage is one ledger backend.
type storage struct {
	tx       usecase.TransactionManager
	balances usecase.BalanceRepository
	state    usecase.BankStateRepository
	outbox   usecase.OutboxRepository
	claims   usecase.DepositClaimRepository
	retrier  usecase.Retrier
}

// chainPorts is one custody backend.
type chainPorts struct {
	oracle   usecase.PriceOracle
	tokens   usecase.TokenTransferer
	native   usecase.NativeSender
	holdings usecase.HoldingsReader
	metadata usecase.TokenMetadataReader
	deposits usecase.NativeDepositVerifier
	custody  domain.Account
	book     *sandbox.Book
}

func newApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *application, err error) {
	app := &application{log: log}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	owner, err := cfg.Owner()
	if err != nil {
		return nil, err
	}
	usdCap, err := cfg.USDCap()
	if err != nil {
		return nil, err
	}
	withdrawalCap, err := cfg.InitialWithdrawalCap()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewWithRegisterer(registry)

	checks := map[string]handler.Checker{}

	store, err := app.openStorage(ctx, cfg, withdrawalCap, checks)
	if err != nil {
		return nil, err
	}

	ports, err := app.openChain(ctx, cfg, checks)
	if err != nil {
		return nil, err
	}

	var idempotency usecase.IdempotencyStore
	metadata := ports.metadata
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		checks["redis"] = handler.CheckFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })

		idempotency = redisRepo.NewIdempotencyStore(client)
		metadata = redisRepo.NewTokenMetadataCache(client, metadata, cfg.TokenMetadataTTL)
		log.Info().Msg("connected to redis")
	}

	outbox := store.outbox
	if !cfg.OutboxEnabled {
		discard := postgresRepo.NewNullOutboxRepository()
		app.closers = append(app.closers, func() {
			log.Info().Uint64("events", discard.Discarded()).Msg("outbox disabled, events were not stored")
		})
		outbox = discard
	}

	capPolicy := usecase.NewCapPolicy(usecase.NewPriceOracleGateway(ports.oracle, cfg.MaxPriceAge), usdCap).
		WithTreasury(ports.holdings, ports.custody)

	ledger := usecase.NewLedgerStore(store.balances)
	bank := usecase.NewBankUseCase(usecase.BankConfig{
		TxManager:      store.tx,
		StateRepo:      store.state,
		Ledger:         ledger,
		OutboxRepo:     outbox,
		CapPolicy:      capPolicy,
		Transfers:      usecase.NewTransferGateway(ports.tokens, ports.native, ports.custody),
		NativeDeposits: ports.deposits,
		Claims:         store.claims,
		Access:         usecase.NewOwnerGate(owner),
		Retrier:        store.retrier,
		IDGen:          postgresRepo.NewEventIDGenerator(),
		Metrics:        ledgerMetrics,
		Logger:         &log,
	})
	app.bank = bank

	var bankService handler.BankService = bank
	if ports.book != nil {
		bankService = sandbox.NewValueCarrier(bank, ports.book)
	}

	if cfg.OutboxEnabled {
		sink, err := app.openSink(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  sink,
			Logger:     slog.Default(),
			Metrics:    ledgerMetrics,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
	}

	authenticator := middleware.HeaderAuth(owner)
	if cfg.AuthEnabled {
		authenticator = middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration))
	} else {
		log.Warn().Str("header", middleware.AccountHeader).Msg("token auth disabled, trusting caller header")
	}

	app.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	app.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BankHandler: handler.NewBankHandler(bankService),
		QueryHandler: handler.NewQueryHandler(
			usecase.NewAccountUseCase(ledger, store.balances, metadata),
			bank,
			usecase.NewReconciliationUseCase(store.balances, store.state, ports.holdings, ports.custody),
		),
		HealthHandler:    handler.NewHealthHandler(checks),
		Authenticator:    authenticator,
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      app.limiter,
		Metrics:          middleware.NewHTTPMetrics(registry),
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:           log,
	})

	return app, nil
}

func (app *application) openStorage(ctx context.Context, cfg *config.Config, withdrawalCap *uint256.Int, checks map[string]handler.Checker) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore(withdrawalCap)
		app.log.Warn().Msg("using in-memory storage, state is lost on restart")
		return &storage{
			tx:       store,
			balances: memory.NewBalanceRepository(store),
			state:    memory.NewBankStateRepository(store),
			outbox:   memory.NewOutboxRepository(store),
			claims:   memory.NewDepositClaimRepository(store),
		}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, slog.Default()); err != nil {
		return nil, err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, pool.Close)
	checks["postgres"] = pool
	app.log.Info().Msg("connected to postgres")

	state := postgresRepo.NewBankStateRepository(pool)
	if err := state.Initialize(ctx, withdrawalCap); err != nil {
		return nil, fmt.Errorf("initialize bank state: %w", err)
	}

	return &storage{
		tx:       postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout),
		balances: postgresRepo.NewBalanceRepository(pool),
		state:    state,
		outbox:   postgresRepo.NewOutboxRepository(pool),
		claims:   postgresRepo.NewDepositClaimRepository(pool),
		retrier:  postgresRepo.NewRetrier(),
	}, nil
}

func (app *application) openChain(ctx context.Context, cfg *config.Config, checks map[string]handler.Checker) (*chainPorts, error) {
	if cfg.ChainMode == config.ChainSandbox {
		custody, err := cfg.Custody()
		if err != nil {
			return nil, fmt.Errorf("CUSTODY_ADDRESS: %w", err)
		}
		opening, err := cfg.SandboxOpeningBalance()
		if err != nil {
			return nil, err
		}
		price, err := cfg.SandboxPriceAnswer()
		if err != nil {
			return nil, fmt.Errorf("SANDBOX_PRICE: %w", err)
		}

		book := sandbox.NewBook(custody, opening)
		app.log.Warn().Str("custody", custody.Hex()).Msg("using sandbox chain")
		return &chainPorts{
			oracle:   sandbox.NewFixedPriceOracle(price, config.SandboxPriceDecimals),
			tokens:   book,
			native:   book,
			holdings: book,
			metadata: book,
			custody:  custody,
			book:     book,
		}, nil
	}

	client, err := chain.Dial(ctx, cfg.EthRPCURL, cfg.ChainID)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, client.Close)
	checks["chain"] = handler.CheckFunc(func(ctx context.Context) error {
		_, err := client.ChainID(ctx)
		return err
	})

	key, err := chain.ParsePrivateKey(cfg.CustodyPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("CUSTODY_PRIVATE_KEY: %w", err)
	}
	if !common.IsHexAddress(cfg.OracleAddress) {
		return nil, fmt.Errorf("ORACLE_ADDRESS: %w", domain.ErrInvalidAddress)
	}

	custodian := chain.NewCustodian(client, key, big.NewInt(cfg.ChainID), app.log)
	reader := chain.NewReader(client)
	app.log.Info().Str("custody", custodian.Address().Hex()).Msg("connected to chain")

	return &chainPorts{
		oracle:   chain.NewChainlinkOracle(client, common.HexToAddress(cfg.OracleAddress)),
		tokens:   custodian,
		native:   custodian,
		holdings: reader,
		metadata: reader,
		deposits: chain.NewDepositVerifier(client, big.NewInt(cfg.ChainID)),
		custody:  custodian.Address(),
	}, nil
}

func (app *application) openSink(ctx context.Context, cfg *config.Config) (eventpublisher.Publisher, error) {
	switch cfg.EventSink {
	case config.SinkRabbitMQ:
		sink, err := eventpublisher.DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = sink.Close() })
		return sink, nil
	case config.SinkClickHouse:
		sink, err := eventpublisher.OpenClickHouse(ctx, cfg.ClickHouseDSN, cfg.ClickHouseTable)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = sink.Close() })
		return sink, nil
	default:
		return eventpublisher.NewLogPublisher(slog.Default()), nil
	}
}

// startBackground runs the outbox worker and the rate limiter sweep until ctx ends.
func (app *application) startBackground(ctx context.Context) {
	if app.publisher != nil {
		go func() {
			if err := app.publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}
	if app.limiter != nil {
		go app.limiter.Run(ctx, limiterSweepInterval)
	}
}

// Close releases connections in reverse order of opening.
func (app *application) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
