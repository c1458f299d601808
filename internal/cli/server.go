package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"casper-learning/internal/app"
	"casper-learning/internal/assistant"
	"casper-learning/internal/casper"
	"casper-learning/internal/catalog"
	"casper-learning/internal/config"
	"casper-learning/internal/i18n"
	"casper-learning/internal/infra/memory"
	pgcatalog "casper-learning/internal/infra/postgres"
	redisinfra "casper-learning/internal/infra/redis"
	"casper-learning/internal/infra/sqlite"
	"casper-learning/internal/scheduler"
	transport "casper-learning/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the learning server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := i18n.Init(cfg.I18n.DefaultLanguage); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	kv, closeKV, err := newKVStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeKV.Close()

	var loader memory.CatalogLoader = catalog.NewFileLoader(cfg.Catalog.Path)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = catalog.NewValidatingLoader(pgcatalog.NewCatalogLoader(pool))
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogRepo app.CatalogRepository
	if redisClient != nil {
		catalogRepo = redisinfra.NewCatalogRepository(redisClient, loader, cfg.Storage.Namespace, catalogTTL)
	} else {
		catalogRepo = memory.NewCatalogRepository(loader, catalogTTL)
	}
	// Fail fast on a broken catalog rather than on the first learner request.
	modules, err := catalogRepo.Modules(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog loaded", "modules", len(modules))

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, cfg.Storage.Namespace, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	provider, err := newWalletProvider(cfg)
	if err != nil {
		return err
	}
	ledger := casper.NewClient(cfg.Wallet.RPCURL, config.TTLDuration(cfg.Wallet.RPCTimeout, 10*time.Second))
	wallet := app.NewWalletService(provider, ledger, casper.NewSimulatedMinter(), kv)
	if identity := wallet.Restore(ctx); identity.Connected {
		slog.Info("wallet restored", "account_hash", identity.AccountHash)
	}

	service := app.NewQuizService(sessions, catalogRepo, app.NewProgressStore(kv), wallet)
	prefs := app.NewPreferences(kv)

	refresher := scheduler.New(wallet, config.TTLDuration(cfg.Wallet.BalanceRefresh, time.Minute))
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("start balance refresh: %w", err)
	}
	defer refresher.Stop()

	router := transport.NewRouter(
		transport.NewAPI(service, wallet, prefs, newAssistant(cfg, catalogRepo)),
		transport.NewWSHandler(service),
	)
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut long-lived websocket sessions.
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting casper learning server", "addr", server.Addr, "storage", cfg.Storage.Driver, "wallet", cfg.Wallet.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	// Let in-flight badge mints record their outcome before the stores close.
	service.Wait()
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newKVStore(cfg config.Config, redisClient *redis.Client) (app.KeyValueStore, io.Closer, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, errors.New("storage driver redis requires redis.addr")
		}
		return redisinfra.NewKVStore(redisClient, cfg.Storage.Namespace), nopCloser{}, nil
	case "memory":
		slog.Warn("progress is kept in memory and lost on restart")
		return memory.NewKVStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newWalletProvider(cfg config.Config) (app.WalletProvider, error) {
	switch cfg.Wallet.Provider {
	case "", "none":
		return casper.NoProvider{}, nil
	case "static":
		return casper.NewStaticProvider(cfg.Wallet.PublicKey), nil
	case "keyfile":
		if cfg.Wallet.KeyFile == "" {
			return nil, errors.New("wallet provider keyfile requires wallet.key_file")
		}
		return casper.NewKeyFileProvider(cfg.Wallet.KeyFile), nil
	default:
		return nil, fmt.Errorf("unknown wallet provider %q", cfg.Wallet.Provider)
	}
}

func newAssistant(cfg config.Config, catalog assistant.CatalogSource) *assistant.Service {
	if cfg.Assistant.APIKey == "" {
		slog.Info("assistant answers disabled, no api key configured")
		return assistant.New(catalog, nil)
	}
	client := assistant.NewOpenAIClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.Model,
		config.TTLDuration(cfg.Assistant.Timeout, 30*time.Second),
	)
	slog.Info("assistant enabled", "base_url", cfg.Assistant.BaseURL, "model", cfg.Assistant.Model)
	return assistant.New(catalog, client)
}
