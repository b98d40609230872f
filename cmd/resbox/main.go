package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/resbox/resbox-core/internal/api"
	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/bridge"
	"github.com/resbox/resbox-core/internal/config"
	"github.com/resbox/resbox-core/internal/credential"
	"github.com/resbox/resbox-core/internal/database"
	"github.com/resbox/resbox-core/internal/handler"
	"github.com/resbox/resbox-core/internal/hub"
	"github.com/resbox/resbox-core/internal/identity"
	"github.com/resbox/resbox-core/internal/jobs"
	"github.com/resbox/resbox-core/internal/middleware"
	"github.com/resbox/resbox-core/internal/redis"
	"github.com/resbox/resbox-core/internal/repository"
	"github.com/resbox/resbox-core/internal/sse"
	"github.com/resbox/resbox-core/internal/state"
)

func main() {
	fresh := pflag.Bool("fresh", false, "ignore remembered credentials and wait for an interactive login")
	logLevel := pflag.String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	pflag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id, err := identity.Detect()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read machine id")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")
	}

	store, err := newCredentialStore(cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up credential store")
	}

	var archive *repository.MessageArchive
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare archive schema")
		}
		log.Info().Msg("database connected")

		messageRepo := repository.NewMessageRepository(db)
		archive = repository.NewMessageArchive(messageRepo, 0)

		pruneJob := jobs.NewArchivePruneJob(messageRepo, cfg.ArchiveRetention(), config.ArchivePruneInterval)
		pruneJob.Start()
		defer pruneJob.Stop()
	}

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	appState := state.New()
	client := api.NewClient(api.ClientConfig{
		BaseURL:   cfg.APIBaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	}, id, appState)

	var initial backend.InitialLogin = backend.FreshLogin{}
	username := cfg.Username
	if !*fresh {
		initial, username = bridge.RememberedLogin(ctx, store, config.CredentialService, config.CredentialAccount, cfg.Username)
	}

	deps := backend.Deps{
		API:            client,
		Dialer:         hub.NewSignalRDialer(cfg.HubURL, config.HubConnectTimeout),
		State:          appState,
		StatusInterval: cfg.StatusRefreshInterval(),
		InvokeTimeout:  config.HubInvokeTimeout,
	}
	if archive != nil {
		deps.Archive = archive
	}
	orchestrator := backend.Start(ctx, deps, initial)

	ui := bridge.New(bridge.Deps{
		Sender:    orchestrator,
		Store:     store,
		Publisher: broker,
		Service:   config.CredentialService,
		Account:   config.CredentialAccount,
	}, username)

	var loginLimiter middleware.Limiter = middleware.NewRateLimiter()
	if redisClient != nil {
		loginLimiter = middleware.NewRedisRateLimiter(redisClient)
	}

	routerDeps := handler.RouterDeps{
		UI:           ui,
		Phases:       orchestrator,
		State:        appState,
		Broker:       broker,
		BearerToken:  cfg.BridgeToken,
		LoginLimiter: loginLimiter,
	}
	if archive != nil {
		routerDeps.Archive = archive
	}

	srv := &http.Server{
		Addr:         cfg.BridgeAddr(),
		Handler:      handler.NewRouter(routerDeps),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  config.ServerIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ui.Run(gctx, orchestrator)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("control API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-orchestrator.Done():
			log.Warn().Msg("orchestrator stopped")
		}

		log.Info().Msg("shutting down")
		if err := orchestrator.Send(backend.Shutdown{}); err != nil && !errors.Is(err, backend.ErrClosed) {
			log.Warn().Err(err).Msg("failed to request orchestrator shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		select {
		case <-orchestrator.Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("orchestrator did not stop in time")
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("control API stopped with error")
	}
	log.Info().Msg("stopped")
}

// newCredentialStore layers the local file store under redis when it is
// configured, and encrypts secrets when a key is set.
func newCredentialStore(cfg *config.Config, redisClient *redis.Client) (credential.Store, error) {
	var store credential.Store = credential.NewFileStore(cfg.CredentialDir)

	if redisClient != nil {
		chain, err := credential.NewChainStore(credential.NewRedisStore(redisClient), store)
		if err != nil {
			return nil, err
		}
		store = chain
	}

	if cfg.EncryptionKey != "" {
		encrypted, err := credential.NewEncryptedStore(store, cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		store = encrypted
	}

	return store, nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
