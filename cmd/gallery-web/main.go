package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/artgallery/gallery-web/internal/api"
	"github.com/artgallery/gallery-web/internal/api/handler"
	"github.com/artgallery/gallery-web/internal/api/metrics"
	"github.com/artgallery/gallery-web/internal/core/service"
	"github.com/artgallery/gallery-web/internal/infrastructure/backend"
	"github.com/artgallery/gallery-web/internal/infrastructure/config"
	"github.com/artgallery/gallery-web/internal/infrastructure/db/localstate"
	"github.com/artgallery/gallery-web/internal/infrastructure/db/mongo"
	"github.com/artgallery/gallery-web/internal/infrastructure/db/redis"
	"github.com/artgallery/gallery-web/internal/infrastructure/db/sqlite"
	"github.com/artgallery/gallery-web/pkg/logger"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})
	log.Info().
		Str("version", buildVersion).
		Str("commit", buildCommit).
		Str("storage", cfg.Storage.Driver).
		Str("backend", cfg.Backend.URL).
		Msg("starting gallery web")

	kv, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open local storage")
	}

	client, err := backend.New(backend.Options{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Cookies: localstate.NewCookies(kv),
		Endpoints: backend.Endpoints{
			CSRF:   cfg.Backend.CSRFPath,
			Login:  cfg.Backend.LoginPath,
			Logout: cfg.Backend.LogoutPath,
			Verify: cfg.Backend.VerifyPath,
		},
	}, logger.Component("backend"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	store := service.NewSessionStore(localstate.NewSnapshots(kv), logger.Component("session"))
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close local storage")
		}
	}()

	gateway := service.NewAuthGateway(client, store, logger.Component("auth"))
	history := service.NewSearchHistoryService(localstate.NewHistory(kv), cfg.SearchHistoryLimit, logger.Component("search_history"))
	catalogue := service.NewCatalogueService(client, history, logger.Component("catalogue"))

	e, err := api.NewRouter(api.Dependencies{
		Sessions:  store,
		Auth:      gateway,
		Catalogue: catalogue,
		Checks: map[string]handler.Check{
			"storage": kv.Ping,
			"backend": func(ctx context.Context) error {
				_, err := client.CSRFToken(ctx)
				return err
			},
		},
		Log:           logger.Component("http"),
		SecureCookies: !cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	go func() {
		if err := client.RestoreSession(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to restore backend cookies")
		}
		if err := store.Initialize(ctx, metrics.InstrumentVerifier(gateway)); err != nil {
			log.Warn().Err(err).Msg("session initialization did not complete")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := net.JoinHostPort(cfg.Host, cfg.Port)
		log.Info().Str("address", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	wg.Wait()
	log.Info().Msg("shutdown complete")
}

// openStorage returns the key-value store selected by GALLERY_STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config) (localstate.KeyValue, error) {
	ns := cfg.Storage.Namespace
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		c, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return redis.NewStore(c, ns), nil
	case config.DriverMongo:
		c, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return mongo.NewStore(c, db, ns), nil
	default:
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db, ns), nil
	}
}
