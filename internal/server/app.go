// Package server wires configuration, logging, the PostgreSQL store, photo
// storage and the optional catalog cache into the REST server, and runs it
// until an OS signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/dmitrijs2005/vistoria/internal/logging"
	"github.com/dmitrijs2005/vistoria/internal/server/cache"
	"github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vistoria/internal/server/rest"
	"github.com/dmitrijs2005/vistoria/internal/server/services"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *rest.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, "vistoria")
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := newStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var kv cache.KVStore
	if c.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			// the catalog is served from the store without a cache
			logger.Warn(ctx, "redis unavailable, catalog cache disabled", "addr", c.RedisAddr, "error", err)
		} else {
			app.redis = client
			kv = cache.NewRedisKVStore(client)
		}
	}

	cs := services.NewCatalogService(db, rm, kv, c.CatalogCacheTTL, logger)
	is := services.NewInspectionService(db, rm, store, c, logger)
	ps := services.NewPhotoService(db, rm, store, c, logger)
	app.server = rest.NewServer(c, logger, cs, is, ps)

	return app, nil
}

func newStore(ctx context.Context, c *config.Config) (storage.Store, error) {
	switch c.StorageBackend {
	case storage.BackendS3:
		baseURL := ""
		if strings.HasPrefix(c.PhotoBaseURL, "http://") || strings.HasPrefix(c.PhotoBaseURL, "https://") {
			baseURL = c.PhotoBaseURL
		}
		return storage.NewS3(ctx, storage.S3Config{
			Region:   c.S3Region,
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Endpoint: c.S3BaseEndpoint,
			Bucket:   c.S3Bucket,
			BaseURL:  baseURL,
		})
	default:
		return storage.NewLocal(c.UploadDir, c.PhotoBaseURL), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		z.Sync()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "auth", app.config.AuthEnabled)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}
