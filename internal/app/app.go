// Package app wires configuration, storage, the catalog client and the
// gallery view-model into one running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mmcdole/gallery/internal/adapter"
	"github.com/mmcdole/gallery/internal/adapter/source"
	"github.com/mmcdole/gallery/internal/catalog"
	"github.com/mmcdole/gallery/internal/domain"
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/persist"
	"github.com/mmcdole/gallery/internal/store"
	"github.com/mmcdole/gallery/internal/store/sqlite"
	"github.com/mmcdole/gallery/internal/viewmodel"
)

// App holds every long-lived component
type App struct {
	Config    *adapter.Config
	Logger    *slog.Logger
	KV        domain.KVStore
	Client    domain.CatalogClient
	Cache     *catalog.Cache
	Favorites *favorites.Store
	Gallery   *viewmodel.Gallery
	Opener    *adapter.Opener

	logCloser io.Closer
}

// Option overrides a component, mostly for tests
type Option func(*options)

type options struct {
	client domain.CatalogClient
	logger *slog.Logger
}

// WithClient replaces the remote catalog client
func WithClient(c domain.CatalogClient) Option {
	return func(o *options) { o.client = c }
}

// WithLogger replaces the file logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the application from cfg. Favorites are hydrated before it
// returns. Call Close to flush pending writes.
func New(ctx context.Context, cfg *adapter.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, logCloser: io.NopCloser(nil)}

	a.Logger = o.logger
	if a.Logger == nil {
		logger, closer, err := adapter.SetupLogger(&cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger, closer = adapter.NullLogger(), io.NopCloser(nil)
		}
		a.Logger, a.logCloser = logger, closer
	}

	kv, err := OpenStore(&cfg.Storage)
	if err != nil {
		a.logCloser.Close()
		return nil, err
	}
	a.KV = kv

	a.Client = o.client
	if a.Client == nil {
		client, err := source.NewClient(&cfg.Catalog, a.Logger)
		if err != nil {
			a.KV.Close()
			a.logCloser.Close()
			return nil, fmt.Errorf("failed to create catalog client: %w", err)
		}
		a.Client = client
	}

	writerOpts := []persist.Option{persist.WithLogger(a.Logger)}
	if cfg.Storage.WriteTimeout > 0 {
		writerOpts = append(writerOpts, persist.WithTimeout(cfg.Storage.WriteTimeout))
	}

	a.Favorites = favorites.NewStore(kv,
		favorites.WithLogger(a.Logger),
		favorites.WithWriterOptions(writerOpts...),
	)
	a.Favorites.Hydrate(ctx)

	cacheOpts := []catalog.Option{catalog.WithLogger(a.Logger)}
	if cfg.Cache.OfflineSnapshots {
		cacheOpts = append(cacheOpts, catalog.WithSnapshots(kv, writerOpts...))
	}
	if cfg.Cache.Dedupe {
		cacheOpts = append(cacheOpts, catalog.WithDedupe())
	}
	a.Cache = catalog.NewCache(a.Client, cacheOpts...)

	a.Gallery = viewmodel.New(a.Cache, a.Favorites, cfg.Catalog.PageSize, a.Logger)
	a.Opener = adapter.NewOpener(cfg.Viewer.Command, cfg.Viewer.Args, a.Logger)

	a.Logger.Info("application ready",
		"backend", cfg.Storage.Backend,
		"page_size", cfg.Catalog.PageSize,
		"favorites", a.Favorites.Count(),
	)
	return a, nil
}

// OpenStore opens the configured key-value backend
func OpenStore(cfg *adapter.StorageConfig) (domain.KVStore, error) {
	switch cfg.Backend {
	case adapter.StorageMemory:
		return store.NewMemory(), nil
	case adapter.StorageBolt, adapter.StorageSQLite:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if cfg.Backend == adapter.StorageSQLite {
		kv, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return kv, nil
	}
	kv, err := store.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}
	return kv, nil
}

// Close flushes favorites and snapshots, then releases storage and the log
// file. Pending writes are abandoned when ctx expires.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Favorites.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("favorites: %w", err))
	}
	if err := a.Cache.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("catalog cache: %w", err))
	}
	if err := a.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	a.Logger.Info("shutting down")
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("log file: %w", err))
	}
	return errors.Join(errs...)
}
