package app

import (
	"context"
	"fmt"
	"time"

	"cryptopredict/internal/config"
	"cryptopredict/internal/fallback"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/store/gormstore"
	apihttp "cryptopredict/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App owns the assembled dependencies and runs the HTTP API.
type App struct {
	cfg     *config.Config
	http    *apihttp.Server
	lexicon *fallback.Registry
	store   *gormstore.GormStore
	cleanup func()
	Summary *StartupSummary
}

func newApp(cfg *config.Config, srv *apihttp.Server, lexicon *fallback.Registry, st *gormstore.GormStore) *App {
	return &App{
		cfg:     cfg,
		http:    srv,
		lexicon: lexicon,
		store:   st,
		Summary: buildSummary(cfg, lexicon),
	}
}

// NewApp builds the application without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	app, cleanup, err := buildAppWithWire(cfg)
	if err != nil {
		return nil, err
	}
	app.cleanup = cleanup
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then releases the store.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.cleanup != nil {
		defer a.cleanup()
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	if a.lexicon != nil {
		a.lexicon.Watch()
	}
	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("prediction store unreachable: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("api http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
