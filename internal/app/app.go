// Package app wires the server components together and owns their
// lifecycle: store, room hub, tree store, roster manager, coordinator,
// retention janitor and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vagentd/internal/retention"
	"vagentd/pkg/config"
	"vagentd/pkg/logger"
	"vagentd/pkg/room"
	"vagentd/pkg/roster"
	"vagentd/pkg/session"
	"vagentd/pkg/store"
	"vagentd/pkg/tree"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	version string

	hub   *room.Hub
	trees *tree.Store
	rm    *roster.Manager
	co    *session.Coordinator

	srv *http.Server
}

// New opens the store and builds the component graph. It does not start
// the HTTP server; call Run to start it and block until shutdown.
func New(cfg *config.Config, version string) (*App, error) {
	if cfg.Server.DBPath == "" {
		return nil, fmt.Errorf("no db path configured")
	}
	if len(cfg.Security.SigningKeys) == 0 {
		return nil, fmt.Errorf("no signing keys configured; set security.signing_keys or VAGENTD_SIGNING_KEYS")
	}

	rc := &config.RuntimeConfig{SigningKeys: map[string]struct{}{}}
	for _, k := range cfg.Security.SigningKeys {
		rc.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(rc)

	if err := store.Open(cfg.Server.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Server.DBPath, err)
	}

	hub := room.NewHub()
	trees := tree.NewStore()
	rm := roster.New(hub)
	co := session.NewCoordinator(hub, trees, rm)

	return &App{cfg: cfg, version: version, hub: hub, trees: trees, rm: rm, co: co}, nil
}

// Run starts the retention janitor and the HTTP server, and blocks until
// ctx is cancelled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopRetention, err := retention.Start(ctx, a.cfg.Retention)
	if err != nil {
		return err
	}
	defer stopRetention()

	a.printBanner()
	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutCtx); err != nil {
			logger.Warn("http_shutdown_failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("store_close_failed", "error", err)
		}
		return nil
	case err := <-errCh:
		_ = store.Close()
		return err
	}
}
