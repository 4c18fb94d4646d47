package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pokedex-api/internal/cache"
	"pokedex-api/internal/catalog"
	"pokedex-api/internal/config"
	"pokedex-api/internal/database"
	"pokedex-api/internal/enrich"
	"pokedex-api/internal/favorites"
	"pokedex-api/internal/handlers"
	"pokedex-api/internal/identity"
	"pokedex-api/internal/logging"
	"pokedex-api/internal/realtime"
	"pokedex-api/internal/routes"
	"pokedex-api/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port        string
	upstream    string
	favoritesDB string
	logLevel    string
	logFormat   string
}

// apply copies the flags that were set on the command line over cfg.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("upstream") {
		cfg.UpstreamBaseURL = strings.TrimRight(o.upstream, "/")
	}
	if flags.Changed("favorites-db") {
		cfg.FavoritesDB = o.favoritesDB
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
}

// bind registers the server flags on cmd.
func (o *serveOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.port, "port", "p", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&o.upstream, "upstream", "", "catalog API base URL (overrides POKEAPI_BASE_URL)")
	cmd.Flags().StringVar(&o.favoritesDB, "favorites-db", "", "SQLite file for favorites, empty keeps them in memory (overrides FAVORITES_DB)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.Flags().StringVar(&o.logFormat, "log-format", "", "console or json (overrides LOG_FORMAT)")
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

// runServe loads the environment config, applies opts and blocks until the
// command context is cancelled.
func (a *App) runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts.apply(cmd, &cfg)

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: a.stderr})
	return a.serve(cmd.Context(), cfg, logging.Get())
}

// server is the assembled service with the resources it must release.
type server struct {
	httpSrv *http.Server
	close   func() error
}

// newServer wires every component from cfg. Background work stops with ctx.
func newServer(ctx context.Context, cfg config.Config, log *bolt.Logger) (*server, error) {
	store := cache.New[any](cache.Options{
		DefaultTTL:        cfg.CacheTTL,
		Namespace:         cfg.CacheNamespace,
		ResetStatsOnFlush: cfg.ResetStatsOnFlush,
	})
	store.StartJanitor(ctx, cfg.PurgeInterval)

	client := upstream.New(store, upstream.Options{
		BaseURL:      cfg.UpstreamBaseURL,
		TTL:          cfg.CacheTTL,
		Timeout:      cfg.UpstreamTimeout,
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       log,
	})
	svc := catalog.NewService(client, enrich.New(client, cfg.FanoutLimit, log), store, catalog.Options{
		SnapshotTTL:  cfg.SnapshotTTL,
		SnapshotSize: cfg.SnapshotSize,
		SearchLimit:  cfg.SearchLimit,
		Logger:       log,
	})

	var (
		favStore favorites.Store = favorites.NewMemoryStore()
		closeFn                  = func() error { return nil }
	)
	if cfg.FavoritesDB != "" {
		verbose := cfg.LogLevel == "debug" || cfg.LogLevel == "trace"
		db, err := database.Open(cfg.FavoritesDB, verbose)
		if err != nil {
			return nil, err
		}
		favStore = favorites.NewSQLStore(db)
		closeFn = func() error { return database.Close(db) }
		log.Info().Str("path", cfg.FavoritesDB).Msg("favorites stored in sqlite")
	}

	if cfg.IdentitySecret == config.Default().IdentitySecret {
		log.Warn().Msg("IDENTITY_SECRET is not set, identity tokens use the development secret")
	}

	hub := realtime.NewHub()
	issuer := identity.NewIssuer(cfg.IdentitySecret)
	h := &handlers.Handler{
		Catalog:      svc,
		Favorites:    favorites.NewService(favStore, hub, log),
		Cache:        store,
		Upstream:     client,
		Hub:          hub,
		Identity:     issuer,
		MaxPageLimit: cfg.MaxPageLimit,
		Log:          log,
	}

	return &server{
		httpSrv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           routes.SetupRoutes(h, issuer, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		close: closeFn,
	}, nil
}

func (a *App) serve(ctx context.Context, cfg config.Config, log *bolt.Logger) error {
	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.close(); err != nil {
			log.Error().Err(err).Msg("closing favorites store")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.httpSrv.Addr).Str("upstream", cfg.UpstreamBaseURL).Msg("server starting")
		errCh <- srv.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}
