// Package app wires the folio server runtime: config, logging, storage and
// HTTP routes.
//
// It is intentionally small and deterministic to keep behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"folio/cmd/internal/auth"
	"folio/cmd/internal/content"
	"folio/cmd/internal/docstore"
	"folio/cmd/internal/guestbook"
	"folio/cmd/internal/notify"
	"folio/cmd/internal/sitegate"
	"folio/cmd/security/password"
)

// App is the folio server runtime: it owns the document store and the
// wired HTTP handlers.
type App struct {
	cfg Config
	log Logger

	store     docstore.Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics

	authH    *auth.Handler
	contentH *content.Handler
	msgH     *guestbook.Handler
	gateH    *sitegate.Handler
	ws       *notify.Gateway
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogPretty)
	}

	store, dbPool, dbEnabled, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	authCfg := auth.LoadConfigFromEnv()
	hasher := password.DefaultHasher()

	creds := auth.NewCredentialStore(store, hasher, authCfg.DefaultUsername, authCfg.DefaultPassword)
	sessions := auth.NewSessionManager(store, authCfg.SessionTTL)
	attempts := auth.NewAttemptLog(store)
	authH := auth.NewHandler(log, authCfg, creds, sessions, attempts)

	contentH := content.NewHandler(log, content.NewService(store), sessions, 1<<20)

	hub := notify.NewHub()
	limiter := guestbook.NewRateLimiter(store, cfg.RateWindow, cfg.RateMax)
	msgH := guestbook.NewHandler(log, guestbook.NewService(store, limiter, hub), sessions, cfg.TrustProxy, 64<<10)

	ws := notify.NewGateway(log, hub, sessions, originHosts(cfg.AllowedOrigins))

	gateH := sitegate.NewHandler(log, sitegate.Config{
		DisableSecret: cfg.DisableSecret,
		CanonicalLink: cfg.CanonicalLink,
	}, sitegate.NewService(store, creds))

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   NewMetrics(),
		authH:     authH,
		contentH:  contentH,
		msgH:      msgH,
		gateH:     gateH,
		ws:        ws,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.authH, a.contentH, a.msgH, a.gateH, a.ws)

	// Outermost first: logging sees everything, the gate sits closest to
	// the routes so health and metrics stay reachable after a shutdown.
	var handler http.Handler = a.gateH.Gate(mux)
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg.AllowedOrigins)
	handler = a.metrics.Wrap(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between the Postgres-backed document store and the
// default file store.
func newStore(ctx context.Context, cfg Config, log Logger) (docstore.Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		st, err := docstore.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, false, err
		}
		log.Info("store.file", "dir", cfg.DataDir)
		return st, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, err
	}

	// Ownership model: app owns the pool lifecycle, PostgresStore.Close()
	// is a no-op.
	st, err := docstore.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, false, err
	}

	log.Info("store.postgres")
	return st, pool, true, nil
}

// originHosts extracts the host parts of allowed origins for the WebSocket
// accept check.
func originHosts(origins []string) []string {
	seen := make(map[string]struct{}, len(origins))
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		h := strings.ToLower(strings.TrimSpace(o))
		if strings.Contains(h, "://") {
			if u, err := url.Parse(h); err == nil {
				h = u.Hostname()
			}
		}
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
