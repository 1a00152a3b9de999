// Package app wires the notes server runtime: config, logging, storage,
// the auth and notes services, and the HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	authapi "github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/api"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/guard"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/session"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/metrics"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes"
	notesapi "github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes/api"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/security/password"
)

// App owns the storage backend, the services built on it and the HTTP
// server.
type App struct {
	cfg Config
	log Logger

	backend *backend
	metrics *metrics.Metrics
	handler http.Handler
}

// New constructs a fully wired App. Missing or weak key material fails here,
// before anything listens.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := session.NewTokenIssuer(sessCfg)
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, backend: be, metrics: metrics.New()}
	if a.handler, err = a.routes(creds, tokens, authapi.LoadConfigFromEnv()); err != nil {
		_ = be.Close(context.Background())
		return nil, err
	}
	log.Info("app.ready",
		"storage", be.name,
		"token_format", sessCfg.Format,
		"token_ttl", sessCfg.TokenTTL.String(),
	)
	return a, nil
}

func (a *App) routes(creds password.Config, tokens session.TokenIssuer, authCfg authapi.Config) (http.Handler, error) {
	noteSvc, err := notes.NewService(a.backend.notes, notes.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewService(creds, tokens, a.backend.accounts,
		session.WithLogger(a.log),
		session.WithRecorder(a.metrics),
		session.WithOwnerDataRemover(noteSvc),
	)
	if err != nil {
		return nil, err
	}
	g := guard.New(sessions.Tokens(), sessions.Revocations(),
		guard.WithLogger(a.log),
		guard.WithRecorder(a.metrics),
	)

	authHandler, err := authapi.NewHandler(a.log, sessions, g, authCfg)
	if err != nil {
		return nil, err
	}
	notesHandler, err := notesapi.NewHandler(a.log, noteSvc, g)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.backend, a.metrics, authHandler, notesHandler)
	return WithRequestLogging(mux, a.log, a.metrics), nil
}

// Handler is the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "storage", a.backend.name)

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
		_ = a.backend.Close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}
	if err := a.backend.Close(shutdownCtx); err != nil {
		a.log.Error("storage.close.fail", "err", err)
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
