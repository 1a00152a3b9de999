package app

import (
	"net/http"

	authapi "github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/api"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/metrics"
	notesapi "github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes/api"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	be *backend,
	m *metrics.Metrics,
	auth *authapi.Handler,
	notes *notesapi.Handler,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := be.Ping(r.Context()); err != nil {
			log.Info("readyz.storage.not_ready", "storage", be.name, "err", err)
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", m.Handler())

	auth.Register(mux)
	notes.Register(mux)
}
