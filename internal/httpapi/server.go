package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"msgbus/internal/cache"
	"msgbus/internal/logging"
	"msgbus/internal/storage"
)

// Server exposes the read side of the pipeline: cached orders with a
// store fallback, liveness and metrics.
type Server struct {
	cache   cache.Cache
	store   storage.Store
	metrics http.Handler
	srv     *http.Server
}

func New(c cache.Cache, s storage.Store, metrics http.Handler) *Server {
	srv := &Server{cache: c, store: s, metrics: metrics}
	srv.srv = &http.Server{Handler: srv.routes()}
	return srv
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/orders/{uid}", s.getOrder)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	// static
	r.Handle("/*", http.FileServer(http.Dir("./static")))
	return r
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if o, ok := s.cache.Get(uid); ok {
		writeJSON(w, o)
		return
	}
	o, ok, err := s.store.LoadOrder(r.Context(), uid)
	if err != nil {
		logging.L().Errorf("httpapi: load %s: %v", uid, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.cache.Set(uid, o)
	writeJSON(w, o)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) Listen(addr string) error {
	s.srv.Addr = addr
	logging.L().Infof("http listen %s", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
