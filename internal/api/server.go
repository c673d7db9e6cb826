package api

import (
	"context"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/climateapi/internal/store"
)

type Server struct {
	store  *store.Store
	addr   string
	logger *slog.Logger
	tmpl   *template.Template
}

func NewServer(store *store.Store, addr string, logger *slog.Logger) *Server {
	return &Server{
		store:  store,
		addr:   addr,
		logger: logger,
		tmpl:   newTemplates(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(s.observe)
	mux.Use(middleware.Recoverer)

	mux.Get("/", s.handleIndex)
	mux.Get("/health", s.handleHealth)
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Route("/api/v1.0", func(r chi.Router) {
		r.Get("/precipitation", s.handlePrecipitation)
		r.Get("/stations", s.handleStations)
		r.Get("/tobs", s.handleTobs)
		r.Get("/{start}", s.handleStats)
		r.Get("/{start}/{end}", s.handleStats)
	})
	mux.Route("/api/v1.1", func(r chi.Router) {
		r.Get("/precipitation", s.handleSeriesList(store.ColumnPrecipitation))
		r.Get("/stations", s.handleStationsList)
		r.Get("/tobs", s.handleSeriesList(store.ColumnTemperature))
	})
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln, s.Handler())
}

// serve returns once ctx is done and in-flight requests have drained, so
// callers may release the store afterwards.
func (s *Server) serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	s.logger.Info("starting server", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	<-drained
	return nil
}
