package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/query"
)

type Server struct {
	cfg    config.ServerConfig
	intake Intake
	query  *query.Service
	router *chi.Mux
	log    zerolog.Logger
	http   *http.Server
}

func NewServer(cfg config.ServerConfig, intake Intake, q *query.Service, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		intake: intake,
		query:  q,
		log:    log,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	webhookHandler := NewWebhookHandler(s.intake, s.log)
	eventHandler := NewEventHandler(s.query)

	r.Get("/", eventHandler.Home)
	r.Get("/health", eventHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhook", webhookHandler.Receive)
	r.Get("/test", webhookHandler.Test)
	r.Get("/events/latest", eventHandler.Latest)

	return r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
