// Package server hosts the HTTP surface of the relay: the webhook receiver,
// the health endpoint for container probes, and the metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/metrics"
)

const (
	mongoPingTimeout  = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// Processor runs one webhook delivery through the relay pipeline.
type Processor interface {
	Process(ctx context.Context, upd *models.Update, recvErr error)
}

// MongoChecker defines the subset of MongoDB client behavior required for
// the health endpoint.
type MongoChecker interface {
	Ping(ctx context.Context) error
}

// Server owns the HTTP listener serving the webhook, health and metrics
// routes.
type Server struct {
	server       *http.Server
	token        string
	processor    Processor
	mongoChecker MongoChecker
	logger       *logrus.Entry
}

type healthResponse struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo,omitempty"`
}

// New constructs the HTTP server on the provided port. token guards the
// webhook route: deliveries to any other token answer 404.
func New(port int, token string, processor Processor, mongoChecker MongoChecker, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		token:        token,
		processor:    processor,
		mongoChecker: mongoChecker,
		logger:       logger,
	}

	router := chi.NewRouter()
	router.Use(durationMiddleware)
	router.Post("/webhook/{token}", srv.handleWebhook)
	router.Get("/healthz", srv.handleHealth)
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "http_listen",
		"addr":  s.server.Addr,
	}).Info("starting http server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server listen: %w", err)
	}

	s.logger.WithField("event", "http_stopped").Info("http server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

// handleWebhook accepts one delivery from the Bot API. The path token must
// match the configured bot token; mismatches answer 404 without touching
// the body. Valid deliveries always answer 200, even when the body failed
// to decode, so the API does not retry what is already in the audit log.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != s.token {
		s.logger.WithField("event", "webhook_bad_token").Warn("webhook delivery with unknown token")
		http.NotFound(w, r)
		return
	}

	var upd models.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.processor.Process(r.Context(), nil, fmt.Errorf("decode update: %w", err))
		w.WriteHeader(http.StatusOK)
		return
	}

	s.processor.Process(r.Context(), &upd, nil)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	mongoStatus := "ok"

	if s.mongoChecker == nil {
		mongoStatus = "error"
		s.logger.WithField("event", "health_mongo_missing").Warn("mongo checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(r.Context(), mongoPingTimeout)
		err := s.mongoChecker.Ping(pingCtx)
		cancel()

		if err != nil {
			mongoStatus = "error"
			s.logger.WithField("event", "health_mongo_error").WithError(err).Warn("mongo ping failed during health check")
		}
	}

	if mongoStatus != "ok" {
		resp.Status = "degraded"
		resp.Mongo = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}

// durationMiddleware observes request latency per route pattern, so the
// webhook token never becomes a label value.
func durationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
