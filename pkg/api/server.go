// Package api is the HTTP adapter over the ledger. It owns request parsing,
// field validation, the caller-side transfer preconditions (both accounts
// exist, sender and receiver are distinct), and the mapping from ledger
// errors to HTTP statuses. The ledger itself knows nothing about HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/logging"
	"bank-ledger/pkg/metrics"
	"bank-ledger/pkg/userfilter"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server serves the banking API.
type Server struct {
	ledger    *ledger.Ledger
	filter    *userfilter.Filter
	collector metrics.Collector
	logger    *logging.Logger
	config    ServerConfig
	router    *mux.Router
	server    *http.Server
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g. ":8088")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// StartingBalance credited to newly opened accounts
	StartingBalance int64

	// AdminKey guards GET /api/data when non-empty
	AdminKey string

	// MetricsHandler, when set, is mounted at /metrics
	MetricsHandler http.Handler
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         ":8088",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		StartingBalance: 100,
	}
}

// NewServer creates the API server. filter and collector may be nil, in
// which case screening is skipped and metrics are discarded; logger may be
// nil for a silent server.
func NewServer(l *ledger.Ledger, filter *userfilter.Filter, collector metrics.Collector, logger *logging.Logger, config ServerConfig) *Server {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		ledger:    l,
		filter:    filter,
		collector: collector,
		logger:    logger,
		config:    config,
	}

	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/access", s.handleAccess).Methods(http.MethodPost)
	apiRouter.HandleFunc("/transactionStart", s.handleTransactionStart).Methods(http.MethodPost)
	apiRouter.HandleFunc("/completeRequest", s.handleCompleteRequest).Methods(http.MethodPost)
	apiRouter.HandleFunc("/data", s.handleData).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if config.MetricsHandler != nil {
		r.Handle("/metrics", config.MetricsHandler).Methods(http.MethodGet)
	}

	s.router = r
	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until the listener fails or Stop is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api server listening", zap.String("address", s.config.Address))
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
