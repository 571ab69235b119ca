// Package api provides the storefront HTTP surface: the payment webhook
// endpoint, subscription provisioning and lifecycle routes, and order and
// plan reads.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports backing-service liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Server is the storefront HTTP API server.
type Server struct {
	mux           *http.ServeMux
	server        *http.Server
	logger        *slog.Logger
	webhooks      *WebhookHandler
	subscriptions *SubscriptionHandler
	orders        *OrderHandler
	dbPing        Pinger
	redisPing     Pinger
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new storefront API server. The pingers are optional;
// nil pingers report healthy.
func NewServer(cfg ServerConfig, webhooks *WebhookHandler, subscriptions *SubscriptionHandler, orders *OrderHandler, dbPing, redisPing Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:           mux,
		logger:        logger,
		webhooks:      webhooks,
		subscriptions: subscriptions,
		orders:        orders,
		dbPing:        dbPing,
		redisPing:     redisPing,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Gateway callbacks
	s.mux.HandleFunc("POST /webhooks/payment", s.webhooks.HandlePaymentNotification)

	// Subscriptions
	s.mux.HandleFunc("POST /subscriptions/provision", s.subscriptions.Provision)
	s.mux.HandleFunc("GET /api/v1/subscriptions/{subscriptionID}", s.subscriptions.Get)
	s.mux.HandleFunc("POST /api/v1/subscriptions/{subscriptionID}/pause", s.subscriptions.Pause)
	s.mux.HandleFunc("POST /api/v1/subscriptions/{subscriptionID}/reactivate", s.subscriptions.Reactivate)
	s.mux.HandleFunc("POST /api/v1/subscriptions/{subscriptionID}/cancel", s.subscriptions.Cancel)
	s.mux.HandleFunc("PUT /api/v1/subscriptions/{subscriptionID}/frequency", s.subscriptions.ChangeFrequency)
	s.mux.HandleFunc("PUT /api/v1/subscriptions/{subscriptionID}/plan", s.subscriptions.ChangePlan)
	s.mux.HandleFunc("GET /api/v1/plans", s.subscriptions.ListPlans)

	// Orders
	s.mux.HandleFunc("POST /api/v1/orders", s.orders.Create)
	s.mux.HandleFunc("GET /api/v1/orders/{orderID}", s.orders.Get)
}

// handleHealth handles health check requests, pinging the backing stores.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{}
	for name, p := range map[string]Pinger{"database": s.dbPing, "redis": s.redisPing} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	body := map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting storefront API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down storefront API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes the error envelope used by all storefront endpoints.
func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, map[string]string{
		"error":   message,
		"details": details,
		"code":    code,
	})
}
