package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service bundles the WebSocket fan-out and the HTTP control API
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	apiHandler        *APIHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a gateway around an existing connection manager. The
// manager is created separately so the timers app can broadcast into it.
func NewService(cm *ConnectionManager, timers TimerService) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, timers),
		apiHandler:        NewAPIHandler(timers, cm),
	}
}

// Start runs the broadcast loop until ctx is done
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting timer gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("timer gateway stopped")
}

// RegisterRoutes registers all gateway HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.apiHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	log.Info().Msg("gateway routes registered")
}

// Handler returns the CORS-wrapped mux for all gateway routes.
func (s *Service) Handler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return CORSMiddleware(allowedOrigins, mux)
}
