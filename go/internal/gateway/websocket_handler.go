package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/timers"
)

// TimerLookup is what the WebSocket handler needs to greet new clients
type TimerLookup interface {
	GetTimer(id uuid.UUID) (*timers.Timer, error)
}

// WebSocketHandler handles WebSocket upgrade requests for timer connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	timers            TimerLookup
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, lookup TimerLookup) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		timers:            lookup,
	}
}

// HandleTimerConnection streams state for the timer named by ?timer_id=.
// The current snapshot is sent first.
func (h *WebSocketHandler) HandleTimerConnection(w http.ResponseWriter, r *http.Request) {
	timerIDStr := r.URL.Query().Get("timer_id")
	if timerIDStr == "" {
		http.Error(w, "timer_id is required", http.StatusBadRequest)
		return
	}

	timerID, err := uuid.Parse(timerIDStr)
	if err != nil {
		http.Error(w, "invalid timer_id format", http.StatusBadRequest)
		return
	}

	if _, err := h.timers.GetTimer(timerID); err != nil {
		writeError(w, err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, timerID)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Error().
			Err(err).
			Str("timer_id", timerID.String()).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	// Snapshot after registration so changes made while upgrading are
	// not missed.
	timer, err := h.timers.GetTimer(timerID)
	if err != nil {
		log.Warn().Err(err).Str("timer_id", timerID.String()).Msg("timer gone before initial state")
		conn.Conn.Close()
		return
	}

	event, err := NewStateEvent(timerID, timer.State)
	if err != nil {
		log.Error().Err(err).Str("timer_id", timerID.String()).Msg("failed to build initial state")
		return
	}
	if err := h.connectionManager.SendTo(conn, event); err != nil {
		log.Warn().Err(err).Str("timer_id", timerID.String()).Msg("failed to send initial state")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/timer", h.HandleTimerConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
