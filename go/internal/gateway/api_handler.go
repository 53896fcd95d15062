package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/countdown"
	"github.com/mcdev12/gametimer/go/internal/models"
	"github.com/mcdev12/gametimer/go/internal/timers"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// TimerService defines what the HTTP API needs from the timers app
type TimerService interface {
	TimerLookup
	UpsertPreset(ctx context.Context, req timers.UpsertPresetRequest) (*models.Preset, error)
	ListPresets(ctx context.Context) ([]models.Preset, error)
	CreateTimer(ctx context.Context, req timers.CreateTimerRequest) (*timers.Timer, error)
	ListTimers() []timers.Timer
	StartTimer(id uuid.UUID) (*timers.Timer, error)
	PauseTimer(id uuid.UUID) (*timers.Timer, error)
	ResetTimer(id uuid.UUID) (*timers.Timer, error)
	DeleteTimer(id uuid.UUID) error
}

// APIHandler serves the JSON control API for presets and timers
type APIHandler struct {
	service TimerService
	cm      *ConnectionManager
}

// NewAPIHandler creates a new API handler. cm may be nil.
func NewAPIHandler(service TimerService, cm *ConnectionManager) *APIHandler {
	return &APIHandler{service: service, cm: cm}
}

// RegisterRoutes registers the API routes with an HTTP mux
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/presets", h.handleListPresets)
	mux.HandleFunc("POST /api/presets", h.handleUpsertPreset)

	mux.HandleFunc("GET /api/timers", h.handleListTimers)
	mux.HandleFunc("POST /api/timers", h.handleCreateTimer)
	mux.HandleFunc("GET /api/timers/{id}", h.handleGetTimer)
	mux.HandleFunc("DELETE /api/timers/{id}", h.handleDeleteTimer)
	mux.HandleFunc("POST /api/timers/{id}/start", h.timerAction(h.service.StartTimer))
	mux.HandleFunc("POST /api/timers/{id}/pause", h.timerAction(h.service.PauseTimer))
	mux.HandleFunc("POST /api/timers/{id}/reset", h.timerAction(h.service.ResetTimer))
}

func (h *APIHandler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.ListPresets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *APIHandler) handleUpsertPreset(w http.ResponseWriter, r *http.Request) {
	var req timers.UpsertPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	preset, err := h.service.UpsertPreset(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (h *APIHandler) handleListTimers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListTimers())
}

func (h *APIHandler) handleCreateTimer(w http.ResponseWriter, r *http.Request) {
	var req timers.CreateTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	timer, err := h.service.CreateTimer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, timer)
}

func (h *APIHandler) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := timerID(w, r)
	if !ok {
		return
	}

	timer, err := h.service.GetTimer(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timer)
}

func (h *APIHandler) handleDeleteTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := timerID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTimer(id); err != nil {
		writeError(w, err)
		return
	}

	if h.cm != nil {
		h.cm.BroadcastToTimer(id, &TimerEvent{
			ID:        uuid.New().String(),
			TimerID:   id.String(),
			Type:      EventTypeTimerDeleted,
			Timestamp: timeNow(),
			Data:      json.RawMessage(`{}`),
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) timerAction(action func(uuid.UUID) (*timers.Timer, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := timerID(w, r)
		if !ok {
			return
		}

		timer, err := action(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, timer)
	}
}

func timerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid timer id format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timers.ErrTimerNotFound), errors.Is(err, timers.ErrPresetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, countdown.ErrInvalidConfiguration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
