package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gametimer/go/internal/countdown"
)

// TimerEvent is the envelope for every message pushed to clients
type TimerEvent struct {
	ID        string          `json:"id"`
	TimerID   string          `json:"timer_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of pushed event
type EventType string

const (
	// EventTypeTimerState carries a countdown.State snapshot.
	EventTypeTimerState EventType = "TimerState"
	// EventTypeTimerDeleted tells clients the timer is gone.
	EventTypeTimerDeleted EventType = "TimerDeleted"
)

// NewStateEvent wraps a snapshot in a TimerEvent.
func NewStateEvent(timerID uuid.UUID, state countdown.State) (*TimerEvent, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal timer state: %w", err)
	}
	return &TimerEvent{
		ID:        uuid.New().String(),
		TimerID:   timerID.String(),
		Type:      EventTypeTimerState,
		Timestamp: state.At,
		Data:      data,
	}, nil
}

// ParseStateEvent decodes the snapshot carried by a TimerState event.
func ParseStateEvent(event *TimerEvent) (countdown.State, error) {
	var st countdown.State
	if event.Type != EventTypeTimerState {
		return st, fmt.Errorf("unexpected event type %s", event.Type)
	}
	if err := json.Unmarshal(event.Data, &st); err != nil {
		return st, fmt.Errorf("unmarshal timer state: %w", err)
	}
	st.TimeLeft = time.Duration(st.TimeLeftMs) * time.Millisecond
	return st, nil
}
