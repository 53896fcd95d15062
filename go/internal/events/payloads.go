package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a timer lifecycle event. It is also the last subject token.
type Type string

const (
	TypeTimerCreated Type = "TimerCreated"
	TypeTimerStarted Type = "TimerStarted"
	TypeTimerPaused  Type = "TimerPaused"
	TypeTimerReset   Type = "TimerReset"
	TypeTimerExpired Type = "TimerExpired"
	TypeTimerDeleted Type = "TimerDeleted"
)

// Event is a timer lifecycle event ready to publish.
type Event struct {
	ID        uuid.UUID
	TimerID   uuid.UUID
	Type      Type
	Payload   []byte
	CreatedAt time.Time
}

// TimerCreatedPayload is the payload for a TimerCreated event
type TimerCreatedPayload struct {
	TimerID           string    `json:"timer_id"`
	Name              string    `json:"name"`
	Preset            string    `json:"preset,omitempty"`
	DurationMs        int64     `json:"duration_ms"`
	IntervalMs        int64     `json:"interval_ms"`
	AutoStart         bool      `json:"auto_start"`
	ExpireImmediately bool      `json:"expire_immediately"`
	ResetOnExpire     bool      `json:"reset_on_expire"`
	CreatedAt         time.Time `json:"created_at"`
}

// TimerStatePayload is shared by the started, paused and reset events.
type TimerStatePayload struct {
	TimerID    string    `json:"timer_id"`
	TimeLeftMs int64     `json:"time_left_ms"`
	IsRunning  bool      `json:"is_running"`
	At         time.Time `json:"at"`
}

// TimerExpiredPayload is the payload for a TimerExpired event
type TimerExpiredPayload struct {
	TimerID       string    `json:"timer_id"`
	ResetOnExpire bool      `json:"reset_on_expire"`
	ExpiredAt     time.Time `json:"expired_at"`
}

// TimerDeletedPayload is the payload for a TimerDeleted event
type TimerDeletedPayload struct {
	TimerID   string    `json:"timer_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// New marshals payload into an Event for the given timer.
func New(eventType Type, timerID uuid.UUID, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		TimerID:   timerID,
		Type:      eventType,
		Payload:   data,
		CreatedAt: at,
	}, nil
}
