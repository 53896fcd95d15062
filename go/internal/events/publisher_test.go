package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	timerID := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	event, err := New(TypeTimerExpired, timerID, TimerExpiredPayload{
		TimerID:       timerID.String(),
		ResetOnExpire: true,
		ExpiredAt:     at,
	}, at)
	require.NoError(t, err)

	msg, err := buildMessage("timer.events", event)
	require.NoError(t, err)

	assert.Equal(t, "timer.events.TimerExpired", msg.Subject)
	assert.Equal(t, "TimerExpired", msg.Header.Get("Event-Type"))
	assert.Equal(t, timerID.String(), msg.Header.Get("Timer-ID"))
	assert.Equal(t, event.ID.String(), msg.Header.Get("Event-ID"))

	var env struct {
		EventID   string              `json:"eventId"`
		EventType string              `json:"eventType"`
		TimerID   string              `json:"timerId"`
		Payload   TimerExpiredPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, event.ID.String(), env.EventID)
	assert.Equal(t, "TimerExpired", env.EventType)
	assert.Equal(t, timerID.String(), env.TimerID)
	assert.True(t, env.Payload.ResetOnExpire)
	assert.True(t, at.Equal(env.Payload.ExpiredAt))
}

func TestNewRejectsUnmarshalablePayload(t *testing.T) {
	_, err := New(TypeTimerCreated, uuid.New(), map[string]interface{}{"bad": make(chan int)}, time.Now())
	assert.Error(t, err)
}

func TestStreamConfigCoversPrefix(t *testing.T) {
	p := &JetStreamPublisher{config: DefaultJetStreamConfig()}
	sc := p.streamConfig()

	assert.Equal(t, "TIMER_EVENTS", sc.Name)
	assert.Equal(t, []string{"timer.events.>"}, sc.Subjects)
	assert.True(t, isStreamConfigEqual(sc, sc))

	changed := sc
	changed.MaxAge = time.Hour
	assert.False(t, isStreamConfigEqual(sc, changed))
	assert.Equal(t, jetstream.FileStorage, sc.Storage)
}
