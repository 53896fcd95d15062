package timers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/countdown"
	"github.com/mcdev12/gametimer/go/internal/events"
	"github.com/mcdev12/gametimer/go/internal/models"
)

const (
	eventChannelBufferSize = 256
	publishTimeout         = 5 * time.Second
)

// PresetRepository defines what the app layer needs from preset storage
type PresetRepository interface {
	GetPresetByName(ctx context.Context, name string) (*models.Preset, error)
	ListPresets(ctx context.Context) ([]models.Preset, error)
	UpsertPreset(ctx context.Context, req UpsertPresetRequest) (*models.Preset, error)
	DeletePreset(ctx context.Context, name string) error
}

// StateBroadcaster receives every state change of every live timer.
type StateBroadcaster interface {
	BroadcastState(timerID uuid.UUID, state countdown.State)
}

// App owns the live countdowns and their lifecycle events
type App struct {
	repo        PresetRepository
	publisher   events.Publisher
	broadcaster StateBroadcaster
	clock       countdown.Clock

	mu     sync.RWMutex
	timers map[uuid.UUID]*entry

	eventCh chan events.Event
}

type entry struct {
	timer  Timer
	engine *countdown.Engine
}

// NewApp creates a new timers App. publisher and broadcaster may be nil.
func NewApp(repo PresetRepository, publisher events.Publisher, broadcaster StateBroadcaster, clock countdown.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:        repo,
		publisher:   publisher,
		broadcaster: broadcaster,
		clock:       clock,
		timers:      make(map[uuid.UUID]*entry),
		eventCh:     make(chan events.Event, eventChannelBufferSize),
	}
}

// Run publishes queued lifecycle events until ctx is done, then closes
// every live timer.
func (a *App) Run(ctx context.Context) {
	log.Info().Msg("timers app started")
	defer a.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("timers app shutting down")
			return
		case event := <-a.eventCh:
			a.publish(ctx, event)
		}
	}
}

func (a *App) publish(ctx context.Context, event events.Event) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.publisher.Publish(pubCtx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("timer_id", event.TimerID.String()).
			Msg("failed to publish timer event")
	}
}

// Shutdown closes every live timer.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, e := range a.timers {
		e.engine.Close()
		delete(a.timers, id)
	}
}

// UpsertPreset creates or replaces a preset
func (a *App) UpsertPreset(ctx context.Context, req UpsertPresetRequest) (*models.Preset, error) {
	preset, err := a.repo.UpsertPreset(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preset: %w", err)
	}
	log.Info().Str("preset", preset.Name).Int64("duration_ms", preset.DurationMs).Msg("upserted preset")
	return preset, nil
}

// ListPresets returns all presets
func (a *App) ListPresets(ctx context.Context) ([]models.Preset, error) {
	presets, err := a.repo.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	return presets, nil
}

// CreateTimer builds a live countdown from a preset or inline settings
func (a *App) CreateTimer(ctx context.Context, req CreateTimerRequest) (*Timer, error) {
	s, err := a.resolveSettings(ctx, req)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	name := req.Name
	if name == "" {
		name = id.String()[:8]
	}

	cfg, err := s.config(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}
	cfg.Clock = a.clock
	cfg.OnExpire = func() { a.onExpire(id, s.resetOnExpire) }
	cfg.OnReset = func() { a.onReset(id) }

	engine, err := countdown.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}

	t := Timer{
		ID:                id,
		Name:              name,
		Preset:            req.Preset,
		DurationMs:        s.durationMs,
		IntervalMs:        cfg.Interval.Milliseconds(),
		AutoStart:         s.autoStart,
		ExpireImmediately: s.expireImmediately,
		ResetOnExpire:     s.resetOnExpire,
		CreatedAt:         a.clock.Now().UTC(),
	}

	a.mu.Lock()
	a.timers[id] = &entry{timer: t, engine: engine}
	a.mu.Unlock()

	if a.broadcaster != nil {
		states, _ := engine.Subscribe()
		go a.forwardStates(id, states)
	}

	a.emit(events.TypeTimerCreated, id, events.TimerCreatedPayload{
		TimerID:           id.String(),
		Name:              t.Name,
		Preset:            t.Preset,
		DurationMs:        t.DurationMs,
		IntervalMs:        t.IntervalMs,
		AutoStart:         t.AutoStart,
		ExpireImmediately: t.ExpireImmediately,
		ResetOnExpire:     t.ResetOnExpire,
		CreatedAt:         t.CreatedAt,
	})

	t.State = engine.State()
	if t.State.IsRunning {
		a.emit(events.TypeTimerStarted, id, statePayload(id, t.State))
	}

	log.Info().
		Str("timer_id", id.String()).
		Str("name", t.Name).
		Str("preset", t.Preset).
		Int64("duration_ms", t.DurationMs).
		Msg("created timer")

	return &t, nil
}

func (a *App) resolveSettings(ctx context.Context, req CreateTimerRequest) (settings, error) {
	if req.Preset == "" {
		return settings{
			durationMs:        req.DurationMs,
			intervalMs:        req.IntervalMs,
			autoStart:         req.AutoStart,
			expireImmediately: req.ExpireImmediately,
			resetOnExpire:     boolOr(req.ResetOnExpire, true),
		}, nil
	}

	preset, err := a.repo.GetPresetByName(ctx, req.Preset)
	if err != nil {
		return settings{}, fmt.Errorf("failed to resolve preset: %w", err)
	}
	return settings{
		durationMs:        preset.DurationMs,
		intervalMs:        preset.IntervalMs,
		autoStart:         preset.AutoStart,
		expireImmediately: preset.ExpireImmediately,
		resetOnExpire:     preset.ResetOnExpire,
	}, nil
}

// GetTimer returns a timer with its current state
func (a *App) GetTimer(id uuid.UUID) (*Timer, error) {
	e, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.view(), nil
}

// ListTimers returns every live timer, oldest first
func (a *App) ListTimers() []Timer {
	a.mu.RLock()
	result := make([]Timer, 0, len(a.timers))
	for _, e := range a.timers {
		result = append(result, *e.view())
	}
	a.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Name < result[j].Name
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// StartTimer starts or resumes a timer
func (a *App) StartTimer(id uuid.UUID) (*Timer, error) {
	e, err := a.lookup(id)
	if err != nil {
		return nil, err
	}

	wasRunning := e.engine.State().IsRunning
	e.engine.Start()
	t := e.view()

	if !wasRunning && t.State.IsRunning {
		a.emit(events.TypeTimerStarted, id, statePayload(id, t.State))
	}
	return t, nil
}

// PauseTimer pauses a running timer
func (a *App) PauseTimer(id uuid.UUID) (*Timer, error) {
	e, err := a.lookup(id)
	if err != nil {
		return nil, err
	}

	wasRunning := e.engine.State().IsRunning
	e.engine.Pause()
	t := e.view()

	if wasRunning {
		a.emit(events.TypeTimerPaused, id, statePayload(id, t.State))
	}
	return t, nil
}

// ResetTimer restores a timer to its full duration. The TimerReset event is
// emitted from the engine's reset callback.
func (a *App) ResetTimer(id uuid.UUID) (*Timer, error) {
	e, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	e.engine.Reset()
	return e.view(), nil
}

// DeleteTimer closes a timer and forgets it
func (a *App) DeleteTimer(id uuid.UUID) error {
	a.mu.Lock()
	e, ok := a.timers[id]
	if ok {
		delete(a.timers, id)
	}
	a.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}

	e.engine.Close()
	a.emit(events.TypeTimerDeleted, id, events.TimerDeletedPayload{
		TimerID:   id.String(),
		DeletedAt: a.clock.Now().UTC(),
	})

	log.Info().Str("timer_id", id.String()).Msg("deleted timer")
	return nil
}

func (a *App) lookup(id uuid.UUID) (*entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e, ok := a.timers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	return e, nil
}

func (e *entry) view() *Timer {
	t := e.timer
	t.State = e.engine.State()
	return &t
}

func (a *App) onExpire(id uuid.UUID, resetOnExpire bool) {
	log.Info().Str("timer_id", id.String()).Msg("timer expired")
	a.emit(events.TypeTimerExpired, id, events.TimerExpiredPayload{
		TimerID:       id.String(),
		ResetOnExpire: resetOnExpire,
		ExpiredAt:     a.clock.Now().UTC(),
	})
}

func (a *App) onReset(id uuid.UUID) {
	a.mu.RLock()
	e, ok := a.timers[id]
	a.mu.RUnlock()
	if !ok {
		return
	}
	a.emit(events.TypeTimerReset, id, statePayload(id, e.engine.State()))
}

func (a *App) forwardStates(id uuid.UUID, states <-chan countdown.State) {
	for st := range states {
		a.broadcaster.BroadcastState(id, st)
	}
	log.Debug().Str("timer_id", id.String()).Msg("state forwarding stopped")
}

// emit queues an event for Run to publish. Events are dropped when there is
// no publisher or the queue is full.
func (a *App) emit(eventType events.Type, id uuid.UUID, payload any) {
	if a.publisher == nil {
		return
	}

	event, err := events.New(eventType, id, payload, a.clock.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("timer_id", id.String()).Msg("failed to build timer event")
		return
	}

	select {
	case a.eventCh <- event:
	default:
		log.Warn().
			Str("event_type", string(eventType)).
			Str("timer_id", id.String()).
			Msg("event channel full, dropping event")
	}
}

func statePayload(id uuid.UUID, st countdown.State) events.TimerStatePayload {
	return events.TimerStatePayload{
		TimerID:    id.String(),
		TimeLeftMs: st.TimeLeftMs,
		IsRunning:  st.IsRunning,
		At:         st.At,
	}
}
