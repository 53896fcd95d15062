package countdown

import (
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is how many snapshots a subscriber may lag before drops.
const subscriberBuffer = 64

// Engine runs a single countdown. All methods are safe for concurrent use.
//
// Callbacks run after the engine lock is released, so they may call back
// into the engine. OnExpire runs on the engine's tick goroutine; OnReset runs
// on the goroutine that called Reset.
type Engine struct {
	name     string
	clock    Clock
	onExpire func()
	onReset  func()

	mu      sync.Mutex
	m       *machine
	loop    *tickLoop
	closed  bool
	subs    map[int]chan State
	nextSub int
}

// tickLoop is one armed ticker and the goroutine draining it.
type tickLoop struct {
	ticker clockwork.Ticker
	done   chan struct{}
}

// New validates cfg and returns an engine. If cfg.AutoStart is set the
// countdown is already running when New returns.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new countdown %q: %w", cfg.Name, err)
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		name:     cfg.Name,
		clock:    cfg.Clock,
		onExpire: cfg.OnExpire,
		onReset:  cfg.OnReset,
		m:        newMachine(cfg),
		subs:     make(map[int]chan State),
	}

	e.mu.Lock()
	if e.m.canStart {
		e.armLocked()
	}
	e.mu.Unlock()

	return e, nil
}

// Start begins or resumes the countdown. It does nothing while running, or
// when the countdown rests at zero after an expiry without ResetOnExpire.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if !e.m.start() {
		log.Debug().
			Str("timer", e.name).
			Int64("time_left_ms", e.m.timeLeft.Milliseconds()).
			Bool("is_running", e.m.isRunning).
			Msg("start ignored")
		return
	}
	e.armLocked()
	e.notifyLocked()

	log.Debug().
		Str("timer", e.name).
		Int64("time_left_ms", e.m.timeLeft.Milliseconds()).
		Msg("countdown started")
}

// Pause stops the countdown, keeping the time left as is.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.stopLoopLocked()
	e.m.pause()
	e.notifyLocked()

	log.Debug().
		Str("timer", e.name).
		Int64("time_left_ms", e.m.timeLeft.Milliseconds()).
		Msg("countdown paused")
}

// Reset stops the countdown, restores the full duration and calls OnReset.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopLoopLocked()
	e.m.reset()
	e.notifyLocked()
	e.mu.Unlock()

	log.Debug().Str("timer", e.name).Msg("countdown reset")

	if e.onReset != nil {
		e.onReset()
	}
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.snapshot(e.clock.Now())
}

// Subscribe returns a channel that receives a snapshot after every
// transition, and a func to stop receiving. A subscriber that falls
// subscriberBuffer snapshots behind misses updates. The channel is closed
// when the engine is closed or the subscription cancelled.
func (e *Engine) Subscribe() (<-chan State, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan State, subscriberBuffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if c, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(c)
			}
		})
	}
}

// Close stops the countdown and releases its ticker. Subscribers receive a
// final stopped snapshot before their channels close. Further calls to
// Start, Pause and Reset do nothing.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.stopLoopLocked()
	e.m.pause()
	e.notifyLocked()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}

	log.Debug().Str("timer", e.name).Msg("countdown closed")
}

// armLocked replaces any running loop with a fresh ticker.
func (e *Engine) armLocked() {
	e.stopLoopLocked()

	l := &tickLoop{
		ticker: e.clock.NewTicker(e.m.interval),
		done:   make(chan struct{}),
	}
	e.loop = l
	e.m.run()

	go e.runLoop(l)
}

func (e *Engine) stopLoopLocked() {
	if e.loop == nil {
		return
	}
	e.loop.ticker.Stop()
	close(e.loop.done)
	e.loop = nil
}

func (e *Engine) runLoop(l *tickLoop) {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.Chan():
			if !e.handleTick(l) {
				return
			}
		}
	}
}

// handleTick applies one tick. It reports whether the loop should continue.
func (e *Engine) handleTick(l *tickLoop) bool {
	e.mu.Lock()
	if e.loop != l {
		// Tick from a loop that has since been cancelled.
		e.mu.Unlock()
		return false
	}

	expired := e.m.tick()
	if expired {
		e.stopLoopLocked()
	}
	e.notifyLocked()
	e.mu.Unlock()

	if !expired {
		return true
	}

	log.Debug().
		Str("timer", e.name).
		Bool("reset_on_expire", e.m.resetOnExpire).
		Msg("countdown expired")

	if e.onExpire != nil {
		e.onExpire()
	}
	return false
}

func (e *Engine) notifyLocked() {
	if len(e.subs) == 0 {
		return
	}
	st := e.m.snapshot(e.clock.Now())
	for _, ch := range e.subs {
		select {
		case ch <- st:
		default:
			log.Warn().Str("timer", e.name).Msg("subscriber buffer full, dropping snapshot")
		}
	}
}
