package countdown

import "time"

// machine holds countdown state and applies transitions. It performs no
// scheduling and no locking; Engine owns both.
type machine struct {
	duration          time.Duration
	interval          time.Duration
	expireImmediately bool
	resetOnExpire     bool

	timeLeft  time.Duration
	isRunning bool
	// canStart latches a start request until the loop is armed.
	canStart bool
}

func newMachine(cfg Config) *machine {
	return &machine{
		duration:          cfg.Duration,
		interval:          cfg.Interval,
		expireImmediately: cfg.ExpireImmediately,
		resetOnExpire:     cfg.ResetOnExpire,
		timeLeft:          cfg.Duration,
		canStart:          cfg.AutoStart,
	}
}

// start records a start request. It reports whether the loop should be armed.
func (m *machine) start() bool {
	if m.isRunning {
		return false
	}
	m.canStart = m.timeLeft != 0
	return m.canStart
}

// run consumes the start latch once the loop has been armed.
func (m *machine) run() {
	m.canStart = false
	m.isRunning = true
}

func (m *machine) pause() {
	m.canStart = false
	m.isRunning = false
}

func (m *machine) reset() {
	m.stopAt(m.duration)
}

func (m *machine) expire() {
	if m.resetOnExpire {
		m.stopAt(m.duration)
		return
	}
	m.stopAt(0)
}

func (m *machine) stopAt(timeLeft time.Duration) {
	m.timeLeft = timeLeft
	m.canStart = false
	m.isRunning = false
}

// tick advances the countdown by one interval. It reports true when the
// countdown expired on this tick, in which case expire has been applied.
func (m *machine) tick() bool {
	if m.shouldExpire() {
		m.expire()
		return true
	}
	m.timeLeft -= m.interval
	if m.timeLeft < 0 {
		m.timeLeft = 0
	}
	return false
}

func (m *machine) shouldExpire() bool {
	if m.timeLeft <= 0 {
		return true
	}
	return m.expireImmediately && m.timeLeft-m.interval <= 0
}

func (m *machine) phase() Phase {
	switch {
	case m.isRunning:
		return PhaseRunning
	case m.canStart:
		return PhaseArmed
	case m.timeLeft == 0:
		return PhaseExpired
	default:
		return PhaseIdle
	}
}

func (m *machine) snapshot(at time.Time) State {
	return State{
		TimeLeft:   m.timeLeft,
		IsRunning:  m.isRunning,
		Phase:      m.phase(),
		TimeLeftMs: m.timeLeft.Milliseconds(),
		At:         at,
	}
}
