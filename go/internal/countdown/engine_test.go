package countdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func newTestEngine(t *testing.T, d time.Duration, mutate func(*Config)) (*Engine, *clockwork.FakeClock, <-chan State) {
	t.Helper()

	fc := clockwork.NewFakeClock()
	cfg := NewConfig(d)
	cfg.Name = t.Name()
	cfg.Clock = fc
	if mutate != nil {
		mutate(&cfg)
	}

	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	states, cancel := e.Subscribe()
	t.Cleanup(cancel)
	return e, fc, states
}

func next(t *testing.T, states <-chan State) State {
	t.Helper()
	select {
	case st, ok := <-states:
		require.True(t, ok, "subscription closed")
		return st
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for countdown state")
		return State{}
	}
}

func tick(t *testing.T, fc *clockwork.FakeClock, states <-chan State, d time.Duration) State {
	t.Helper()
	fc.Advance(d)
	return next(t, states)
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for callback")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(NewConfig(0))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg := NewConfig(time.Second)
	cfg.Interval = -time.Millisecond
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineInitialState(t *testing.T) {
	e, _, _ := newTestEngine(t, 3*time.Second, nil)

	st := e.State()
	assert.Equal(t, 3*time.Second, st.TimeLeft)
	assert.False(t, st.IsRunning)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestEngineCountsDownAndResetsOnExpire(t *testing.T) {
	expired := make(chan struct{}, 1)
	var expireCount atomic.Int32
	e, fc, states := newTestEngine(t, 3*time.Second, func(c *Config) {
		c.OnExpire = func() {
			expireCount.Add(1)
			expired <- struct{}{}
		}
	})

	e.Start()
	st := next(t, states)
	assert.True(t, st.IsRunning)
	assert.Equal(t, int64(3000), st.TimeLeftMs)

	var seq []int64
	for i := 0; i < 3; i++ {
		seq = append(seq, tick(t, fc, states, time.Second).TimeLeftMs)
	}
	assert.Equal(t, []int64{2000, 1000, 0}, seq)

	st = tick(t, fc, states, time.Second)
	waitSignal(t, expired)
	assert.Equal(t, int32(1), expireCount.Load())
	assert.Equal(t, int64(3000), st.TimeLeftMs)
	assert.False(t, st.IsRunning)
	assert.Equal(t, PhaseIdle, e.State().Phase)
}

func TestEngineExpireImmediately(t *testing.T) {
	expired := make(chan struct{}, 1)
	e, fc, states := newTestEngine(t, 3*time.Second, func(c *Config) {
		c.ExpireImmediately = true
		c.OnExpire = func() { expired <- struct{}{} }
	})

	e.Start()
	next(t, states)

	assert.Equal(t, int64(2000), tick(t, fc, states, time.Second).TimeLeftMs)
	assert.Equal(t, int64(1000), tick(t, fc, states, time.Second).TimeLeftMs)

	st := tick(t, fc, states, time.Second)
	waitSignal(t, expired)
	assert.Equal(t, int64(3000), st.TimeLeftMs)
	assert.False(t, st.IsRunning)
}

func TestEngineExpireWithoutResetStaysAtZero(t *testing.T) {
	expired := make(chan struct{}, 1)
	e, fc, states := newTestEngine(t, 2*time.Second, func(c *Config) {
		c.ResetOnExpire = false
		c.OnExpire = func() { expired <- struct{}{} }
	})

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	tick(t, fc, states, time.Second)
	st := tick(t, fc, states, time.Second)
	waitSignal(t, expired)

	assert.Equal(t, int64(0), st.TimeLeftMs)
	assert.Equal(t, PhaseExpired, st.Phase)

	e.Start()
	st = e.State()
	assert.False(t, st.IsRunning)
	assert.Equal(t, time.Duration(0), st.TimeLeft)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 0))

	e.Reset()
	assert.Equal(t, 2*time.Second, next(t, states).TimeLeft)
	e.Start()
	assert.True(t, next(t, states).IsRunning)
}

func TestEnginePauseAndResume(t *testing.T) {
	e, fc, states := newTestEngine(t, 5*time.Second, nil)

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	tick(t, fc, states, time.Second)

	e.Pause()
	st := next(t, states)
	assert.False(t, st.IsRunning)
	assert.Equal(t, 3*time.Second, st.TimeLeft)

	// No ticker while paused, so advancing time changes nothing.
	fc.Advance(10 * time.Second)
	assert.Equal(t, 3*time.Second, e.State().TimeLeft)

	e.Start()
	st = next(t, states)
	assert.True(t, st.IsRunning)
	assert.Equal(t, 3*time.Second, st.TimeLeft)
	assert.Equal(t, 2*time.Second, tick(t, fc, states, time.Second).TimeLeft)
}

func TestEngineResetFromAnyState(t *testing.T) {
	var resets atomic.Int32
	e, fc, states := newTestEngine(t, 4*time.Second, func(c *Config) {
		c.OnReset = func() { resets.Add(1) }
	})

	e.Reset()
	assert.Equal(t, int32(1), resets.Load())
	next(t, states)

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	e.Reset()
	st := next(t, states)
	assert.Equal(t, 4*time.Second, st.TimeLeft)
	assert.False(t, st.IsRunning)
	assert.Equal(t, int32(2), resets.Load())

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	e.Pause()
	next(t, states)
	e.Reset()
	assert.Equal(t, 4*time.Second, next(t, states).TimeLeft)
	assert.Equal(t, int32(3), resets.Load())
}

func TestEngineExpiryDoesNotCallOnReset(t *testing.T) {
	var resets atomic.Int32
	expired := make(chan struct{}, 1)
	e, fc, states := newTestEngine(t, time.Second, func(c *Config) {
		c.OnReset = func() { resets.Add(1) }
		c.OnExpire = func() { expired <- struct{}{} }
	})

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	tick(t, fc, states, time.Second)
	waitSignal(t, expired)
	assert.Equal(t, int32(0), resets.Load())
}

func TestEngineAutoStart(t *testing.T) {
	e, fc, states := newTestEngine(t, 2*time.Second, func(c *Config) {
		c.AutoStart = true
	})

	assert.True(t, e.State().IsRunning)
	assert.Equal(t, time.Second, tick(t, fc, states, time.Second).TimeLeft)
}

func TestEngineStartTwiceKeepsOneTicker(t *testing.T) {
	e, fc, states := newTestEngine(t, 3*time.Second, nil)

	e.Start()
	next(t, states)
	e.Start()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	assert.Equal(t, 2*time.Second, tick(t, fc, states, time.Second).TimeLeft)
}

func TestEngineCloseReleasesTicker(t *testing.T) {
	e, fc, states := newTestEngine(t, 3*time.Second, nil)

	e.Start()
	next(t, states)
	e.Close()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 0))

	final, ok := <-states
	require.True(t, ok)
	assert.False(t, final.IsRunning)
	assert.Equal(t, PhaseIdle, final.Phase)
	assert.Equal(t, int64(3000), final.TimeLeftMs)

	_, ok = <-states
	assert.False(t, ok)

	e.Start()
	assert.False(t, e.State().IsRunning)
}

func TestEngineStateAfterCloseIsStopped(t *testing.T) {
	e, fc, states := newTestEngine(t, 3*time.Second, nil)

	e.Start()
	next(t, states)
	fc.Advance(time.Second)
	next(t, states)
	e.Close()
	fc.Advance(5 * time.Second)

	st := e.State()
	assert.False(t, st.IsRunning)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, int64(2000), st.TimeLeftMs)
}

func TestEngineCallbackMayReenter(t *testing.T) {
	restarted := make(chan struct{}, 1)
	var e *Engine
	fc := clockwork.NewFakeClock()
	cfg := NewConfig(time.Second)
	cfg.Clock = fc
	cfg.OnExpire = func() {
		e.Start()
		restarted <- struct{}{}
	}

	var err error
	e, err = New(cfg)
	require.NoError(t, err)
	defer e.Close()

	states, cancel := e.Subscribe()
	defer cancel()

	e.Start()
	next(t, states)
	tick(t, fc, states, time.Second)
	tick(t, fc, states, time.Second)
	waitSignal(t, restarted)
	assert.True(t, e.State().IsRunning)
	assert.Equal(t, time.Second, e.State().TimeLeft)
}
