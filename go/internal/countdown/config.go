package countdown

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the tick granularity used when none is configured.
const DefaultInterval = time.Second

// ErrInvalidConfiguration is returned when a Config cannot drive a countdown.
var ErrInvalidConfiguration = errors.New("invalid countdown configuration")

// Clock is the subset of clockwork.Clock the engine needs.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Config holds the settings for a single countdown engine.
type Config struct {
	// Name is only used to tag log lines.
	Name string

	Duration time.Duration
	Interval time.Duration

	// AutoStart begins ticking on creation. It has no effect once the timer
	// has expired or been reset.
	AutoStart bool

	// ExpireImmediately fires expiry on the tick that would reach zero,
	// instead of showing zero for one interval first.
	ExpireImmediately bool

	// ResetOnExpire restores Duration after expiry. When false the countdown
	// rests at zero, stopped, until Reset is called.
	ResetOnExpire bool

	// OnExpire is called once per expiry.
	OnExpire func()

	// OnReset is called once per explicit Reset call.
	OnReset func()

	Clock Clock
}

// NewConfig returns a Config for the given duration with default settings.
func NewConfig(duration time.Duration) Config {
	return Config{
		Duration:      duration,
		Interval:      DefaultInterval,
		ResetOnExpire: true,
	}
}

// Validate reports whether the config can drive a countdown.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidConfiguration, c.Duration)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfiguration, c.Interval)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}
