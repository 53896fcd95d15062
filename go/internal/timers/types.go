package timers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gametimer/go/internal/countdown"
)

var (
	ErrTimerNotFound  = errors.New("timer not found")
	ErrPresetNotFound = errors.New("preset not found")
)

// UpsertPresetRequest represents the data needed to create or replace a preset
type UpsertPresetRequest struct {
	Name              string          `json:"name" yaml:"name"`
	Description       *string         `json:"description,omitempty" yaml:"description"`
	DurationMs        int64           `json:"duration_ms" yaml:"duration_ms"`
	IntervalMs        int64           `json:"interval_ms,omitempty" yaml:"interval_ms"`
	AutoStart         bool            `json:"auto_start" yaml:"auto_start"`
	ExpireImmediately bool            `json:"expire_immediately" yaml:"expire_immediately"`
	ResetOnExpire     *bool           `json:"reset_on_expire,omitempty" yaml:"reset_on_expire"`
	Metadata          json.RawMessage `json:"metadata,omitempty" yaml:"-"`
}

// CreateTimerRequest creates a live timer either from a named preset or from
// inline settings. Inline settings are ignored when Preset is set.
type CreateTimerRequest struct {
	Name              string `json:"name"`
	Preset            string `json:"preset,omitempty"`
	DurationMs        int64  `json:"duration_ms,omitempty"`
	IntervalMs        int64  `json:"interval_ms,omitempty"`
	AutoStart         bool   `json:"auto_start"`
	ExpireImmediately bool   `json:"expire_immediately"`
	ResetOnExpire     *bool  `json:"reset_on_expire,omitempty"`
}

// Timer describes a live countdown and its latest state.
type Timer struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Preset            string          `json:"preset,omitempty"`
	DurationMs        int64           `json:"duration_ms"`
	IntervalMs        int64           `json:"interval_ms"`
	AutoStart         bool            `json:"auto_start"`
	ExpireImmediately bool            `json:"expire_immediately"`
	ResetOnExpire     bool            `json:"reset_on_expire"`
	CreatedAt         time.Time       `json:"created_at"`
	State             countdown.State `json:"state"`
}

// settings are the countdown options shared by presets and inline requests.
type settings struct {
	durationMs        int64
	intervalMs        int64
	autoStart         bool
	expireImmediately bool
	resetOnExpire     bool
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// config converts s into engine options. Millisecond values that would
// overflow a time.Duration are rejected; everything else is left to
// countdown.Config.Validate.
func (s settings) config(name string) (countdown.Config, error) {
	if s.durationMs > maxMillis {
		return countdown.Config{}, fmt.Errorf("%w: duration_ms %d exceeds %d", countdown.ErrInvalidConfiguration, s.durationMs, maxMillis)
	}
	if s.intervalMs > maxMillis {
		return countdown.Config{}, fmt.Errorf("%w: interval_ms %d exceeds %d", countdown.ErrInvalidConfiguration, s.intervalMs, maxMillis)
	}

	cfg := countdown.NewConfig(time.Duration(s.durationMs) * time.Millisecond)
	cfg.Name = name
	if s.intervalMs != 0 {
		cfg.Interval = time.Duration(s.intervalMs) * time.Millisecond
	}
	cfg.AutoStart = s.autoStart
	cfg.ExpireImmediately = s.expireImmediately
	cfg.ResetOnExpire = s.resetOnExpire
	return cfg, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
