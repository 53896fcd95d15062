package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Preset is a named, reusable countdown configuration.
type Preset struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       *string         `json:"description,omitempty"`
	DurationMs        int64           `json:"duration_ms"`
	IntervalMs        int64           `json:"interval_ms"`
	AutoStart         bool            `json:"auto_start"`
	ExpireImmediately bool            `json:"expire_immediately"`
	ResetOnExpire     bool            `json:"reset_on_expire"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Duration returns the preset's countdown length.
func (p Preset) Duration() time.Duration {
	return time.Duration(p.DurationMs) * time.Millisecond
}

// Interval returns the preset's tick granularity.
func (p Preset) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}
