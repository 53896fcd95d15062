package countdown

import "time"

// Phase is the coarse position of a countdown in its lifecycle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseArmed   Phase = "armed"
	PhaseRunning Phase = "running"
	PhaseExpired Phase = "expired"
)

// State is a point-in-time snapshot of a countdown.
type State struct {
	TimeLeft  time.Duration `json:"-"`
	IsRunning bool          `json:"is_running"`
	Phase     Phase         `json:"phase"`

	TimeLeftMs int64     `json:"time_left_ms"`
	At         time.Time `json:"at"`
}
