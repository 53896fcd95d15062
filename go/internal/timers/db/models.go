package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type TimerPreset struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	Description       sql.NullString        `json:"description"`
	DurationMs        int64                 `json:"duration_ms"`
	IntervalMs        int64                 `json:"interval_ms"`
	AutoStart         bool                  `json:"auto_start"`
	ExpireImmediately bool                  `json:"expire_immediately"`
	ResetOnExpire     bool                  `json:"reset_on_expire"`
	Metadata          pqtype.NullRawMessage `json:"metadata"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}
