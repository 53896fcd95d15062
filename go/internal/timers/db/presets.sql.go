package db

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

//go:embed schema.sql
var Schema string

const presetColumns = `id, name, description, duration_ms, interval_ms, auto_start, expire_immediately, reset_on_expire, metadata, created_at, updated_at`

const getPresetByName = `-- name: GetPresetByName :one
SELECT ` + presetColumns + ` FROM timer_presets
WHERE name = $1
`

func (q *Queries) GetPresetByName(ctx context.Context, name string) (TimerPreset, error) {
	row := q.db.QueryRowContext(ctx, getPresetByName, name)
	return scanPreset(row)
}

const getPreset = `-- name: GetPreset :one
SELECT ` + presetColumns + ` FROM timer_presets
WHERE id = $1
`

func (q *Queries) GetPreset(ctx context.Context, id uuid.UUID) (TimerPreset, error) {
	row := q.db.QueryRowContext(ctx, getPreset, id)
	return scanPreset(row)
}

const listPresets = `-- name: ListPresets :many
SELECT ` + presetColumns + ` FROM timer_presets
ORDER BY name
`

func (q *Queries) ListPresets(ctx context.Context) ([]TimerPreset, error) {
	rows, err := q.db.QueryContext(ctx, listPresets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TimerPreset
	for rows.Next() {
		i, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertPreset = `-- name: UpsertPreset :one
INSERT INTO timer_presets (
    id, name, description, duration_ms, interval_ms, auto_start, expire_immediately, reset_on_expire, metadata
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9
)
ON CONFLICT (name) DO UPDATE SET
    description = EXCLUDED.description,
    duration_ms = EXCLUDED.duration_ms,
    interval_ms = EXCLUDED.interval_ms,
    auto_start = EXCLUDED.auto_start,
    expire_immediately = EXCLUDED.expire_immediately,
    reset_on_expire = EXCLUDED.reset_on_expire,
    metadata = EXCLUDED.metadata,
    updated_at = NOW()
RETURNING ` + presetColumns + `
`

type UpsertPresetParams struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	Description       sql.NullString        `json:"description"`
	DurationMs        int64                 `json:"duration_ms"`
	IntervalMs        int64                 `json:"interval_ms"`
	AutoStart         bool                  `json:"auto_start"`
	ExpireImmediately bool                  `json:"expire_immediately"`
	ResetOnExpire     bool                  `json:"reset_on_expire"`
	Metadata          pqtype.NullRawMessage `json:"metadata"`
}

func (q *Queries) UpsertPreset(ctx context.Context, arg UpsertPresetParams) (TimerPreset, error) {
	row := q.db.QueryRowContext(ctx, upsertPreset,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.DurationMs,
		arg.IntervalMs,
		arg.AutoStart,
		arg.ExpireImmediately,
		arg.ResetOnExpire,
		arg.Metadata,
	)
	return scanPreset(row)
}

const deletePreset = `-- name: DeletePreset :exec
DELETE FROM timer_presets
WHERE name = $1
`

func (q *Queries) DeletePreset(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deletePreset, name)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreset(row rowScanner) (TimerPreset, error) {
	var i TimerPreset
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.DurationMs,
		&i.IntervalMs,
		&i.AutoStart,
		&i.ExpireImmediately,
		&i.ResetOnExpire,
		&i.Metadata,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
