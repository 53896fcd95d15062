package timers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/gametimer/go/internal/countdown"
	"github.com/mcdev12/gametimer/go/internal/timers/db"
)

type fakeQuerier struct {
	rows    map[string]db.TimerPreset
	lastArg db.UpsertPresetParams
	err     error
}

func (q *fakeQuerier) GetPresetByName(_ context.Context, name string) (db.TimerPreset, error) {
	if q.err != nil {
		return db.TimerPreset{}, q.err
	}
	row, ok := q.rows[name]
	if !ok {
		return db.TimerPreset{}, sql.ErrNoRows
	}
	return row, nil
}

func (q *fakeQuerier) ListPresets(_ context.Context) ([]db.TimerPreset, error) {
	if q.err != nil {
		return nil, q.err
	}
	var out []db.TimerPreset
	for _, r := range q.rows {
		out = append(out, r)
	}
	return out, nil
}

func (q *fakeQuerier) UpsertPreset(_ context.Context, arg db.UpsertPresetParams) (db.TimerPreset, error) {
	q.lastArg = arg
	row := db.TimerPreset{
		ID:                arg.ID,
		Name:              arg.Name,
		Description:       arg.Description,
		DurationMs:        arg.DurationMs,
		IntervalMs:        arg.IntervalMs,
		AutoStart:         arg.AutoStart,
		ExpireImmediately: arg.ExpireImmediately,
		ResetOnExpire:     arg.ResetOnExpire,
		Metadata:          arg.Metadata,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	q.rows[arg.Name] = row
	return row, nil
}

func (q *fakeQuerier) DeletePreset(_ context.Context, name string) error {
	delete(q.rows, name)
	return q.err
}

func TestRepositoryUpsertMapsColumns(t *testing.T) {
	q := &fakeQuerier{rows: map[string]db.TimerPreset{}}
	repo := NewRepository(q)

	desc := "ten second round"
	preset, err := repo.UpsertPreset(context.Background(), UpsertPresetRequest{
		Name:        "round",
		Description: &desc,
		DurationMs:  10000,
		Metadata:    json.RawMessage(`{"pool":"cake"}`),
	})
	require.NoError(t, err)

	assert.True(t, q.lastArg.Description.Valid)
	assert.True(t, q.lastArg.Metadata.Valid)
	assert.Equal(t, int64(1000), q.lastArg.IntervalMs)
	assert.True(t, q.lastArg.ResetOnExpire)

	require.NotNil(t, preset.Description)
	assert.Equal(t, desc, *preset.Description)
	assert.JSONEq(t, `{"pool":"cake"}`, string(preset.Metadata))
	assert.Equal(t, 10*time.Second, preset.Duration())
	assert.Equal(t, time.Second, preset.Interval())
}

func TestRepositoryNullColumns(t *testing.T) {
	q := &fakeQuerier{rows: map[string]db.TimerPreset{}}
	repo := NewRepository(q)

	_, err := repo.UpsertPreset(context.Background(), UpsertPresetRequest{Name: "bare", DurationMs: 500, IntervalMs: 100})
	require.NoError(t, err)
	assert.False(t, q.lastArg.Description.Valid)
	assert.False(t, q.lastArg.Metadata.Valid)

	preset, err := repo.GetPresetByName(context.Background(), "bare")
	require.NoError(t, err)
	assert.Nil(t, preset.Description)
	assert.Nil(t, preset.Metadata)
}

func TestRepositoryNotFound(t *testing.T) {
	repo := NewRepository(&fakeQuerier{rows: map[string]db.TimerPreset{}})

	_, err := repo.GetPresetByName(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestRepositoryWrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := NewRepository(&fakeQuerier{rows: map[string]db.TimerPreset{}, err: boom})

	_, err := repo.GetPresetByName(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPresetNotFound)

	_, err = repo.ListPresets(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestValidatePreset(t *testing.T) {
	tests := []struct {
		name    string
		req     UpsertPresetRequest
		wantErr bool
	}{
		{"valid", UpsertPresetRequest{Name: "round", DurationMs: 60000}, false},
		{"default interval", UpsertPresetRequest{Name: "round", DurationMs: 1, IntervalMs: 0}, false},
		{"largest duration", UpsertPresetRequest{Name: "long", DurationMs: maxMillis}, false},
		{"missing name", UpsertPresetRequest{DurationMs: 1000}, true},
		{"zero duration", UpsertPresetRequest{Name: "zero"}, true},
		{"negative interval", UpsertPresetRequest{Name: "neg", DurationMs: 1000, IntervalMs: -1}, true},
		{"duration overflow", UpsertPresetRequest{Name: "big", DurationMs: maxMillis + 1}, true},
		{"duration max int64", UpsertPresetRequest{Name: "huge", DurationMs: math.MaxInt64}, true},
		{"interval overflow", UpsertPresetRequest{Name: "slow", DurationMs: 1000, IntervalMs: 18446744073710}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePreset(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, countdown.ErrInvalidConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}
