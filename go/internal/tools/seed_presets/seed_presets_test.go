package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/gametimer/go/internal/timers"
)

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: round
    duration_ms: 60000
  - name: sprint
    duration_ms: 5000
    auto_start: true
`), 0o600))

	presets, err := loadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "sprint", presets[1].Name)
	assert.True(t, presets[1].AutoStart)
	assert.EqualValues(t, 5000, presets[1].DurationMs)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	_, err := loadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPresetArgsDefaults(t *testing.T) {
	args := presetArgs(timers.UpsertPresetRequest{Name: "round", DurationMs: 60000})
	require.Len(t, args, 8)
	assert.Equal(t, "round", args[1])
	assert.Equal(t, int64(1000), args[4])
	assert.Equal(t, true, args[7])

	off := false
	args = presetArgs(timers.UpsertPresetRequest{Name: "blitz", DurationMs: 5000, IntervalMs: 100, ResetOnExpire: &off})
	assert.Equal(t, int64(100), args[4])
	assert.Equal(t, false, args[7])
}

func TestLoadedPresetsAreValidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: ok
    duration_ms: 1000
  - name: overflow
    duration_ms: 18446744073710
`), 0o600))

	presets, err := loadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.NoError(t, timers.ValidatePreset(presets[0]))
	assert.Error(t, timers.ValidatePreset(presets[1]))
}
