package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/gametimer/go/internal/countdown"
	"github.com/mcdev12/gametimer/go/internal/dbconfig"
	"github.com/mcdev12/gametimer/go/internal/timers"
	"github.com/mcdev12/gametimer/go/internal/timers/db"
)

const upsertPreset = `
INSERT INTO timer_presets (
  id, name, description, duration_ms, interval_ms,
  auto_start, expire_immediately, reset_on_expire
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
ON CONFLICT (name) DO UPDATE SET
  description        = EXCLUDED.description,
  duration_ms        = EXCLUDED.duration_ms,
  interval_ms        = EXCLUDED.interval_ms,
  auto_start         = EXCLUDED.auto_start,
  expire_immediately = EXCLUDED.expire_immediately,
  reset_on_expire    = EXCLUDED.reset_on_expire,
  updated_at         = NOW()
`

type presetFile struct {
	Presets []timers.UpsertPresetRequest `yaml:"presets"`
}

func loadPresets(path string) ([]timers.UpsertPresetRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal presets: %w", err)
	}
	return file.Presets, nil
}

// presetArgs fills in the same defaults the preset repository applies.
func presetArgs(p timers.UpsertPresetRequest) []any {
	interval := p.IntervalMs
	if interval == 0 {
		interval = countdown.DefaultInterval.Milliseconds()
	}
	resetOnExpire := true
	if p.ResetOnExpire != nil {
		resetOnExpire = *p.ResetOnExpire
	}
	return []any{
		uuid.New(), p.Name, p.Description, p.DurationMs, interval,
		p.AutoStart, p.ExpireImmediately, resetOnExpire,
	}
}

func main() {
	path := "config.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the YAML presets
	presets, err := loadPresets(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Upsert and count
	var (
		total    = len(presets)
		upserted int
		invalid  int
		errs     int
	)

	for _, p := range presets {
		if err := timers.ValidatePreset(p); err != nil {
			fmt.Fprintf(os.Stderr, "skipping invalid preset: %v\n", err)
			invalid++
			continue
		}

		_, err := pool.Exec(ctx, upsertPreset, presetArgs(p)...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error upserting preset %s: %v\n", p.Name, err)
			errs++
			continue
		}
		upserted++
	}

	// 4) Print summary
	fmt.Printf(
		"Presets seed complete: %d total, %d upserted, %d invalid, %d errors\n",
		total, upserted, invalid, errs,
	)
}
