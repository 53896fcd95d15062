package timers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/countdown"
	"github.com/mcdev12/gametimer/go/internal/models"
	"github.com/mcdev12/gametimer/go/internal/sqlutil"
	"github.com/mcdev12/gametimer/go/internal/timers/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetPresetByName(ctx context.Context, name string) (db.TimerPreset, error)
	ListPresets(ctx context.Context) ([]db.TimerPreset, error)
	UpsertPreset(ctx context.Context, arg db.UpsertPresetParams) (db.TimerPreset, error)
	DeletePreset(ctx context.Context, name string) error
}

// Repository implements preset data access on Postgres
type Repository struct {
	queries Querier
}

// NewRepository creates a new preset repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// EnsureSchema creates the preset table if it does not exist.
func EnsureSchema(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("failed to apply timer schema: %w", err)
	}
	return nil
}

// SeedPresets upserts all presets in a single transaction.
func SeedPresets(ctx context.Context, database *sql.DB, reqs []UpsertPresetRequest) error {
	return sqlutil.Run(ctx, database,
		func(tx *sql.Tx) *db.Queries { return db.New(tx) },
		func(q *db.Queries) error {
			repo := NewRepository(q)
			for _, req := range reqs {
				if _, err := repo.UpsertPreset(ctx, req); err != nil {
					return err
				}
			}
			log.Info().Int("count", len(reqs)).Msg("seeded timer presets")
			return nil
		},
	)
}

// GetPresetByName retrieves a preset by its unique name
func (r *Repository) GetPresetByName(ctx context.Context, name string) (*models.Preset, error) {
	preset, err := r.queries.GetPresetByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return dbPresetToModel(preset), nil
}

// ListPresets retrieves all presets ordered by name
func (r *Repository) ListPresets(ctx context.Context) ([]models.Preset, error) {
	presets, err := r.queries.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	result := make([]models.Preset, len(presets))
	for i, p := range presets {
		result[i] = *dbPresetToModel(p)
	}
	return result, nil
}

// UpsertPreset creates a preset or replaces the one with the same name
func (r *Repository) UpsertPreset(ctx context.Context, req UpsertPresetRequest) (*models.Preset, error) {
	if err := ValidatePreset(req); err != nil {
		return nil, err
	}

	preset, err := r.queries.UpsertPreset(ctx, db.UpsertPresetParams{
		ID:                uuid.New(),
		Name:              req.Name,
		Description:       sqlutil.ToSqlString(req.Description),
		DurationMs:        req.DurationMs,
		IntervalMs:        intervalOrDefault(req.IntervalMs),
		AutoStart:         req.AutoStart,
		ExpireImmediately: req.ExpireImmediately,
		ResetOnExpire:     boolOr(req.ResetOnExpire, true),
		Metadata:          sqlutil.ToNullRawMessage(req.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preset %s: %w", req.Name, err)
	}
	return dbPresetToModel(preset), nil
}

// DeletePreset removes a preset by name
func (r *Repository) DeletePreset(ctx context.Context, name string) error {
	if err := r.queries.DeletePreset(ctx, name); err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return nil
}

func dbPresetToModel(p db.TimerPreset) *models.Preset {
	preset := &models.Preset{
		ID:                p.ID,
		Name:              p.Name,
		Description:       sqlutil.FromSqlStringPtr(p.Description),
		DurationMs:        p.DurationMs,
		IntervalMs:        p.IntervalMs,
		AutoStart:         p.AutoStart,
		ExpireImmediately: p.ExpireImmediately,
		ResetOnExpire:     p.ResetOnExpire,
		Metadata:          sqlutil.FromNullRawMessage(p.Metadata),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	return preset
}

// ValidatePreset checks that req names a preset and describes a countdown
// the engine accepts. Errors wrap countdown.ErrInvalidConfiguration.
func ValidatePreset(req UpsertPresetRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: preset name is required", countdown.ErrInvalidConfiguration)
	}
	s := settings{durationMs: req.DurationMs, intervalMs: intervalOrDefault(req.IntervalMs)}
	cfg, err := s.config(req.Name)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("preset %s: %w", req.Name, err)
	}
	return nil
}

func intervalOrDefault(ms int64) int64 {
	if ms == 0 {
		return countdown.DefaultInterval.Milliseconds()
	}
	return ms
}
