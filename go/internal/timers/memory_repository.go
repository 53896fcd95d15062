package timers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gametimer/go/internal/models"
)

// MemoryRepository keeps presets in process. It backs database-less runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	presets map[string]models.Preset
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{presets: make(map[string]models.Preset)}
}

func (r *MemoryRepository) GetPresetByName(_ context.Context, name string) (*models.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return &p, nil
}

func (r *MemoryRepository) ListPresets(_ context.Context) ([]models.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Preset, 0, len(r.presets))
	for _, p := range r.presets {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemoryRepository) UpsertPreset(_ context.Context, req UpsertPresetRequest) (*models.Preset, error) {
	if err := ValidatePreset(req); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p, exists := r.presets[req.Name]
	if !exists {
		p = models.Preset{ID: uuid.New(), Name: req.Name, CreatedAt: now}
	}
	p.Description = req.Description
	p.DurationMs = req.DurationMs
	p.IntervalMs = intervalOrDefault(req.IntervalMs)
	p.AutoStart = req.AutoStart
	p.ExpireImmediately = req.ExpireImmediately
	p.ResetOnExpire = boolOr(req.ResetOnExpire, true)
	p.Metadata = req.Metadata
	p.UpdatedAt = now

	r.presets[req.Name] = p
	return &p, nil
}

func (r *MemoryRepository) DeletePreset(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.presets, name)
	return nil
}
