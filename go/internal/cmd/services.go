package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/events"
	"github.com/mcdev12/gametimer/go/internal/gateway"
	"github.com/mcdev12/gametimer/go/internal/timers"
	timersdb "github.com/mcdev12/gametimer/go/internal/timers/db"
)

type Services struct {
	Timers    *timers.App
	Gateway   *gateway.Service
	Publisher *events.JetStreamPublisher
	Database  *sql.DB
}

func (s *Services) Close() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}
	if s.Database != nil {
		if err := s.Database.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Storage → Repository → App → Gateway
	services := &Services{}

	repo, err := setupRepository(ctx, cfg, services)
	if err != nil {
		services.Close()
		return nil, err
	}

	var publisher events.Publisher
	if cfg.NATS.Enabled {
		jsPublisher, err := events.NewJetStreamPublisher(ctx, cfg.jetStreamConfig())
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("create JetStream publisher: %w", err)
		}
		services.Publisher = jsPublisher
		publisher = jsPublisher
	} else {
		log.Info().Msg("NATS disabled, timer events will not be published")
	}

	gatewayCfg := gateway.DefaultConfig()
	cm := gateway.NewConnectionManager(gatewayCfg.ConnectionConfig)

	services.Timers = timers.NewApp(repo, publisher, cm, nil)
	services.Gateway = gateway.NewService(cm, services.Timers)

	if err := loadPresets(ctx, cfg, services); err != nil {
		services.Close()
		return nil, err
	}

	return services, nil
}

func setupRepository(ctx context.Context, cfg *Config, services *Services) (timers.PresetRepository, error) {
	if cfg.Storage.Driver == "memory" {
		log.Info().Msg("using in-memory preset storage")
		return timers.NewMemoryRepository(), nil
	}

	database, err := setupDatabase(ctx)
	if err != nil {
		return nil, err
	}
	services.Database = database
	return timers.NewRepository(timersdb.New(database)), nil
}

// loadPresets upserts the presets declared in the config file.
func loadPresets(ctx context.Context, cfg *Config, services *Services) error {
	if len(cfg.Presets) == 0 {
		return nil
	}
	if services.Database != nil {
		if err := timers.SeedPresets(ctx, services.Database, cfg.Presets); err != nil {
			return fmt.Errorf("failed to seed configured presets: %w", err)
		}
		return nil
	}
	for _, preset := range cfg.Presets {
		if _, err := services.Timers.UpsertPreset(ctx, preset); err != nil {
			return fmt.Errorf("failed to load configured preset: %w", err)
		}
	}
	return nil
}
