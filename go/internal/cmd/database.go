package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gametimer/go/internal/dbconfig"
	"github.com/mcdev12/gametimer/go/internal/timers"
)

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	dbConfig := dbconfig.NewConfigFromEnv()

	database, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConfig.ConnectTimeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := timers.EnsureSchema(ctx, database); err != nil {
		database.Close()
		return nil, err
	}

	log.Info().
		Str("dsn", dbConfig.Redacted()).
		Msg("connected to database")
	return database, nil
}
