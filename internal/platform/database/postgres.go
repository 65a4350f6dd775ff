package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"
	"tle_zone_studio/internal/platform/config"
	"tle_zone_studio/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

var DB *sqlx.DB

func Connect() error {
	var err error
	DB, err = sqlx.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Log.Infow("connected to PostgreSQL", "host", config.AppConfig.DBHost, "db", config.AppConfig.DBName)
	return nil
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context) error {
	if _, err := DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.Log.Info("database connection closed")
	}
}
