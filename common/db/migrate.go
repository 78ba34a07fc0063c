package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver with database/sql for goose
	"github.com/pressly/goose/v3"

	"github.com/beehive/membership/common/config"
	"github.com/beehive/membership/common/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrateUp runs all pending migrations. Goose needs database/sql, so it
// opens its own short-lived connection rather than reusing the pool.
func MigrateUp(cfg *config.Config, log *logger.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	log.Info("running database migrations")
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info("database migrations complete")
	return nil
}
