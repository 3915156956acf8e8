package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"eclipse/internal/config"
	"eclipse/internal/logger"
)

func Connect(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.For("Database").Infof("Connected to database host=%s name=%s", cfg.DBHost, cfg.DBName)
	return db, nil
}
