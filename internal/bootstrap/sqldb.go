package bootstrap

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/NetDSS-25-26J-035/net-dss-backend/config"
)

// OpenSQL opens the database/sql handle backing the run history. The pgx
// pool from OpenDB serves the network store; both point at the same database.
func OpenSQL(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}
