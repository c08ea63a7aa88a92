package config

import (
	"context"
	"fmt"

	"auction-lifecycle/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase opens the PostgreSQL connection pool and creates the schema
func SetupDatabase(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := CreateTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// CreateTables creates the auction schema if it does not exist
func CreateTables(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			max_price DOUBLE PRECISION NOT NULL,
			validation_state VARCHAR(16) NOT NULL,
			auction_state VARCHAR(16) NOT NULL,
			leader_bid_id VARCHAR(36) NOT NULL DEFAULT '',
			leader_id VARCHAR(36) NOT NULL DEFAULT '',
			winner_id VARCHAR(36) NOT NULL DEFAULT '',
			reviewed_by VARCHAR(36) NOT NULL DEFAULT '',
			closed_by VARCHAR(36) NOT NULL DEFAULT '',
			version BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (auction_state <> 'open' OR validation_state = 'approved')
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id VARCHAR(36) PRIMARY KEY,
			listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			bidder_id VARCHAR(36) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			sequence BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (listing_id, sequence)
		)`,
		`CREATE TABLE IF NOT EXISTS payment_authorizations (
			token VARCHAR(36) PRIMARY KEY,
			listing_id VARCHAR(36) UNIQUE NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			winner_id VARCHAR(36) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL,
			consumed_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_listings_validation ON listings(validation_state, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings(owner_id)",
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			// indexes are not critical
			utils.Warn("failed to create index", map[string]any{"error": err.Error()})
		}
	}

	return nil
}
