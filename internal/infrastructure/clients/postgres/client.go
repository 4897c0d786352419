package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/breadfindr/backend/pkg/config"
	"github.com/zatekoja/breadfindr/backend/pkg/retry"
)

// Schema creates the tables the adapters read and write.
const Schema = `
CREATE TABLE IF NOT EXISTS bakeries (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL,
	description     TEXT,
	specialties     TEXT[],
	rating          DOUBLE PRECISION,
	review_count    INTEGER,
	address         TEXT,
	city            TEXT,
	state           TEXT,
	zip             TEXT,
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION,
	phone           TEXT,
	website         TEXT,
	instagram       TEXT,
	hours           TEXT,
	image_url       TEXT,
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	featured        BOOLEAN NOT NULL DEFAULT FALSE,
	approved        BOOLEAN NOT NULL DEFAULT FALSE,
	source          TEXT,
	google_place_id TEXT UNIQUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reviews (
	id            TEXT PRIMARY KEY,
	bakery_id     TEXT NOT NULL REFERENCES bakeries(id) ON DELETE CASCADE,
	reviewer_name TEXT NOT NULL,
	rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment       TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bakeries_approved ON bakeries (approved, featured DESC, rating DESC);
CREATE INDEX IF NOT EXISTS idx_reviews_bakery ON reviews (bakery_id, created_at DESC);
`

// Client represents a PostgreSQL database client
type Client struct {
	db *sql.DB
}

// NewClient creates a new PostgreSQL client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 5
	err = retry.DoWithLog(ctx, retryConfig, "PostgreSQL",
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("PostgreSQL connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("connected to PostgreSQL")
	return &Client{db: db}, nil
}

// NewClientFromDB wraps an existing connection pool.
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// EnsureSchema applies Schema. Every statement is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}
