// Copyright 2025 Certen Protocol
//
// Read-index client: a pooled Postgres connection plus the migration
// runner that brings pkg/database/migrations up to date. The
// authenticated store (pkg/store) is the consensus-critical source of
// truth; this client only ever backs the secondary index that
// pkg/query reads from, and its health is tracked as non-critical by
// pkg/telemetry (cmd/platformd runs in degraded mode, not failing
// startup, when it can't connect).

package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/driveplatform/core/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client is a pooled connection to the read-index database.
type Client struct {
	db     *sql.DB
	config *config.Config
	logger *log.Logger
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client; cmd/platformd gives
// it a "[ReadIndex]"-prefixed logger so read-index log lines are
// distinguishable from consensus and store log lines.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient opens a connection pool against cfg.DatabaseURL and pings
// it once before returning, so a misconfigured or unreachable
// read-index fails fast at startup rather than on the first query.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	client := &Client{
		config: cfg,
		logger: log.New(log.Writer(), "[ReadIndex] ", log.LstdFlags),
	}

	for _, opt := range opts {
		opt(client)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open read-index connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxConns)
	db.SetMaxIdleConns(cfg.DatabaseMinConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.DatabaseMaxIdleTime) * time.Second)
	db.SetConnMaxLifetime(time.Duration(cfg.DatabaseMaxLifetime) * time.Second)

	client.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping read-index: %w", err)
	}

	client.logger.Printf("connected to read-index (max_conns=%d, min_conns=%d)",
		cfg.DatabaseMaxConns, cfg.DatabaseMinConns)

	return client, nil
}

// DB returns the underlying *sql.DB for direct access.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the read-index connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		c.logger.Println("closing read-index connection")
		return c.db.Close()
	}
	return nil
}

// Ping verifies the read-index connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// ============================================================================
// MIGRATION SUPPORT
// ============================================================================

// MigrateUp applies every pending migration from migrations/, tracked
// in the schema_migrations table the first migration creates.
func (c *Client) MigrateUp(ctx context.Context) error {
	c.logger.Println("running read-index migrations...")

	migrations, err := c.getMigrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}

	applied, err := c.getAppliedMigrations(ctx)
	if err != nil {
		// schema_migrations itself doesn't exist yet: the first
		// migration creates it, so there's nothing applied so far.
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to get applied migrations: %w", err)
		}
		applied = make(map[string]bool)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			c.logger.Printf("  skipping %s (already applied)", migration.Version)
			continue
		}

		c.logger.Printf("  applying %s...", migration.Version)
		if err := c.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
		c.logger.Printf("  applied %s successfully", migration.Version)
	}

	c.logger.Println("read-index migrations complete")
	return nil
}

// Migration is one embedded schema file, identified by its filename
// stem (e.g. "001_initial_schema").
type Migration struct {
	Version  string
	Filename string
	SQL      string
}

// getMigrations reads all migration files from the embedded filesystem.
func (c *Client) getMigrations() ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".sql") {
			return nil
		}

		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		filename := d.Name()
		version := strings.TrimSuffix(filename, ".sql")

		migrations = append(migrations, Migration{
			Version:  version,
			Filename: filename,
			SQL:      string(content),
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// getAppliedMigrations returns the set of already-applied migration
// versions.
func (c *Client) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// applyMigration runs one migration's SQL inside its own transaction.
func (c *Client) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	// Each migration file records itself in schema_migrations via its
	// own INSERT ... ON CONFLICT DO NOTHING.
	return tx.Commit()
}

// ============================================================================
// QUERY HELPERS
// ============================================================================
//
// The repository types (IdentityRepository, ContractRepository,
// DocumentRepository, VoteRepository) are the only callers of these;
// they stay on *Client rather than *sql.DB directly so every query
// goes through the same pooled, pinged connection.

// ExecContext executes a query that doesn't return rows.
func (c *Client) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (c *Client) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns at most one row.
func (c *Client) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}
