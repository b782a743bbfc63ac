package db

import (
	"context"
	"fmt"

	"github.com/neurondb/NeuronFlow/internal/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS node_paths (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		name VARCHAR(32) NOT NULL,
		description VARCHAR(256),
		parent_node_id UUID NOT NULL,
		schema_id UUID NOT NULL,
		next_node_id UUID,
		actions JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_node_paths_parent ON node_paths (parent_node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_node_paths_schema ON node_paths (schema_id)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY,
		client_id UUID NOT NULL,
		first_name VARCHAR(64) NOT NULL,
		last_name VARCHAR(64) NOT NULL,
		email VARCHAR(256) NOT NULL,
		phone VARCHAR(16),
		onboarding_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_client ON participants (client_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS node_paths (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		parent_node_id TEXT NOT NULL,
		schema_id TEXT NOT NULL,
		next_node_id TEXT,
		actions TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_node_paths_parent ON node_paths (parent_node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_node_paths_schema ON node_paths (schema_id)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		onboarding_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_client ON participants (client_id)`,
}

/* Migrate creates the schema; every statement is idempotent */
func (d *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if d.flavor == config.FlavorSQLite {
		stmts = sqliteSchema
	}

	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

/* Truncate empties every table, used by tests */
func (d *DB) Truncate(ctx context.Context) error {
	for _, table := range []string{"node_paths", "participants"} {
		if _, err := d.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
