package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	tableRaw       = "extraction_raw"
	tableProcessed = "extraction_processed"
)

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS extraction_raw (
		id UUID PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_content BYTEA,
		document_type TEXT NOT NULL,
		fields JSONB NOT NULL,
		llm_model TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_processed (
		id UUID PRIMARY KEY,
		raw_id UUID REFERENCES extraction_raw(id) ON DELETE SET NULL,
		file_name TEXT NOT NULL,
		document_type TEXT NOT NULL,
		fields JSONB NOT NULL,
		response JSONB NOT NULL,
		llm_model TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_processed_raw_id_idx ON extraction_processed (raw_id)`,
}

var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS extraction_raw (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_content BLOB,
		document_type TEXT NOT NULL,
		fields TEXT NOT NULL,
		llm_model TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_processed (
		id TEXT PRIMARY KEY,
		raw_id TEXT REFERENCES extraction_raw(id) ON DELETE SET NULL,
		file_name TEXT NOT NULL,
		document_type TEXT NOT NULL,
		fields TEXT NOT NULL,
		response TEXT NOT NULL,
		llm_model TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_processed_raw_id_idx ON extraction_processed (raw_id)`,
}

// Migrate creates the extraction tables if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	var stmts []string
	switch d.Dialect {
	case dialect.Postgres:
		stmts = postgresDDL
	case dialect.SQLite:
		stmts = sqliteDDL
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", d.Dialect)
	}
	for _, stmt := range stmts {
		if err := d.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
