package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createPlaceDetailsTable(ctx, db); err != nil {
		return err
	}
	return createTranslationsTable(ctx, db)
}

func createPlaceDetailsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS place_details (
		place_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		phone TEXT,
		hours TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_place_details_cached_at ON place_details(cached_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create place_details table: %w", err)
	}
	return nil
}

func createTranslationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS translations (
		source_hash TEXT NOT NULL,
		target TEXT NOT NULL,
		translated TEXT NOT NULL,
		provider TEXT,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (source_hash, target)
	);
	CREATE INDEX IF NOT EXISTS idx_translations_cached_at ON translations(cached_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create translations table: %w", err)
	}
	return nil
}
