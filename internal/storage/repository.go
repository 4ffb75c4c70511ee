package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SavePlaceDetails inserts or refreshes a place details entry.
func (db *DB) SavePlaceDetails(ctx context.Context, d *PlaceDetails) error {
	query := `
		INSERT INTO place_details (place_id, name, address, phone, hours, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			phone = excluded.phone,
			hours = excluded.hours,
			cached_at = excluded.cached_at
	`
	_, err := db.conn.ExecContext(ctx, query, d.PlaceID, d.Name, d.Address, d.Phone, d.Hours, db.now().Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save place details",
			"place_id", d.PlaceID,
			"error", err)
		return fmt.Errorf("failed to save place details: %w", err)
	}
	return nil
}

// GetPlaceDetails returns the cached entry for placeID, or nil when it is
// missing or older than the cache TTL.
func (db *DB) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	query := `
		SELECT place_id, name, address, phone, hours, cached_at
		FROM place_details WHERE place_id = ? AND cached_at > ?
	`
	var d PlaceDetails
	var address, phone, hours sql.NullString
	err := db.conn.QueryRowContext(ctx, query, placeID, db.cutoff()).Scan(
		&d.PlaceID,
		&d.Name,
		&address,
		&phone,
		&hours,
		&d.CachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query place details: %w", err)
	}
	d.Address, d.Phone, d.Hours = address.String, phone.String, hours.String
	return &d, nil
}

// sourceHash is the translations key of a source text.
func sourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// SaveTranslation caches the translation of source into target.
func (db *DB) SaveTranslation(ctx context.Context, source, target, translated, provider string) error {
	query := `
		INSERT INTO translations (source_hash, target, translated, provider, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_hash, target) DO UPDATE SET
			translated = excluded.translated,
			provider = excluded.provider,
			cached_at = excluded.cached_at
	`
	if _, err := db.conn.ExecContext(ctx, query, sourceHash(source), target, translated, provider, db.now().Unix()); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}

// GetTranslation returns the cached translation of source, or nil when
// missing or expired.
func (db *DB) GetTranslation(ctx context.Context, source, target string) (*Translation, error) {
	query := `
		SELECT target, translated, provider, cached_at
		FROM translations WHERE source_hash = ? AND target = ? AND cached_at > ?
	`
	var t Translation
	var provider sql.NullString
	err := db.conn.QueryRowContext(ctx, query, sourceHash(source), target, db.cutoff()).
		Scan(&t.Target, &t.Translated, &provider, &t.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query translation: %w", err)
	}
	t.Provider = provider.String
	return &t, nil
}

// DeleteExpired removes entries older than the cache TTL from every table
// and returns how many rows were deleted.
func (db *DB) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := db.cutoff()

	var total int64
	for _, table := range []string{"place_details", "translations"} {
		res, err := db.conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE cached_at <= ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to delete expired %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected for %s: %w", table, err)
		}
		total += n
	}

	slog.DebugContext(ctx, "expired cache entries deleted",
		"count", total,
		"duration_ms", time.Since(start).Milliseconds())
	return total, nil
}

// CountPlaceDetails counts unexpired place details entries.
func (db *DB) CountPlaceDetails(ctx context.Context) (int, error) {
	return db.count(ctx, "place_details")
}

// CountTranslations counts unexpired translations.
func (db *DB) CountTranslations(ctx context.Context) (int, error) {
	return db.count(ctx, "translations")
}

func (db *DB) count(ctx context.Context, table string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE cached_at > ?", db.cutoff()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
