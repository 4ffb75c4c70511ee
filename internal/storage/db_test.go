package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "sub1", "sub2", "cache.db")

	db, err := New(context.Background(), dbPath, time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, db.Path())
	assert.Equal(t, time.Hour, db.CacheTTL())
}

func TestNewTestDB(t *testing.T) {
	t.Parallel()

	db, err := NewTestDB(context.Background())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	n, err := db.CountPlaceDetails(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlaceDetails_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	got, err := db.GetPlaceDetails(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	in := &PlaceDetails{PlaceID: "p1", Name: "阿明早餐", Address: "台中市西區", Phone: "04-1234", Hours: "星期一: 06:00–11:00"}
	require.NoError(t, db.SavePlaceDetails(ctx, in))

	got, err = db.GetPlaceDetails(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "阿明早餐", got.Name)
	assert.Equal(t, "04-1234", got.Phone)
	assert.NotZero(t, got.CachedAt)

	in.Name = "阿明早餐店"
	require.NoError(t, db.SavePlaceDetails(ctx, in))
	got, err = db.GetPlaceDetails(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "阿明早餐店", got.Name)

	n, err := db.CountPlaceDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTranslation_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.SaveTranslation(ctx, "Great coffee", "zh-TW", "咖啡很棒", "google"))

	got, err := db.GetTranslation(ctx, "Great coffee", "zh-TW")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "咖啡很棒", got.Translated)
	assert.Equal(t, "google", got.Provider)

	other, err := db.GetTranslation(ctx, "Great coffee", "ja")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	base := time.Now()
	db.now = func() time.Time { return base.Add(-2 * time.Hour) }
	require.NoError(t, db.SavePlaceDetails(ctx, &PlaceDetails{PlaceID: "old", Name: "old"}))
	require.NoError(t, db.SaveTranslation(ctx, "old", "zh-TW", "舊", "google"))

	db.now = func() time.Time { return base }
	require.NoError(t, db.SavePlaceDetails(ctx, &PlaceDetails{PlaceID: "fresh", Name: "fresh"}))

	got, err := db.GetPlaceDetails(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries read as missing")

	tr, err := db.GetTranslation(ctx, "old", "zh-TW")
	require.NoError(t, err)
	assert.Nil(t, tr)

	deleted, err := db.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	n, err := db.CountPlaceDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = db.CountTranslations(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestErrorPaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		call   func(*DB) error
		want   string
	}{
		{
			name:   "save place details",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("INSERT INTO place_details").WillReturnError(boom) },
			call: func(db *DB) error {
				return db.SavePlaceDetails(ctx, &PlaceDetails{PlaceID: "p"})
			},
			want: "failed to save place details",
		},
		{
			name:   "get place details",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT place_id").WillReturnError(boom) },
			call: func(db *DB) error {
				_, err := db.GetPlaceDetails(ctx, "p")
				return err
			},
			want: "query place details",
		},
		{
			name:   "save translation",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("INSERT INTO translations").WillReturnError(boom) },
			call: func(db *DB) error {
				return db.SaveTranslation(ctx, "a", "zh-TW", "b", "google")
			},
			want: "failed to save translation",
		},
		{
			name:   "get translation",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT target").WillReturnError(boom) },
			call: func(db *DB) error {
				_, err := db.GetTranslation(ctx, "a", "zh-TW")
				return err
			},
			want: "query translation",
		},
		{
			name: "delete expired stops at first failing table",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec("DELETE FROM place_details").WillReturnResult(sqlmock.NewResult(0, 3))
				m.ExpectExec("DELETE FROM translations").WillReturnError(boom)
			},
			call: func(db *DB) error {
				n, err := db.DeleteExpired(ctx)
				assert.Equal(t, int64(3), n)
				return err
			},
			want: "failed to delete expired translations",
		},
		{
			name:   "count",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT COUNT").WillReturnError(boom) },
			call: func(db *DB) error {
				_, err := db.CountTranslations(ctx)
				return err
			},
			want: "failed to count translations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			conn, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = conn.Close() }()

			tt.expect(mock)
			err = tt.call(newWithConn(conn, "mock", time.Hour))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.ErrorIs(t, err, boom)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
