package settings

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/settings/migrations"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
	sqlitemigrate "github.com/louisbranch/rolodex/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists settings in their own SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
	hub   *livequery.Hub
	now   func() time.Time
}

// Open opens a settings store and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping settings db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{
		sqlDB: sqlDB,
		hub:   livequery.NewHub(),
		now:   time.Now,
	}, nil
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// OfflineOnly reports the offline-only flag, defaulting to false.
func (s *SQLiteStore) OfflineOnly(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyOfflineOnly, DefaultOfflineOnly)
}

// SetOfflineOnly writes the offline-only flag.
func (s *SQLiteStore) SetOfflineOnly(ctx context.Context, enabled bool) error {
	return s.setInt(ctx, KeyOfflineOnly, boolToInt(enabled))
}

// AutoRefreshEnabled reports the auto-refresh flag, defaulting to true.
func (s *SQLiteStore) AutoRefreshEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyAutoRefresh, DefaultAutoRefresh)
}

// SetAutoRefreshEnabled writes the auto-refresh flag.
func (s *SQLiteStore) SetAutoRefreshEnabled(ctx context.Context, enabled bool) error {
	return s.setInt(ctx, KeyAutoRefresh, boolToInt(enabled))
}

// LastRefreshTime reports the last successful refresh, zero when unset.
func (s *SQLiteStore) LastRefreshTime(ctx context.Context) (time.Time, error) {
	millis, err := s.getInt(ctx, KeyLastRefresh, 0)
	if err != nil {
		return time.Time{}, err
	}
	if millis == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(millis).UTC(), nil
}

// SetLastRefreshTime writes the last successful refresh timestamp.
func (s *SQLiteStore) SetLastRefreshTime(ctx context.Context, at time.Time) error {
	return s.setInt(ctx, KeyLastRefresh, at.UTC().UnixMilli())
}

// RecordRefreshSuccess stamps the last refresh time with current time.
func (s *SQLiteStore) RecordRefreshSuccess(ctx context.Context) error {
	return s.SetLastRefreshTime(ctx, s.now())
}

// WatchOfflineOnly streams the offline-only flag, current value first.
func (s *SQLiteStore) WatchOfflineOnly(ctx context.Context) (*livequery.Subscription[bool], error) {
	return livequery.Stream(ctx, s.hub, []string{KeyOfflineOnly}, func(ctx context.Context) (bool, error) {
		return s.OfflineOnly(ctx)
	})
}

// WatchAutoRefreshEnabled streams the auto-refresh flag.
func (s *SQLiteStore) WatchAutoRefreshEnabled(ctx context.Context) (*livequery.Subscription[bool], error) {
	return livequery.Stream(ctx, s.hub, []string{KeyAutoRefresh}, func(ctx context.Context) (bool, error) {
		return s.AutoRefreshEnabled(ctx)
	})
}

// WatchLastRefreshTime streams the last successful refresh timestamp.
func (s *SQLiteStore) WatchLastRefreshTime(ctx context.Context) (*livequery.Subscription[time.Time], error) {
	return livequery.Stream(ctx, s.hub, []string{KeyLastRefresh}, func(ctx context.Context) (time.Time, error) {
		return s.LastRefreshTime(ctx)
	})
}

func (s *SQLiteStore) getBool(ctx context.Context, key string, fallback bool) (bool, error) {
	value, err := s.getInt(ctx, key, boolToInt(fallback))
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

func (s *SQLiteStore) getInt(ctx context.Context, key string, fallback int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("settings store is not configured")
	}
	var value int64
	row := s.sqlDB.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return fallback, nil
		}
		return 0, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setInt(ctx context.Context, key string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("settings store is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`, key, value, s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	s.hub.Notify(key)
	return nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
