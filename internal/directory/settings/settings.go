// Package settings persists the durable directory mode flags: offline-only
// mode, auto-refresh enabled, and the last successful refresh time. Each
// key is readable as a live stream and writable with last-writer-wins
// semantics; values survive process restarts.
package settings

import (
	"context"
	"time"

	"github.com/louisbranch/rolodex/internal/platform/livequery"
)

// Persisted settings keys.
const (
	KeyOfflineOnly = "offline_only_mode"
	KeyAutoRefresh = "auto_refresh_enabled"
	KeyLastRefresh = "last_refresh_time"
)

// Defaults applied when a key has never been written.
const (
	DefaultOfflineOnly = false
	DefaultAutoRefresh = true
)

// Store is the mode/settings contract the coordinator and the scheduled
// refresh job consume.
type Store interface {
	OfflineOnly(ctx context.Context) (bool, error)
	SetOfflineOnly(ctx context.Context, enabled bool) error
	AutoRefreshEnabled(ctx context.Context) (bool, error)
	SetAutoRefreshEnabled(ctx context.Context, enabled bool) error
	LastRefreshTime(ctx context.Context) (time.Time, error)
	SetLastRefreshTime(ctx context.Context, at time.Time) error
	// RecordRefreshSuccess stamps the last refresh time with current time.
	RecordRefreshSuccess(ctx context.Context) error

	WatchOfflineOnly(ctx context.Context) (*livequery.Subscription[bool], error)
	WatchAutoRefreshEnabled(ctx context.Context) (*livequery.Subscription[bool], error)
	WatchLastRefreshTime(ctx context.Context) (*livequery.Subscription[time.Time], error)
}
