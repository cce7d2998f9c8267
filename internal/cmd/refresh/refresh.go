// Package refresh runs one manual refresh attempt against the shared cache
// databases. It constructs its own component instances; nothing from a
// running directory process is assumed to exist.
package refresh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/louisbranch/rolodex/internal/directory/app"
	"github.com/louisbranch/rolodex/internal/directory/connectivity"
	"github.com/louisbranch/rolodex/internal/directory/remote"
	"github.com/louisbranch/rolodex/internal/directory/settings"
	"github.com/louisbranch/rolodex/internal/directory/storage"
	directorysqlite "github.com/louisbranch/rolodex/internal/directory/storage/sqlite"
	entrypoint "github.com/louisbranch/rolodex/internal/platform/cmd"
	"github.com/louisbranch/rolodex/internal/platform/config"
	"github.com/louisbranch/rolodex/internal/platform/schedule"
)

// Config holds manual refresh command configuration.
type Config struct {
	DBPath         string `env:"ROLODEX_DIRECTORY_DB" envDefault:"data/directory.db" toml:"db_path"`
	SettingsDBPath string `env:"ROLODEX_SETTINGS_DB" envDefault:"data/settings.db" toml:"settings_db_path"`
	APIBaseURL     string `env:"ROLODEX_API_BASE_URL" envDefault:"https://dummyjson.com" toml:"api_base_url"`
	ProbeURL       string `env:"ROLODEX_PROBE_URL" toml:"probe_url"`
}

// ParseConfig parses environment, optional config file, and flags into
// Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := config.LoadFile(os.Getenv("ROLODEX_CONFIG"), &cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the directory cache database")
	fs.StringVar(&cfg.SettingsDBPath, "settings-db", cfg.SettingsDBPath, "Path to the settings database")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Upstream directory API base URL")
	fs.StringVar(&cfg.ProbeURL, "probe-url", cfg.ProbeURL, "Connectivity validation URL")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one refresh attempt and reports failure only when there is
// no cached data left to serve.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRefresh, func(context.Context) error {
		return runOnce(ctx, cfg)
	})
}

func runOnce(ctx context.Context, cfg Config) error {
	store, err := directorysqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open directory store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close directory store: %v", closeErr)
		}
	}()

	settingsStore, err := settings.Open(cfg.SettingsDBPath)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer func() {
		if closeErr := settingsStore.Close(); closeErr != nil {
			log.Printf("close settings store: %v", closeErr)
		}
	}()

	client, err := remote.NewClient(remote.Config{BaseURL: cfg.APIBaseURL})
	if err != nil {
		return fmt.Errorf("build remote client: %w", err)
	}

	prober := connectivity.NewProber(connectivity.ProberConfig{ProbeURL: cfg.ProbeURL})
	prober.ProbeOnce(ctx)

	coordinator, err := app.NewCoordinator(store, store, client, prober, settingsStore)
	if err != nil {
		return fmt.Errorf("build coordinator: %w", err)
	}

	job := app.NewRefreshJob(coordinator, settingsStore, store).WithTrigger(storage.TriggerManual)
	if job.Run(ctx) == schedule.OutcomeSuccess {
		count, err := coordinator.CountCachedAgents(ctx)
		if err != nil {
			return err
		}
		log.Printf("refresh complete; cache holds %d agents", count)
		return nil
	}

	// Stale-but-present data beats an error: surface the failure only when
	// the cache has nothing to serve.
	count, countErr := coordinator.CountCachedAgents(ctx)
	if countErr == nil && count > 0 {
		log.Printf("refresh failed; continuing to serve %d cached agents", count)
		return nil
	}
	return fmt.Errorf("refresh failed and the cache is empty")
}
