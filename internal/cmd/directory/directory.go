// Package directory parses directory service configuration and launches the
// service runtime.
package directory

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/app"
	entrypoint "github.com/louisbranch/rolodex/internal/platform/cmd"
	"github.com/louisbranch/rolodex/internal/platform/config"
)

// Config holds directory command configuration. Environment values act as
// defaults, a TOML file named by ROLODEX_CONFIG overrides them, and flags
// override both.
type Config struct {
	Port            int           `env:"ROLODEX_DIRECTORY_PORT" envDefault:"8094" toml:"port"`
	DBPath          string        `env:"ROLODEX_DIRECTORY_DB" envDefault:"data/directory.db" toml:"db_path"`
	SettingsDBPath  string        `env:"ROLODEX_SETTINGS_DB" envDefault:"data/settings.db" toml:"settings_db_path"`
	APIBaseURL      string        `env:"ROLODEX_API_BASE_URL" envDefault:"https://dummyjson.com" toml:"api_base_url"`
	ProbeURL        string        `env:"ROLODEX_PROBE_URL" toml:"probe_url"`
	RefreshInterval time.Duration `env:"ROLODEX_REFRESH_INTERVAL" envDefault:"15m" toml:"-"`
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
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The directory health server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the directory cache database")
	fs.StringVar(&cfg.SettingsDBPath, "settings-db", cfg.SettingsDBPath, "Path to the settings database")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Upstream directory API base URL")
	fs.StringVar(&cfg.ProbeURL, "probe-url", cfg.ProbeURL, "Connectivity validation URL")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", cfg.RefreshInterval, "Scheduled refresh interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the directory service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDirectory, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:            cfg.Port,
			DBPath:          cfg.DBPath,
			SettingsDBPath:  cfg.SettingsDBPath,
			APIBaseURL:      cfg.APIBaseURL,
			ProbeURL:        cfg.ProbeURL,
			RefreshInterval: cfg.RefreshInterval,
		})
	})
}
