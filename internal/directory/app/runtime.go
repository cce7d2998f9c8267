package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/rolodex/internal/directory/connectivity"
	"github.com/louisbranch/rolodex/internal/directory/remote"
	"github.com/louisbranch/rolodex/internal/directory/settings"
	directorysqlite "github.com/louisbranch/rolodex/internal/directory/storage/sqlite"
	"github.com/louisbranch/rolodex/internal/platform/schedule"
)

// RuntimeConfig controls directory service startup and refresh pacing.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	SettingsDBPath  string
	APIBaseURL      string
	ProbeURL        string
	ProbeInterval   time.Duration
	RefreshInterval time.Duration
}

const (
	defaultPort           = 8094
	defaultDBPath         = "data/directory.db"
	defaultSettingsDBPath = "data/settings.db"
	defaultAPIBaseURL     = "https://dummyjson.com"
)

// Run starts the directory runtime: stores, remote client, connectivity
// prober, coordinator, the scheduled refresh job, and a gRPC health
// endpoint. It blocks until ctx is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if strings.TrimSpace(cfg.SettingsDBPath) == "" {
		cfg.SettingsDBPath = defaultSettingsDBPath
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	for _, path := range []string{cfg.DBPath, cfg.SettingsDBPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
	}

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

	prober := connectivity.NewProber(connectivity.ProberConfig{
		ProbeURL: cfg.ProbeURL,
		Interval: cfg.ProbeInterval,
	})
	go func() {
		if err := prober.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("connectivity prober stopped: %v", err)
		}
	}()

	coordinator, err := NewCoordinator(store, store, client, prober, settingsStore)
	if err != nil {
		return fmt.Errorf("build coordinator: %w", err)
	}

	scheduler := schedule.New(prober.Reachable)
	defer scheduler.Close()
	job := NewRefreshJob(coordinator, settingsStore, store)
	scheduler.Register(RefreshJobName, schedule.JobConfig{
		Interval:        cfg.RefreshInterval,
		RequiresNetwork: true,
	}, job.Run)

	// Warm the cache once at startup; a failure here is the steady state
	// for an offline start and is only logged.
	if _, err := coordinator.RefreshAgents(ctx, DefaultRefreshLimit, 0); err != nil {
		log.Printf("startup refresh skipped: %v", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on directory port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("directory.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("directory server listening at %v", listener.Addr())
	<-ctx.Done()
	return nil
}
