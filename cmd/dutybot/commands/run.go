package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"dutybot/internal/cache"
	"dutybot/internal/chat"
	"dutybot/internal/config"
	"dutybot/internal/engine"
	"dutybot/internal/ingest"
	"dutybot/internal/logger"
	"dutybot/internal/notify"
	"dutybot/internal/sheets"
	"dutybot/internal/snapshot"
	"dutybot/internal/topic"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the synchronization engine",
	Long: `Run the synchronization engine until interrupted.

The engine executes one cycle immediately, then one per configured
interval: refresh the calendar, roster, user and conversation caches,
then walk every enabled task that is due and patch its conversation
topic. SIGINT or SIGTERM stops the engine after the current cycle.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Setup(logger.Options{JSON: jsonLogs, Debug: debugLogs})

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	if cfg.SlackToken == "" {
		return fmt.Errorf("SLACK_TOKEN must be set")
	}
	if cfg.SheetsToken == "" {
		return fmt.Errorf("SHEETS_TOKEN must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snaps, cleanup, err := openSnapshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	slack := chat.NewSlackClient(cfg.SlackToken)
	fetcher := sheets.NewClient(cfg.SheetsToken)

	store := cache.New(cfg.Timetables)
	notifier := notify.New(slack, store, cfg.Admin, log)
	sheetsIngest := ingest.NewSheets(fetcher, store, snaps, log)
	directoryIngest := ingest.NewDirectory(slack, store, snaps, log)
	syncer := topic.New(slack, store, notifier, snaps, log)

	e := engine.New(sheetsIngest, directoryIngest, syncer, notifier, cfg.Interval(), log)
	return e.Run(ctx)
}

// openSnapshotStore picks the snapshot backend: Redis when REDIS_URL is
// set, the configured directory otherwise, discard when neither exists.
func openSnapshotStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		r := snapshot.NewRedis(opts)
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, noop, fmt.Errorf("redis not accessible: %w", err)
		}
		log.Info("snapshots enabled", "backend", "redis")
		return r, func() { r.Close() }, nil
	}

	if cfg.Snapshots != nil && cfg.Snapshots.Dir != "" {
		d, err := snapshot.NewDir(cfg.Snapshots.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		log.Info("snapshots enabled", "backend", "dir", "path", cfg.Snapshots.Dir)
		return d, noop, nil
	}

	log.Info("snapshots disabled")
	return snapshot.Discard{}, noop, nil
}
