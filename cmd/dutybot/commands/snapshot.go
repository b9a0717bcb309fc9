package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"dutybot/internal/config"
	"dutybot/internal/printer"
	"dutybot/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [name]",
	Short: "Inspect cache snapshots",
	Long: `Inspect the diagnostic snapshots written by the engine.

Without arguments, lists the available snapshot names. With a name
(timetables, users, slackUsers, channels, topics), prints that
snapshot's JSON to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", configPath, err)
	}

	ctx := context.Background()
	store, cleanup, err := openReadableStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) == 0 {
		names, err := store.Names(ctx)
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		if len(names) == 0 {
			printer.Println("No snapshots found.")
			return nil
		}
		for _, name := range names {
			printer.Println(name)
		}
		return nil
	}

	data, err := store.Load(ctx, args[0])
	if snapshot.IsNotFound(err) {
		return printer.Error(fmt.Sprintf("snapshot %q not found", args[0]), "", []string{
			"List available snapshots: dutybot snapshot",
		})
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	os.Stdout.Write(data)
	fmt.Println()
	return nil
}

// openReadableStore connects to the same backend the engine writes to.
// Unlike the engine, inspection has no useful discard fallback.
func openReadableStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func(), error) {
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
		return r, func() { r.Close() }, nil
	}

	if cfg.Snapshots != nil && cfg.Snapshots.Dir != "" {
		d, err := snapshot.NewDir(cfg.Snapshots.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		return d, noop, nil
	}

	return nil, noop, printer.Error("no snapshot backend configured",
		"Snapshots need REDIS_URL or a snapshots.dir setting in the config.", nil)
}
