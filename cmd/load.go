package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlSimons/graph-ambient-weather/internal/backup"
	"github.com/AlSimons/graph-ambient-weather/internal/config"
	"github.com/AlSimons/graph-ambient-weather/internal/ingest"
	"github.com/AlSimons/graph-ambient-weather/internal/store"
	"github.com/spf13/cobra"
)

var loadFile string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Rebuild the database from the newest WS-2000 backup",
	Long: `load discovers the newest backup CSV (lexical-max filename, since the
embedded dates sort lexically), drops the previous snapshot, and inserts every
row in a single transaction. A bad row aborts the whole load and leaves the
previous snapshot in place.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFile, "file", "", "backup file to load (default: newest in backup.dir)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	path := loadFile
	if path == "" {
		path, err = backup.Discover(cfg.Backup.Dir, cfg.Backup.Pattern)
		if err != nil {
			return err
		}
	}

	var s store.Store
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err = store.NewSQLiteStore(cfg.DSN())
	case "postgres":
		s, err = store.NewPostgresStore(cfg.DSN())
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	src, err := backup.Open(path)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck

	// Support context cancellation via signals.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("loading backup", "file", path, "driver", cfg.Storage.Driver)

	start := time.Now()
	count, err := ingest.NewLoader(s, slog.Default()).Load(ctx, src)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	slog.Info("backup loaded",
		"file", path,
		"rows", count,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}
