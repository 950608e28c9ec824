package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/AlSimons/graph-ambient-weather/internal/config"
	"github.com/AlSimons/graph-ambient-weather/internal/store"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database contents and data range",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
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

	ctx := context.Background()

	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	oldest, newest, err := s.DataRange(ctx)
	if err != nil {
		return err
	}

	// Human-readable output.
	fmt.Printf("wxdb %s\n", Version)
	fmt.Printf("Database: %s (%s)\n", cfg.Storage.Driver, cfg.DSN())
	if cfg.Storage.Driver == "sqlite" {
		if info, err := os.Stat(cfg.DSN()); err == nil {
			fmt.Printf("  Size: %s\n", formatBytes(info.Size()))
		}
	}
	fmt.Printf("  Readings: %s\n", formatNumber(count))
	if oldest != "" {
		fmt.Printf("  Data range: %s to %s\n", oldest, newest)
	} else {
		fmt.Println("  Data range: empty")
	}

	return nil
}

// formatNumber formats an integer with comma separators (e.g., 1,247,832).
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
