package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AlSimons/graph-ambient-weather/internal/config"
	"github.com/AlSimons/graph-ambient-weather/internal/query"
	"github.com/AlSimons/graph-ambient-weather/internal/render"
	"github.com/AlSimons/graph-ambient-weather/internal/store"
	"github.com/spf13/cobra"
)

var (
	plotDataType  string
	plotStartDate string
	plotEndDate   string
	plotPoints    int
	plotMin       bool
	plotMax       bool
	plotAvg       bool
	plotOutput    string
	plotFormat    string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Query readings for charting",
	Long: `plot runs a range query against the loaded readings and writes the
resulting series for the charting layer. Without an aggregation flag the rows
are stride-sampled down to about --num-points evenly spaced readings; with
--min, --max, or --avg a single column is summarized per calendar day.`,
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVarP(&plotDataType, "data-type", "d", "otemp",
		"data to plot: one or two short names, comma separated")
	plotCmd.Flags().StringVarP(&plotStartDate, "start-date", "s", "",
		"date of earliest desired data (YYYY-MM-DD, default: earliest available)")
	plotCmd.Flags().StringVarP(&plotEndDate, "end-date", "e", "",
		"date of last desired data (YYYY-MM-DD, default: latest available)")
	plotCmd.Flags().IntVarP(&plotPoints, "num-points", "n", 0,
		"number of points to plot (default: query.default_points)")
	plotCmd.Flags().BoolVar(&plotMin, "min", false, "summarize by daily minimum value")
	plotCmd.Flags().BoolVar(&plotMax, "max", false, "summarize by daily maximum value")
	plotCmd.Flags().BoolVar(&plotAvg, "avg", false, "summarize by daily average value")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "output file (default: stdout)")
	plotCmd.Flags().StringVar(&plotFormat, "format", "table", "output format (table or csv)")
	rootCmd.AddCommand(plotCmd)
}

// plotRange converts the inclusive date-only bounds to a canonical
// timestamp range. The end date expands to the last minute of its day.
func plotRange() (store.Range, error) {
	var rng store.Range
	if plotStartDate != "" {
		if _, err := time.Parse(store.DayLayout, plotStartDate); err != nil {
			return rng, fmt.Errorf("invalid --start-date %q: want YYYY-MM-DD", plotStartDate)
		}
		rng.Start = plotStartDate + " 00:00:00"
	}
	if plotEndDate != "" {
		if _, err := time.Parse(store.DayLayout, plotEndDate); err != nil {
			return rng, fmt.Errorf("invalid --end-date %q: want YYYY-MM-DD", plotEndDate)
		}
		rng.End = plotEndDate + " 23:59:59"
	}
	return rng, nil
}

// plotMode returns the selected aggregation and its title prefix.
func plotMode() (store.AggMode, string, bool, error) {
	set := 0
	for _, b := range []bool{plotMin, plotMax, plotAvg} {
		if b {
			set++
		}
	}
	if set > 1 {
		return 0, "", false, fmt.Errorf("--min, --max, and --avg are mutually exclusive")
	}
	switch {
	case plotMin:
		return store.AggMin, "Min", true, nil
	case plotMax:
		return store.AggMax, "Max", true, nil
	case plotAvg:
		return store.AggAvg, "Avg", true, nil
	default:
		return 0, "", false, nil
	}
}

func runPlot(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Validate all caller input before any store access.
	shortNames := strings.Split(plotDataType, ",")
	if len(shortNames) > 2 {
		return fmt.Errorf("only two data types may be specified")
	}
	colNames := make([]string, 0, len(shortNames))
	titles := make([]string, 0, len(shortNames))
	for _, short := range shortNames {
		col, err := store.LookupColumn(strings.TrimSpace(short))
		if err != nil {
			return err
		}
		colNames = append(colNames, col.Name)
		titles = append(titles, col.Title)
	}

	rng, err := plotRange()
	if err != nil {
		return err
	}

	mode, prefix, aggregate, err := plotMode()
	if err != nil {
		return err
	}

	points := plotPoints
	if points == 0 {
		points = cfg.Query.DefaultPoints
	}
	if points < 1 {
		return fmt.Errorf("--num-points must be >= 1, got %d", points)
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
	planner := query.NewPlanner(s)

	var series []render.Series
	if aggregate {
		days, err := planner.Aggregate(ctx, rng, colNames, mode)
		if err != nil {
			return err
		}
		series = render.FromDayValues(days, prefix+" "+titles[0])
	} else {
		rows, err := planner.Sample(ctx, rng, colNames, points)
		if err != nil {
			return err
		}
		series = render.FromRows(rows, titles)
	}

	var out io.Writer = os.Stdout
	if plotOutput != "" {
		f, err := os.Create(plotOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	var renderer render.Renderer
	switch plotFormat {
	case "csv":
		renderer = &render.CSVRenderer{W: out}
	case "table":
		renderer = &render.TableRenderer{W: out}
	default:
		return fmt.Errorf("unknown format %q: want table or csv", plotFormat)
	}

	return renderer.Render(series)
}
