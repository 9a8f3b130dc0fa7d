// valuemetrics derives valuation and quality metrics (multiples, growth
// rates, margins, leverage) from per-company financial statement history.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/valuemetrics/internal/config"
	"github.com/seenimoa/valuemetrics/internal/export"
	"github.com/seenimoa/valuemetrics/internal/logging"
	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/internal/pipeline"
	"github.com/seenimoa/valuemetrics/internal/scheduler"
	"github.com/seenimoa/valuemetrics/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "valuemetrics",
	Short: "valuemetrics — valuation and quality metrics from fundamentals",
	Long: `valuemetrics derives per-period valuation and quality metrics from
financial statements and prices: P/E and EV/EBIT (period and trailing twelve
months), outlier-filtered multi-year averages, revenue and earnings CAGR,
margins and leverage. Every run rebuilds the output from scratch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, _ := cmd.Flags().GetString("log-level")
		logger, err = logging.New(cfg.Logging, level)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	deriveCmd.Flags().StringSlice("company", nil, "only recompute these company ids (repeatable)")
	deriveCmd.Flags().Bool("dry-run", false, "print derived metrics instead of writing them")
	deriveCmd.Flags().String("format", "", "output format for --dry-run: table or json (default from config)")
	deriveCmd.Flags().String("input", "", "read period records from a JSON file instead of the configured store (implies --dry-run)")

	scheduleCmd.Flags().Bool("run-now", false, "run once immediately before waiting for the schedule")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statusCmd)
}

// openStore opens the configured store, or a memory store seeded from input.
func openStore(ctx context.Context, input string) (store.Store, error) {
	opts := cfg.StoreOptions()
	if input != "" {
		opts.Driver = store.DriverMemory
		opts.InputFile = input
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Driver, err)
	}
	return st, nil
}

func newPipeline(st store.Store, dryRun bool) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Engine.Workers),
		pipeline.WithLogger(logger),
	}
	if !dryRun {
		opts = append(opts, pipeline.WithSink(st))
	}
	return pipeline.New(st, metrics.NewEngine(cfg.EngineOptions()), opts...)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("valuemetrics %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Derive Command ---

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Recompute derived metrics",
	Long: `Recompute derived metrics for every company in the store, or only the
companies given with --company. A full run truncates the output table first;
a partial run replaces only the listed companies.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, _ := cmd.Flags().GetStringSlice("company")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Output.Format
		}
		if input != "" {
			dryRun = true
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, input)
		if err != nil {
			return err
		}
		defer st.Close()

		res, runErr := newPipeline(st, dryRun).Run(ctx, ids)
		if res == nil {
			return runErr
		}

		out := cmd.OutOrStdout()
		if dryRun {
			if err := export.Write(out, format, res.Output); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Derived %d records for %d companies in %s", res.Records, res.Companies, res.Duration.Round(time.Millisecond))
		if len(res.Failed) > 0 {
			fmt.Fprintf(out, " (%d failed: %v)", len(res.Failed), res.Failed)
		}
		fmt.Fprintln(out)
		if err := export.WriteStats(out, res.Stats); err != nil {
			return err
		}
		return runErr
	},
}

// --- Import Command ---

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load period records from a JSON file into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := store.ReadPeriodsFile(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.PutPeriods(ctx, records); err != nil {
			return err
		}
		companies := metrics.GroupByCompany(records)
		logger.Info("period records imported",
			zap.String("file", args[0]),
			zap.Int("records", len(records)),
			zap.Int("companies", len(companies)),
			zap.String("driver", cfg.Store.Driver),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d period records for %d companies\n", len(records), len(companies))
		return nil
	},
}

// --- Schedule Command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Recompute on the configured cron schedule until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runNow, _ := cmd.Flags().GetBool("run-now")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, "")
		if err != nil {
			return err
		}
		defer st.Close()

		p := newPipeline(st, false)
		sched := scheduler.New(func(ctx context.Context) (*pipeline.Result, error) {
			return p.Run(ctx, nil)
		}, logger)

		if err := sched.Start(ctx, cfg.Schedule.Cron); err != nil {
			return err
		}
		if runNow {
			sched.RunNow()
		}
		logger.Info("waiting for next run", zap.Time("next", sched.Next()))

		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  valuemetrics — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Engine:")
		fmt.Printf("    Workers:           %d\n", cfg.Engine.Workers)
		fmt.Printf("    TTM window:        %d months\n", cfg.Engine.TTMWindowMonths)
		fmt.Printf("    Fixed margin span: %d-%d\n", cfg.Engine.FixedMarginFrom, cfg.Engine.FixedMarginTo)
		fmt.Printf("    P/E windows:       %v years\n", metrics.MultipleWindows)
		fmt.Println()

		fmt.Println("  Store:")
		fmt.Printf("    Driver:        %s\n", cfg.Store.Driver)
		switch cfg.Store.Driver {
		case store.DriverPostgres:
			fmt.Printf("    Tables:        %s -> %s\n", cfg.Store.SourceTable, cfg.Store.TargetTable)
		case store.DriverBadger:
			fmt.Printf("    Path:          %s\n", cfg.Store.BadgerPath)
		}
		fmt.Printf("    Schedule:      %s\n", cfg.Schedule.Cron)
		fmt.Println()

		fmt.Println("  Credentials:")
		for _, c := range config.CheckCredentials(cfg) {
			status := "not set"
			if c.IsSet {
				status = fmt.Sprintf("set (%s: %s)", c.Source, c.Masked)
			}
			fmt.Printf("    %-15s %s\n", c.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
