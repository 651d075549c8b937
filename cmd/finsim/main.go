package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/config"
)

var (
	cfg *config.Config

	dbPath   string
	chartDir string
	seed     int64
)

var rootCmd = &cobra.Command{
	Use:   "finsim",
	Short: "Synthetic Islamic finance dataset generator and analyzer",
	Long: `Finsim builds a synthetic Islamic finance dataset (sukuk issuances,
investors, business loans, and payment histories) in SQLite, runs a
descriptive analytics suite over it, and renders summary charts as PNGs.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags override the environment.
	if cmd.Flags().Changed("db") {
		cfg.DBPath = dbPath
	}
	if cmd.Flags().Changed("charts") {
		cfg.ChartDir = chartDir
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}

	return initLogger(cfg)
}

func initLogger(cfg *config.Config) error {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	var zc zap.Config
	if cfg.Env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file path (default: $SIM_DB_PATH or islamic_finance.db)")
	rootCmd.PersistentFlags().StringVar(&chartDir, "charts", "", "Output directory for chart PNGs (default: $SIM_CHART_DIR or charts)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed; 0 keeps the configured seed")

	rootCmd.AddCommand(generateCmd, analyzeCmd, visualizeCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
