package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/generate"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic dataset and persist it to SQLite",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func runGenerate(ctx context.Context) error {
	log := zap.L()

	// Each run rebuilds the database from scratch.
	if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	log.Info("generating dataset",
		zap.Int64("seed", cfg.Sim.Seed),
		zap.String("as_of", cfg.Sim.CurrentDate.Format("2006-01-02")))

	ds, err := generate.New(cfg).Build()
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}

	if err := st.Persist(ctx, ds); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}

	for _, table := range store.TableNames() {
		n, err := st.CountRows(ctx, table)
		if err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		log.Info("table populated", zap.String("table", table), zap.Int("rows", n))
	}

	log.Info("dataset written", zap.String("path", cfg.DBPath))
	return nil
}
