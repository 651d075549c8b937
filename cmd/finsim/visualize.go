package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/store"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/viz"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render the chart suite as PNG files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVisualize(cmd.Context())
	},
}

func runVisualize(ctx context.Context) error {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.ChartDir, 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}

	if err := viz.New(st.DB(), cfg.ChartDir).RenderAll(ctx); err != nil {
		return err
	}
	zap.L().Info("charts written", zap.String("dir", cfg.ChartDir))
	return nil
}
