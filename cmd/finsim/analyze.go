package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/analytics"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analytics report suite against the generated database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context())
	},
}

func runAnalyze(ctx context.Context) error {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	return analytics.NewRunner(st.DB(), os.Stdout).Run(ctx)
}
