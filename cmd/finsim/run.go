package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate, analyze, and visualize in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := runGenerate(ctx); err != nil {
			return err
		}
		if err := runAnalyze(ctx); err != nil {
			return err
		}
		return runVisualize(ctx)
	},
}
