package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/patternrank/internal/app"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the pattern corpus into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			recreate, _ := cmd.Flags().GetBool("recreate")
			batchSize, _ := cmd.Flags().GetInt("batch-size")

			stats, err := a.Index(cmd.Context(), recreate, batchSize)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().Bool("recreate", false, "drop the collection before indexing")
	cmd.Flags().Int("batch-size", 0, "patterns per embedding request (default 20)")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus and vector index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return writeJSON(cmd.OutOrStdout(), a.Status(cmd.Context()))
		},
	}
}
