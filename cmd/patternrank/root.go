package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/patternrank/internal/config"
)

// flagKeys maps persistent flags onto config keys
var flagKeys = map[string]string{
	"corpus":     "corpus_path",
	"db":         "db_path",
	"collection": "collection",
	"provider":   "embedding.provider",
	"semantic":   "semantic.enabled",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "patternrank",
		Short: "Hybrid retrieval of UI component patterns",
		Long: `patternrank ranks a curated corpus of UI component patterns against
structured component requirements. Keyword (BM25) and embedding similarity
rankings are fused, and every result carries a confidence and a rationale.

Configuration is read from patternrank.yaml (working directory or
~/.config/patternrank), PATTERNRANK_* environment variables and flags.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./patternrank.yaml or ~/.config/patternrank/patternrank.yaml)")
	flags.String("corpus", "", "pattern corpus file (.json, .yaml or .toml)")
	flags.String("db", "", "vector index database path")
	flags.String("collection", "", "vector collection name")
	flags.String("provider", "", "embedding provider: jina, openai or local")
	flags.Bool("semantic", true, "enable semantic retrieval")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfig merges file, environment and the flags given on cmd
func loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}

	bind := func(keys map[string]string) error {
		for name, key := range keys {
			f := cmd.Flags().Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
		return nil
	}
	if err := bind(flagKeys); err != nil {
		return nil, err
	}
	if err := bind(extra); err != nil {
		return nil, err
	}

	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", used)
	}

	return config.FromViper(v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
