package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patternrank/internal/app"
	"github.com/dshills/patternrank/internal/searcher"
	"github.com/dshills/patternrank/pkg/types"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [component-type]",
		Short: "Rank patterns against requirements and print the result as JSON",
		Long: `Rank patterns against requirements.

Requirements come from --requirements (inline JSON), --file (a JSON file,
"-" for stdin), or a component type argument combined with --props,
--variants, --a11y and --states.`,
		Example: `  patternrank search Button --props variant,size --variants primary
  patternrank search --requirements '{"component_type":"Card","props":{"padding":"string"}}'
  echo '{"component_type":"Input"}' | patternrank search --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requirementsFromFlags(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, map[string]string{
				"mode":   "mode",
				"policy": "policy",
			})
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			limit, _ := cmd.Flags().GetInt("limit")
			resp, err := a.Searcher.Search(cmd.Context(), searcher.SearchRequest{
				Requirements: req,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().String("requirements", "", "requirements as inline JSON")
	cmd.Flags().StringP("file", "f", "", "read requirements JSON from file (- for stdin)")
	cmd.Flags().StringSlice("props", nil, "wanted prop names")
	cmd.Flags().StringSlice("variants", nil, "wanted variant names")
	cmd.Flags().StringSlice("a11y", nil, "wanted accessibility features")
	cmd.Flags().StringSlice("states", nil, "wanted interaction states")
	cmd.Flags().IntP("limit", "n", 0, "maximum results (default: top_k)")
	cmd.Flags().String("mode", "", "hybrid, lexical or semantic")
	cmd.Flags().String("policy", "", "degrade or require_hybrid")

	return cmd
}

func requirementsFromFlags(cmd *cobra.Command, args []string) (types.Requirements, error) {
	inline, _ := cmd.Flags().GetString("requirements")
	file, _ := cmd.Flags().GetString("file")

	var data []byte
	switch {
	case inline != "" && file != "":
		return types.Requirements{}, errors.New("use either --requirements or --file, not both")
	case inline != "":
		data = []byte(inline)
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return types.Requirements{}, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return types.Requirements{}, fmt.Errorf("read requirements: %w", err)
		}
		data = b
	}

	var req types.Requirements
	if data != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			return types.Requirements{}, fmt.Errorf("parse requirements: %w", err)
		}
	}

	if len(args) == 1 {
		req.ComponentType = args[0]
	}
	if props, _ := cmd.Flags().GetStringSlice("props"); len(props) > 0 {
		for _, name := range props {
			req.Props = append(req.Props, types.Prop{Name: name})
		}
	}
	if variants, _ := cmd.Flags().GetStringSlice("variants"); len(variants) > 0 {
		req.Variants = append(req.Variants, variants...)
	}
	if a11y, _ := cmd.Flags().GetStringSlice("a11y"); len(a11y) > 0 {
		req.A11y = append(req.A11y, a11y...)
	}
	if states, _ := cmd.Flags().GetStringSlice("states"); len(states) > 0 {
		req.States = append(req.States, states...)
	}

	if req.IsEmpty() {
		return types.Requirements{}, errors.New("no requirements given")
	}
	return req, nil
}
