package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/tripwise/internal/analyze"
	"github.com/derickschaefer/tripwise/internal/pipeline"
	"github.com/derickschaefer/tripwise/internal/render"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recommend the cheapest and fastest offer from a JSONL stream",
	Long: `Read transport offers as JSONL from stdin, pick the single cheapest and
single fastest option, and explain why every other offer was discarded.

The stream is what 'tripwise search --format jsonl' emits: one offer per
line. Offers without a price still compete on speed; offers without a
duration still compete on price. Analysis needs no provider keys and makes
no network calls.`,
	Example: `  tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze
  tripwise analyze < offers.jsonl
  tripwise analyze --format json < offers.jsonl | jq .data.cheapest`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}

		if pipeline.StdinIsTTY() {
			return fmt.Errorf("no input on stdin: pipe offers in, e.g.\n  tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze")
		}

		start := time.Now()
		offers, err := pipeline.ReadOffers(cmd.InOrStdin())
		if err != nil {
			return err
		}

		ar, err := analyze.Offers(offers)
		if err != nil {
			return err
		}

		format := resolveFormat(deps.Config.Format)
		result := buildAnalysisResult("analyze", ar, start)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
