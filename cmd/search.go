package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/tripwise/internal/pipeline"
	"github.com/derickschaefer/tripwise/internal/render"
	"github.com/derickschaefer/tripwise/internal/store"
	"github.com/derickschaefer/tripwise/internal/transport"
)

var (
	searchDate    string
	searchNoStore bool
)

var searchCmd = &cobra.Command{
	Use:   "search <ORIGIN> <DESTINATION>",
	Short: "Search flights, trains, and buses for one leg",
	Long: `Search all configured providers for transport options between two places
on a given date and print the offers sorted by price.

Origin and destination accept either city names (resolved to location codes
via the flights provider) or 3-letter codes used directly.

Results are cached in the local store keyed by origin, destination, and date.
A repeated search for the same leg reads from the cache; use --refresh to
force a re-fetch or --no-cache to bypass cache reads entirely.`,
	Example: `  tripwise search MAD BCN --date 2026-09-14
  tripwise search Madrid Barcelona --date 2026-09-14
  tripwise search MAD LIS --date 2026-09-14 --format jsonl | tripwise analyze
  tripwise search MAD BCN --date 2026-09-14 --refresh --verbose`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.Config.Validate(); err != nil {
			return err
		}
		defer deps.Close()

		date, err := parseDateFlag(searchDate)
		if err != nil {
			return err
		}

		origin, destination := args[0], args[1]
		start := time.Now()
		format := resolveFormat(deps.Config.Format)
		key := store.OfferKey(origin, destination, date)

		// Cache read path
		if !searchNoStore && !deps.Config.NoCache && !deps.Config.Refresh {
			if err := deps.RequireStore(); err == nil {
				if set, found, err := deps.Store.GetOffers(key); err == nil && found {
					result := buildOffersResult(
						fmt.Sprintf("search %s %s", origin, destination),
						&set, nil, start, true)
					if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
						return err
					}
					render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
					warnIfPipedTable(cmd, format)
					return nil
				}
			}
		}

		// Live search across all configured providers
		set, warnings, err := deps.Client.SearchAll(cmd.Context(), deps.Codes, origin, destination, date)
		if err != nil {
			return err
		}
		transport.SortByPrice(set.Offers)

		// Cache write path: even --no-cache searches write, so a later
		// cached read can pick the result up.
		if !searchNoStore {
			if err := deps.RequireStore(); err == nil {
				if err := deps.Store.PutOffers(key, *set); err != nil {
					warnings = append(warnings, fmt.Sprintf("cache write failed: %v", err))
				}
			}
		}

		result := buildOffersResult(
			fmt.Sprintf("search %s %s", origin, destination),
			set, warnings, start, false)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
		warnIfPipedTable(cmd, format)
		return nil
	},
}

// warnIfPipedTable nudges users who pipe table output into another command;
// downstream consumers need --format jsonl.
func warnIfPipedTable(cmd *cobra.Command, format string) {
	if format == render.FormatTable && globalFlags.Out == "" && !globalFlags.Quiet && !pipeline.IsTTY() {
		fmt.Fprintln(cmd.ErrOrStderr(), "hint: stdout is a pipe; use --format jsonl if the next command expects offers")
	}
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchDate, "date", "", "departure date YYYY-MM-DD (default: tomorrow)")
	searchCmd.Flags().BoolVar(&searchNoStore, "no-store", false, "skip the local store entirely (no reads, no writes)")
}
