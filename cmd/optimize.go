package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/derickschaefer/tripwise/internal/app"
	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/optimize"
	"github.com/derickschaefer/tripwise/internal/render"
	"github.com/derickschaefer/tripwise/internal/store"
)

var optimizeDate string

var optimizeCmd = &cobra.Command{
	Use:   "optimize <CITY> <CITY> [CITY...]",
	Short: "Find the cheapest and fastest visiting order for a multi-city trip",
	Long: `Evaluate every visiting order for a list of cities and recommend the
cheapest and the fastest complete route.

Legs advance one day per city: the first leg departs on --date, the second
the day after, and so on. Each leg is priced with its cheapest available
offer across all configured providers. An order where some leg has no
priced offer at all is dropped from the ranking.

Enumeration is factorial in the city count, so the sweep is capped (8
cities = 40320 orders). Leg searches run strictly sequentially and are
rate-limited; identical legs shared between orders are searched only once.`,
	Example: `  tripwise optimize MAD BCN LIS --date 2026-09-14
  tripwise optimize Madrid Barcelona Lisbon Porto --date 2026-09-14 --format json
  tripwise optimize MAD BCN LIS --date 2026-09-14 --verbose`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.Config.Validate(); err != nil {
			return err
		}
		defer deps.Close()

		date, err := parseDateFlag(optimizeDate)
		if err != nil {
			return err
		}

		cities := normaliseCities(args)
		limit := cityLimit(deps.Config.MaxCities)
		if len(cities) > limit {
			return fmt.Errorf("%d cities exceeds the limit of %d (max_cities in config.json, capped at %d)",
				len(cities), limit, optimize.MaxCities)
		}

		start := time.Now()
		var warnings []string
		search := legSearcher(deps, &warnings)

		ro, err := optimize.Route(cmd.Context(), cities, date, search)
		if err != nil {
			return err
		}

		format := resolveFormat(deps.Config.Format)
		result := buildOptimizationResult(
			fmt.Sprintf("optimize %d cities", len(cities)), ro, dedupe(warnings), start)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
		return nil
	},
}

// legSearcher builds the LegSearch the optimizer runs against. From inside
// out: live provider aggregation (store-backed), a pacing gate, and a memo
// so legs shared between visit orders are searched only once per run. The
// memo sits outside the pacer so repeats don't burn limiter tokens.
func legSearcher(deps *app.Deps, warnings *[]string) optimize.LegSearch {
	live := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		key := store.OfferKey(origin, destination, date)

		if !deps.Config.NoCache && !deps.Config.Refresh {
			if err := deps.RequireStore(); err == nil {
				if set, found, err := deps.Store.GetOffers(key); err == nil && found {
					return set.Offers, nil
				}
			}
		}

		set, warns, err := deps.Client.SearchAll(ctx, deps.Codes, origin, destination, date)
		if err != nil {
			return nil, err
		}
		*warnings = append(*warnings, warns...)

		if err := deps.RequireStore(); err == nil {
			if err := deps.Store.PutOffers(key, *set); err != nil {
				*warnings = append(*warnings, fmt.Sprintf("cache write failed: %v", err))
			}
		}
		return set.Offers, nil
	}

	paced := optimize.PacedSearch(live, rate.NewLimiter(rate.Limit(deps.Config.Rate), 1))

	memo := make(map[string][]model.Offer)
	return func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		key := store.OfferKey(origin, destination, date)
		if offers, ok := memo[key]; ok {
			return offers, nil
		}
		offers, err := paced(ctx, origin, destination, date)
		if err != nil {
			return nil, err
		}
		memo[key] = offers
		return offers, nil
	}
}

// cityLimit returns the effective city cap: max_cities from config, bounded
// by the sweep's hard cap so a generous config value can't promise a city
// count the enumeration will refuse.
func cityLimit(configured int) int {
	if configured <= 0 || configured > optimize.MaxCities {
		return optimize.MaxCities
	}
	return configured
}

// dedupe removes duplicate warnings while preserving first-seen order.
func dedupe(warnings []string) []string {
	seen := make(map[string]bool, len(warnings))
	var out []string
	for _, w := range warnings {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().StringVar(&optimizeDate, "date", "", "start date YYYY-MM-DD for the first leg (default: tomorrow)")
}
