// Package cmd implements the tripwise CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/tripwise/internal/app"
	"github.com/derickschaefer/tripwise/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	FlightsKey string
	TrainsKey  string
	BusesKey   string
	Format     string
	Out        string
	NoCache    bool
	Refresh    bool
	Timeout    string
	Rate       float64
	MaxResults int
	Quiet      bool
	Verbose    bool
	Debug      bool
}

// rootCmd is the base command. Running `tripwise` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "tripwise",
	Short: "tripwise — multi-modal travel search and route planning CLI",
	Long: `tripwise searches flights, trains, and buses for a journey, recommends
the cheapest and fastest option, and finds the best visiting order for
multi-city trips.

Providers (set at least one key):
  Flights:  Amadeus Self-Service APIs   (AMADEUS_API_KEY)
  Trains:   SNCF open API               (SNCF_API_KEY)
  Buses:    FlixBus via RapidAPI        (RAPIDAPI_KEY)

Quick start:
  tripwise config init                       # create a config.json template
  tripwise search MAD BCN --date 2026-09-14  # compare all modes for one leg
  tripwise optimize MAD BCN LIS --date 2026-09-14
  tripwise search MAD BCN --date 2026-09-14 --format jsonl | tripwise analyze`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(config.Keys{
		Flights: globalFlags.FlightsKey,
		Trains:  globalFlags.TrainsKey,
		Buses:   globalFlags.BusesKey,
	})
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.NoCache = globalFlags.NoCache
	cfg.Refresh = globalFlags.Refresh
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		if d, err2 := time.ParseDuration(globalFlags.Timeout); err2 == nil {
			cfg.Timeout = d
		}
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.MaxResults > 0 {
		cfg.MaxResults = globalFlags.MaxResults
	}

	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.FlightsKey, "flights-key", "",
		"Amadeus API key (overrides env AMADEUS_API_KEY and config.json)")
	pf.StringVar(&globalFlags.TrainsKey, "trains-key", "",
		"SNCF API key (overrides env SNCF_API_KEY and config.json)")
	pf.StringVar(&globalFlags.BusesKey, "buses-key", "",
		"RapidAPI key for FlixBus (overrides env RAPIDAPI_KEY and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.NoCache, "no-cache", false,
		"bypass cache reads (still writes results to cache)")
	pf.BoolVar(&globalFlags.Refresh, "refresh", false,
		"force re-fetch and overwrite cached entries")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max provider searches per second (default: 2.0)")
	pf.IntVar(&globalFlags.MaxResults, "max-results", 0,
		"max offers requested per provider (default: 3)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show cache/timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses (API keys redacted)")
}
