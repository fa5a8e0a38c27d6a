package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/render"
)

var itineraryCmd = &cobra.Command{
	Use:     "itinerary",
	Aliases: []string{"it"},
	Short:   "Save and recall trip plans in the local store",
	Long: `Persist analysis or optimization results under a name for later recall.

An itinerary is an opaque JSON payload — typically the output of
'tripwise optimize --format json' or 'tripwise analyze --format json' —
saved in the local store until explicitly deleted.`,
}

// ─── itinerary save ───────────────────────────────────────────────────────────

var itinerarySaveCmd = &cobra.Command{
	Use:   "save <NAME>",
	Short: "Save a JSON payload from stdin as a named itinerary",
	Example: `  tripwise optimize MAD BCN LIS --date 2026-09-14 --format json | tripwise itinerary save summer-trip
  tripwise itinerary save weekend < plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		payload, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		if len(payload) == 0 {
			return fmt.Errorf("nothing to save: pipe a JSON result into 'itinerary save'")
		}
		if !json.Valid(payload) {
			return fmt.Errorf("stdin is not valid JSON (did you forget --format json on the producing command?)")
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		it := model.Itinerary{Name: name, Payload: payload}
		if err := deps.Store.PutItinerary(it); err != nil {
			return fmt.Errorf("saving itinerary: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved itinerary %q (%d bytes)\n", name, len(payload))
		return nil
	},
}

// ─── itinerary load ───────────────────────────────────────────────────────────

var itineraryLoadCmd = &cobra.Command{
	Use:   "load <NAME>",
	Short: "Print a saved itinerary's payload",
	Example: `  tripwise itinerary load summer-trip
  tripwise itinerary load summer-trip | jq .data.cheapest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		it, found, err := deps.Store.GetItinerary(args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no itinerary named %q (see 'tripwise itinerary list')", args[0])
		}

		// The payload is already JSON; re-indent for readability.
		var buf any
		if err := json.Unmarshal(it.Payload, &buf); err != nil {
			return fmt.Errorf("stored payload is corrupt: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(buf)
	},
}

// ─── itinerary list ───────────────────────────────────────────────────────────

var itineraryListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all saved itineraries",
	Example: `  tripwise itinerary list`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		its, err := deps.Store.ListItineraries()
		if err != nil {
			return err
		}
		if len(its) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved itineraries. Save one with 'tripwise itinerary save <NAME>'.")
			return nil
		}

		format := resolveFormat(deps.Config.Format)
		result := &model.Result{
			Kind:        model.KindItinerary,
			GeneratedAt: time.Now(),
			Command:     "itinerary list",
			Data:        its,
			Stats:       model.ResultStats{Items: len(its)},
		}
		return render.RenderTo(globalFlags.Out, result, format)
	},
}

// ─── itinerary delete ─────────────────────────────────────────────────────────

var itineraryDeleteCmd = &cobra.Command{
	Use:     "delete <NAME>",
	Short:   "Delete a saved itinerary",
	Example: `  tripwise itinerary delete summer-trip`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		name := args[0]
		_, found, err := deps.Store.GetItinerary(name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no itinerary named %q", name)
		}
		if err := deps.Store.DeleteItinerary(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted itinerary %q\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(itineraryCmd)
	itineraryCmd.AddCommand(itinerarySaveCmd)
	itineraryCmd.AddCommand(itineraryLoadCmd)
	itineraryCmd.AddCommand(itineraryListCmd)
	itineraryCmd.AddCommand(itineraryDeleteCmd)
}
