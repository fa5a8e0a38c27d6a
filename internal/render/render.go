// Package render converts Result values into human-readable or
// machine-parseable output. Each format is a separate function; the
// top-level Render dispatcher selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/pipeline"
	"github.com/derickschaefer/tripwise/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatMD    = "md"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderCSV(w, result)
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL emits the pipe format: one offer per line for offer sets,
// one compact object for everything else.
func renderJSONL(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindOffers:
		set, ok := result.Data.(*model.OfferSet)
		if !ok {
			return renderJSON(w, result)
		}
		return pipeline.WriteOffers(w, set.Offers)
	default:
		return json.NewEncoder(w).Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindOffers:
		set, ok := result.Data.(*model.OfferSet)
		if !ok {
			return fmt.Errorf("unexpected data type for offers")
		}
		return renderOffersTable(w, set)
	case model.KindAnalysis:
		ar, ok := result.Data.(*model.AnalysisResult)
		if !ok {
			return fmt.Errorf("unexpected data type for analysis")
		}
		return renderAnalysisTable(w, ar)
	case model.KindOptimization:
		ro, ok := result.Data.(*model.RouteOptimizationResult)
		if !ok {
			return fmt.Errorf("unexpected data type for route_optimization")
		}
		return renderOptimizationTable(w, ro)
	case model.KindItinerary:
		if its, ok := result.Data.([]model.Itinerary); ok {
			return renderItineraryListTable(w, its)
		}
		// A single loaded itinerary is shown as its raw payload.
		return renderJSON(w, result)
	default:
		// Fallback: JSON
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderOffersTable(w io.Writer, set *model.OfferSet) error {
	fmt.Fprintf(w, "%s → %s on %s\n\n", set.Origin, set.Destination, util.FormatDate(set.Date))

	tw := newTable(w, []string{"MODE", "PROVIDER", "PRICE", "DURATION", "DEPARTS", "CHANGES"})
	for _, o := range set.Offers {
		tw.Append([]string{
			string(o.Mode),
			o.Provider,
			util.FormatPrice(o.Price, o.CurrencyOrDefault()),
			formatDuration(o.Duration),
			o.DepartureTime,
			formatChanges(o),
		})
	}
	tw.Render()
	return nil
}

func renderAnalysisTable(w io.Writer, ar *model.AnalysisResult) error {
	fmt.Fprintf(w, "Analyzed %d options (%d priced, %d with duration)\n\n",
		ar.Stats.TotalOptions, ar.Stats.WithPrice, ar.Stats.WithDuration)

	tw := newTable(w, []string{"PICK", "MODE", "PROVIDER", "PRICE", "DURATION"})
	tw.Append(offerRow("cheapest", ar.Cheapest))
	if ar.Fastest != nil {
		label := "fastest"
		if ar.SameOption {
			label = "fastest (same option)"
		}
		tw.Append(offerRow(label, ar.Fastest))
	}
	tw.Render()

	if len(ar.Discarded) > 0 {
		fmt.Fprintf(w, "\nDiscarded:\n")
		dt := newTable(w, []string{"MODE", "PROVIDER", "PRICE", "DURATION", "REASONS"})
		for _, d := range ar.Discarded {
			dt.Append([]string{
				string(d.Offer.Mode),
				d.Offer.Provider,
				util.FormatPrice(d.Offer.Price, d.Offer.CurrencyOrDefault()),
				formatDuration(d.Offer.Duration),
				strings.Join(d.Reasons, "; "),
			})
		}
		dt.Render()
	}
	return nil
}

func renderOptimizationTable(w io.Writer, ro *model.RouteOptimizationResult) error {
	fmt.Fprintf(w, "Evaluated %d visit orders for %d cities (%d valid, %d without offers)\n\n",
		ro.Stats.PermutationsTotal, len(ro.Stats.Cities), ro.Stats.RoutesAnalyzed, ro.Stats.PermutationsFailed)

	tw := newTable(w, []string{"PICK", "ORDER", "TOTAL PRICE", "TOTAL DURATION"})
	tw.Append(routeRow("cheapest", ro.Cheapest))
	label := "fastest"
	if ro.SameRoute {
		label = "fastest (same order)"
	}
	tw.Append(routeRow(label, ro.Fastest))
	tw.Render()

	if len(ro.Discarded) > 0 {
		fmt.Fprintf(w, "\nDiscarded orders:\n")
		dt := newTable(w, []string{"ORDER", "TOTAL PRICE", "TOTAL DURATION", "REASONS"})
		for _, d := range ro.Discarded {
			dt.Append([]string{
				strings.Join(d.Route.Cities, " → "),
				fmt.Sprintf("%.2f %s", d.Route.TotalPrice, model.DefaultCurrency),
				util.FormatMinutes(d.Route.TotalDurationMinutes),
				strings.Join(d.Reasons, "; "),
			})
		}
		dt.Render()
	}
	return nil
}

func renderItineraryListTable(w io.Writer, its []model.Itinerary) error {
	tw := newTable(w, []string{"NAME", "SAVED AT", "SIZE"})
	for _, it := range its {
		tw.Append([]string{
			it.Name,
			it.SavedAt.Format(time.RFC3339),
			fmt.Sprintf("%d bytes", len(it.Payload)),
		})
	}
	tw.Render()
	return nil
}

func offerRow(label string, o *model.Offer) []string {
	return []string{
		label,
		string(o.Mode),
		o.Provider,
		util.FormatPrice(o.Price, o.CurrencyOrDefault()),
		formatDuration(o.Duration),
	}
}

func routeRow(label string, r *model.CompleteRoute) []string {
	return []string{
		label,
		strings.Join(r.Cities, " → "),
		fmt.Sprintf("%.2f %s", r.TotalPrice, model.DefaultCurrency),
		util.FormatMinutes(r.TotalDurationMinutes),
	}
}

// ─── CSV ──────────────────────────────────────────────────────────────────────

func renderCSV(w io.Writer, result *model.Result) error {
	cw := csv.NewWriter(w)

	switch result.Kind {
	case model.KindOffers:
		set, ok := result.Data.(*model.OfferSet)
		if !ok {
			return fmt.Errorf("unexpected data type for offers")
		}
		_ = cw.Write([]string{"mode", "provider", "price", "currency", "duration", "departure_time", "origin", "destination"})
		for _, o := range set.Offers {
			_ = cw.Write(offerCSVRow(o))
		}
	case model.KindAnalysis:
		ar, ok := result.Data.(*model.AnalysisResult)
		if !ok {
			return fmt.Errorf("unexpected data type for analysis")
		}
		_ = cw.Write([]string{"pick", "mode", "provider", "price", "currency", "duration", "reasons"})
		_ = cw.Write(analysisCSVRow("cheapest", ar.Cheapest, nil))
		if ar.Fastest != nil {
			_ = cw.Write(analysisCSVRow("fastest", ar.Fastest, nil))
		}
		for _, d := range ar.Discarded {
			o := d.Offer
			_ = cw.Write(analysisCSVRow("discarded", &o, d.Reasons))
		}
	default:
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

func offerCSVRow(o model.Offer) []string {
	price := ""
	if o.Price != nil {
		price = fmt.Sprintf("%.2f", *o.Price)
	}
	return []string{
		string(o.Mode), o.Provider, price, o.CurrencyOrDefault(),
		o.Duration, o.DepartureTime, o.Origin, o.Destination,
	}
}

func analysisCSVRow(pick string, o *model.Offer, reasons []string) []string {
	price := ""
	if o.Price != nil {
		price = fmt.Sprintf("%.2f", *o.Price)
	}
	return []string{
		pick, string(o.Mode), o.Provider, price, o.CurrencyOrDefault(),
		o.Duration, strings.Join(reasons, "; "),
	}
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindOffers:
		set, ok := result.Data.(*model.OfferSet)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| MODE | PROVIDER | PRICE | DURATION | DEPARTS |\n|------|----------|-------|----------|--------|\n")
		for _, o := range set.Offers {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				o.Mode, mdEscape(o.Provider),
				util.FormatPrice(o.Price, o.CurrencyOrDefault()),
				formatDuration(o.Duration), o.DepartureTime)
		}
		return nil
	case model.KindAnalysis:
		ar, ok := result.Data.(*model.AnalysisResult)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| PICK | MODE | PROVIDER | PRICE | DURATION | REASONS |\n|------|------|----------|-------|----------|---------|\n")
		fmt.Fprintf(w, "| cheapest | %s | %s | %s | %s | |\n",
			ar.Cheapest.Mode, mdEscape(ar.Cheapest.Provider),
			util.FormatPrice(ar.Cheapest.Price, ar.Cheapest.CurrencyOrDefault()),
			formatDuration(ar.Cheapest.Duration))
		if ar.Fastest != nil {
			fmt.Fprintf(w, "| fastest | %s | %s | %s | %s | |\n",
				ar.Fastest.Mode, mdEscape(ar.Fastest.Provider),
				util.FormatPrice(ar.Fastest.Price, ar.Fastest.CurrencyOrDefault()),
				formatDuration(ar.Fastest.Duration))
		}
		for _, d := range ar.Discarded {
			fmt.Fprintf(w, "| discarded | %s | %s | %s | %s | %s |\n",
				d.Offer.Mode, mdEscape(d.Offer.Provider),
				util.FormatPrice(d.Offer.Price, d.Offer.CurrencyOrDefault()),
				formatDuration(d.Offer.Duration),
				mdEscape(strings.Join(d.Reasons, "; ")))
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatDuration renders an offer duration for display: parsed minutes as
// "2h 30m", absent as "—", unparseable as the raw string.
func formatDuration(iso string) string {
	if iso == "" {
		return "—"
	}
	minutes := util.ParseISODuration(iso)
	if math.IsInf(minutes, 1) {
		return iso
	}
	return util.FormatMinutes(minutes)
}

// formatChanges renders the stop/transfer count for whichever field the
// offer's mode family uses.
func formatChanges(o model.Offer) string {
	switch {
	case o.Stops != nil && *o.Stops == 0:
		return "direct"
	case o.Stops != nil && *o.Stops == 1:
		return "1 stop"
	case o.Stops != nil:
		return fmt.Sprintf("%d stops", *o.Stops)
	case o.Transfers != nil && *o.Transfers == 0:
		return "direct"
	case o.Transfers != nil && *o.Transfers == 1:
		return "1 transfer"
	case o.Transfers != nil:
		return fmt.Sprintf("%d transfers", *o.Transfers)
	default:
		return ""
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
