// Package model defines the canonical data types used throughout tripwise.
// These types are the single source of truth for transportation offers,
// analysis results, and the result envelope that every command returns.
package model

import (
	"encoding/json"
	"time"
)

// ─── Transport Modes ─────────────────────────────────────────────────────────

// Mode identifies the kind of transportation an offer covers.
// The set is open: providers may introduce new modes without a code change.
type Mode string

const (
	ModeFlight Mode = "flight"
	ModeTrain  Mode = "train"
	ModeBus    Mode = "bus"
)

// ─── Offer ───────────────────────────────────────────────────────────────────

// Offer is a single transportation option for one origin→destination leg.
// Offers are immutable once produced: the engine classifies them but never
// mutates a record.
//
// Price is a pointer so that "no price available" (common for rail journeys
// where fares require a separate booking call) is distinguishable from a
// zero fare. Offers without a price are unrankable by price; offers whose
// Duration does not parse are unrankable by duration. Neither condition is
// an error — the offer simply drops out of that comparison axis.
type Offer struct {
	Mode          Mode            `json:"mode"`
	Provider      string          `json:"provider"`
	Price         *float64        `json:"price,omitempty"`
	Currency      string          `json:"currency,omitempty"` // default EUR when empty
	Duration      string          `json:"duration,omitempty"` // ISO-8601 style, e.g. PT2H30M
	DepartureTime string          `json:"departure_time,omitempty"`
	ArrivalTime   string          `json:"arrival_time,omitempty"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	Stops         *int            `json:"stops,omitempty"`     // flights
	Transfers     *int            `json:"transfers,omitempty"` // trains, buses
	Carriers      []string        `json:"carriers,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"` // opaque provider payload, passed through
}

// DefaultCurrency is assumed when an offer carries no currency code.
const DefaultCurrency = "EUR"

// CurrencyOrDefault returns the offer's currency, falling back to EUR.
func (o Offer) CurrencyOrDefault() string {
	if o.Currency == "" {
		return DefaultCurrency
	}
	return o.Currency
}

// ─── Analysis Types ──────────────────────────────────────────────────────────

// DiscardedOffer pairs an offer with the reasons it was not selected.
type DiscardedOffer struct {
	Offer   Offer    `json:"option"`
	Reasons []string `json:"reasons"`
}

// AnalysisStats summarizes how many offers were comparable on each axis.
type AnalysisStats struct {
	TotalOptions int `json:"total_options_analyzed"`
	WithPrice    int `json:"options_with_price"`
	WithDuration int `json:"options_with_duration"`
}

// AnalysisResult is the output of single-route analysis: the one cheapest
// offer, the one fastest offer (absent when no duration parses), and every
// other offer with reasons for its discard. Cheapest and Fastest may point
// at the same offer; SameOption flags that case.
type AnalysisResult struct {
	Stats      AnalysisStats    `json:"analysis"`
	Cheapest   *Offer           `json:"cheapest"`
	Fastest    *Offer           `json:"fastest,omitempty"`
	SameOption bool             `json:"same_option"`
	Discarded  []DiscardedOffer `json:"discarded"`
}

// ─── Multi-City Route Types ──────────────────────────────────────────────────

// RouteLeg is one hop of a complete route: the chosen best offer for a
// consecutive city pair, searched on a specific date.
type RouteLeg struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Date  time.Time `json:"date"`
	Offer Offer     `json:"option"`
}

// CompleteRoute is one city-visit-order permutation evaluated end to end.
// TotalDurationMinutes may be +Inf when a chosen leg had an unparseable
// duration; such routes still rank by price.
type CompleteRoute struct {
	Cities               []string   `json:"route"`
	Legs                 []RouteLeg `json:"legs"`
	TotalPrice           float64    `json:"total_price"`
	TotalDurationMinutes float64    `json:"total_duration_minutes"`
}

// TotalDurationHours returns the route duration in hours.
func (r CompleteRoute) TotalDurationHours() float64 {
	return r.TotalDurationMinutes / 60
}

// DiscardedRoute pairs a complete route with its discard reasons.
type DiscardedRoute struct {
	Route   CompleteRoute `json:"route"`
	Reasons []string      `json:"reasons"`
}

// OptimizationStats summarizes a multi-city optimization sweep.
type OptimizationStats struct {
	Cities             []string  `json:"cities"`
	StartDate          time.Time `json:"starting_date"`
	PermutationsTotal  int       `json:"permutations_total"`
	RoutesAnalyzed     int       `json:"total_routes_analyzed"` // valid permutations
	PermutationsFailed int       `json:"permutations_failed"`
}

// RouteOptimizationResult mirrors AnalysisResult at the route-order level:
// the cheapest and fastest complete routes plus every discarded order.
type RouteOptimizationResult struct {
	Stats     OptimizationStats `json:"analysis"`
	Cheapest  *CompleteRoute    `json:"cheapest"`
	Fastest   *CompleteRoute    `json:"fastest"`
	SameRoute bool              `json:"same_route"`
	Discarded []DiscardedRoute  `json:"discarded"`
}

// ─── Offer Set ───────────────────────────────────────────────────────────────

// OfferSet bundles the offers found for a single leg search.
type OfferSet struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        time.Time `json:"date"`
	Offers      []Offer   `json:"options"`
}

// ─── Itinerary ───────────────────────────────────────────────────────────────

// Itinerary is a saved trip plan. Payload holds whatever structured result
// the user chose to save (an analysis, an optimization, or raw offers);
// tripwise stores it verbatim and never interprets it.
type Itinerary struct {
	Name    string          `json:"name"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindOffers       = "offers"
	KindAnalysis     = "analysis"
	KindOptimization = "route_optimization"
	KindItinerary    = "itinerary"
	KindTable        = "table"
)
