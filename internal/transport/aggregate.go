package transport

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/derickschaefer/tripwise/internal/model"
)

// SearchAll queries every configured provider for one origin→destination
// leg and merges the results into a single offer set sorted by price
// (unpriced offers last). Providers are queried strictly in sequence —
// flights, then trains, then buses — through the shared rate limiter.
//
// A provider that is unconfigured or fails contributes a warning, not an
// error: a leg search succeeds as long as at least one provider was asked,
// even if it found nothing.
func (c *Client) SearchAll(ctx context.Context, cache *CodeCache, origin, destination string, date time.Time) (*model.OfferSet, []string, error) {
	set := &model.OfferSet{
		Origin:      origin,
		Destination: destination,
		Date:        date,
	}
	var warnings []string

	if c.HasFlights() {
		flights, err := c.flightLeg(ctx, cache, origin, destination, date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("flights: %v", err))
		} else {
			set.Offers = append(set.Offers, flights...)
		}
	} else {
		warnings = append(warnings, "flights: no API key configured, skipping")
	}

	if c.HasTrains() {
		trains, err := c.SearchTrains(ctx, origin, destination, date)
		if err != nil {
			warnings = append(warnings, err.Error())
		} else {
			set.Offers = append(set.Offers, trains...)
		}
	} else {
		warnings = append(warnings, "trains: no API key configured, skipping")
	}

	if c.HasBuses() {
		buses, err := c.SearchBuses(ctx, origin, destination, date)
		if err != nil {
			warnings = append(warnings, err.Error())
		} else {
			set.Offers = append(set.Offers, buses...)
		}
	} else {
		warnings = append(warnings, "buses: no API key configured, skipping")
	}

	if !c.HasFlights() && !c.HasTrains() && !c.HasBuses() {
		return nil, warnings, fmt.Errorf("no providers configured: set at least one API key")
	}

	SortByPrice(set.Offers)
	return set, warnings, nil
}

// flightLeg resolves both city codes and searches flights. Every failure,
// including a failed code lookup, comes back as an error so the aggregator
// can degrade it to a single flights warning.
func (c *Client) flightLeg(ctx context.Context, cache *CodeCache, origin, destination string, date time.Time) ([]model.Offer, error) {
	originCode, err := c.CityCode(ctx, cache, origin)
	if err != nil {
		return nil, err
	}
	destCode, err := c.CityCode(ctx, cache, destination)
	if err != nil {
		return nil, err
	}
	if originCode == "" || destCode == "" {
		return nil, fmt.Errorf("no IATA code for %q or %q", origin, destination)
	}
	return c.SearchFlights(ctx, originCode, destCode, date)
}

// SortByPrice orders offers cheapest first, stably; offers without a price
// sort to the end.
func SortByPrice(offers []model.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return priceOrInf(offers[i]) < priceOrInf(offers[j])
	})
}

func priceOrInf(o model.Offer) float64 {
	if o.Price == nil {
		return math.Inf(1)
	}
	return *o.Price
}
