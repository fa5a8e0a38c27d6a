// Package optimize finds the best visit order for a multi-city trip. It
// enumerates every permutation of the city list, prices each one leg by leg
// through an injected search function, and applies cheapest/fastest/discard
// ranking over the complete routes.
//
// The optimizer itself is a pure computation over the injected LegSearch;
// it performs no I/O and issues leg searches strictly sequentially, one per
// leg, because the provider layer behind LegSearch is rate limited and does
// not tolerate concurrent calls.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

// MaxCities caps the permutation sweep. Enumeration is factorial in the
// city count: 8 cities already mean 40320 permutations × 7 leg searches
// each. Beyond that the sweep is impractical, so Optimize fails fast
// instead of hanging.
const MaxCities = 8

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrInvalidCityList is returned for fewer than two cities.
	ErrInvalidCityList = errors.New("need at least 2 cities to optimize a route")

	// ErrTooManyCities is returned when the city count exceeds MaxCities.
	ErrTooManyCities = fmt.Errorf("too many cities: permutation count is factorial, maximum is %d", MaxCities)

	// ErrNoValidRoutes is returned when every permutation had at least one
	// leg with zero priced offers.
	ErrNoValidRoutes = errors.New("no valid routes found for any city order")
)

// LegSearch finds transportation offers for a single origin→destination leg
// on a given date. It is the seam to the provider-aggregation layer; the
// optimizer does not know whether it hits flights, trains, buses, or a mock.
type LegSearch func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error)

// PacedSearch wraps a LegSearch with a token-paced gate so that consecutive
// provider searches respect a minimum spacing. The pacing lives here, in an
// adapter, rather than inside the optimizer loop, so the optimizer stays a
// pure function over the injected search.
func PacedSearch(inner LegSearch, limiter *rate.Limiter) LegSearch {
	return func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return inner(ctx, origin, destination, date)
	}
}

// Discard reason fragments at the route-order level.
const (
	reasonPricierRoute  = "more expensive than cheapest route"
	reasonSlowerRoute   = "slower than fastest route"
	reasonFallbackRoute = "not the cheapest or fastest route order"
)

// Route evaluates every visit order for cities, starting on startDate.
//
// For each permutation, consecutive city pairs are searched with a
// monotonically advancing date: leg i departs startDate + i days. This is a
// deliberate one-day-per-leg simplification, not a connection-time model.
// Each leg is represented by its minimum-price offer; a leg with zero
// priced offers invalidates the whole permutation, which is silently
// omitted from ranking. Duration never influences per-leg selection — only
// price does — but leg durations are summed so complete routes rank on both
// axes.
func Route(ctx context.Context, cities []string, startDate time.Time, search LegSearch) (*model.RouteOptimizationResult, error) {
	if len(cities) < 2 {
		return nil, ErrInvalidCityList
	}
	if len(cities) > MaxCities {
		return nil, ErrTooManyCities
	}

	perms := permutations(cities)

	var routes []model.CompleteRoute
	failed := 0
	for _, order := range perms {
		route, ok, err := buildRoute(ctx, order, startDate, search)
		if err != nil {
			return nil, err
		}
		if !ok {
			failed++
			continue
		}
		routes = append(routes, route)
	}
	if len(routes) == 0 {
		return nil, ErrNoValidRoutes
	}

	cheapestIdx := 0
	fastestIdx := 0
	for i, r := range routes {
		if r.TotalPrice < routes[cheapestIdx].TotalPrice {
			cheapestIdx = i
		}
		if r.TotalDurationMinutes < routes[fastestIdx].TotalDurationMinutes {
			fastestIdx = i
		}
	}

	result := &model.RouteOptimizationResult{
		Stats: model.OptimizationStats{
			Cities:             cities,
			StartDate:          startDate,
			PermutationsTotal:  len(perms),
			RoutesAnalyzed:     len(routes),
			PermutationsFailed: failed,
		},
		Cheapest:  &routes[cheapestIdx],
		Fastest:   &routes[fastestIdx],
		SameRoute: cheapestIdx == fastestIdx,
	}

	for i, r := range routes {
		if i == cheapestIdx || i == fastestIdx {
			continue
		}
		result.Discarded = append(result.Discarded, model.DiscardedRoute{
			Route:   r,
			Reasons: routeReasons(r, routes[cheapestIdx], routes[fastestIdx]),
		})
	}
	return result, nil
}

// buildRoute walks one permutation leg by leg. ok is false when some leg had
// no priced offer; err is reserved for search failures (network, cancel).
func buildRoute(ctx context.Context, order []string, startDate time.Time, search LegSearch) (model.CompleteRoute, bool, error) {
	route := model.CompleteRoute{Cities: order}

	for i := 0; i < len(order)-1; i++ {
		date := startDate.AddDate(0, 0, i)

		offers, err := search(ctx, order[i], order[i+1], date)
		if err != nil {
			return model.CompleteRoute{}, false, fmt.Errorf("leg %s → %s: %w", order[i], order[i+1], err)
		}

		best, ok := cheapestOffer(offers)
		if !ok {
			return model.CompleteRoute{}, false, nil
		}

		route.Legs = append(route.Legs, model.RouteLeg{
			From:  order[i],
			To:    order[i+1],
			Date:  date,
			Offer: best,
		})
		route.TotalPrice += *best.Price
		route.TotalDurationMinutes += legMinutes(best)
	}
	return route, true, nil
}

// cheapestOffer returns the minimum-price offer among priced offers,
// first occurrence winning ties.
func cheapestOffer(offers []model.Offer) (model.Offer, bool) {
	best := -1
	for i, o := range offers {
		if o.Price == nil {
			continue
		}
		if best < 0 || *o.Price < *offers[best].Price {
			best = i
		}
	}
	if best < 0 {
		return model.Offer{}, false
	}
	return offers[best], true
}

// legMinutes returns the duration contribution of a chosen leg offer.
// An absent duration contributes nothing; an unparseable one poisons the
// route total with +Inf so the route can never win on the duration axis.
func legMinutes(o model.Offer) float64 {
	if o.Duration == "" {
		return 0
	}
	return util.ParseISODuration(o.Duration)
}

// routeReasons builds discard reasons for one complete route, mirroring the
// per-offer logic at the aggregate level. Route totals are always summed in
// the default currency.
func routeReasons(r, cheapest, fastest model.CompleteRoute) []string {
	var reasons []string

	if delta := r.TotalPrice - cheapest.TotalPrice; delta > 0 {
		reasons = append(reasons, fmt.Sprintf("%.2f %s %s", delta, model.DefaultCurrency, reasonPricierRoute))
	}

	if !math.IsInf(fastest.TotalDurationMinutes, 1) && !math.IsInf(r.TotalDurationMinutes, 1) {
		if delta := r.TotalDurationMinutes - fastest.TotalDurationMinutes; delta > 0 {
			reasons = append(reasons, fmt.Sprintf("%s %s", util.FormatMinutes(delta), reasonSlowerRoute))
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, reasonFallbackRoute)
	}
	return reasons
}

// permutations returns every ordering of cities in a deterministic sequence
// (lexicographic over input positions). The input slice is never modified.
func permutations(cities []string) [][]string {
	var out [][]string
	current := make([]string, 0, len(cities))
	used := make([]bool, len(cities))

	var walk func()
	walk = func() {
		if len(current) == len(cities) {
			perm := make([]string, len(current))
			copy(perm, current)
			out = append(out, perm)
			return
		}
		for i := range cities {
			if used[i] {
				continue
			}
			used[i] = true
			current = append(current, cities[i])
			walk()
			current = current[:len(current)-1]
			used[i] = false
		}
	}
	walk()
	return out
}
