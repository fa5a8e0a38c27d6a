package optimize

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

func fp(v float64) *float64 { return &v }

var day0 = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

// fixedSearch returns the same offer for every leg and records each call.
func fixedSearch(price float64, duration string, calls *[]string) LegSearch {
	return func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		if calls != nil {
			*calls = append(*calls, fmt.Sprintf("%s-%s@%s", origin, destination, util.FormatDate(date)))
		}
		return []model.Offer{{
			Mode:        model.ModeBus,
			Provider:    "FlixBus",
			Price:       fp(price),
			Duration:    duration,
			Origin:      origin,
			Destination: destination,
		}}, nil
	}
}

func TestRouteEnumeratesAllOrders(t *testing.T) {
	res, err := Route(context.Background(), []string{"MAD", "BCN", "LIS"}, day0, fixedSearch(10, "PT1H", nil))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Stats.PermutationsTotal != 6 {
		t.Errorf("PermutationsTotal = %d, want 6", res.Stats.PermutationsTotal)
	}
	if res.Stats.RoutesAnalyzed != 6 {
		t.Errorf("RoutesAnalyzed = %d, want 6", res.Stats.RoutesAnalyzed)
	}
	if res.Stats.PermutationsFailed != 0 {
		t.Errorf("PermutationsFailed = %d, want 0", res.Stats.PermutationsFailed)
	}

	// With identical offers everywhere, every order costs the same; the
	// first enumerated order wins both axes.
	if !res.SameRoute {
		t.Error("SameRoute should be true for symmetric offers")
	}
	if res.Cheapest.TotalPrice != 20 {
		t.Errorf("TotalPrice = %v, want 20 (2 legs × 10)", res.Cheapest.TotalPrice)
	}
	if res.Cheapest.TotalDurationMinutes != 120 {
		t.Errorf("TotalDurationMinutes = %v, want 120", res.Cheapest.TotalDurationMinutes)
	}
	// 6 orders, one wins both axes, 5 discarded.
	if len(res.Discarded) != 5 {
		t.Errorf("discarded = %d, want 5", len(res.Discarded))
	}
	for _, d := range res.Discarded {
		if len(d.Reasons) != 1 || d.Reasons[0] != "not the cheapest or fastest route order" {
			t.Errorf("tied route reasons = %v", d.Reasons)
		}
	}
}

func TestRouteDatesAdvanceOneDayPerLeg(t *testing.T) {
	var calls []string
	_, err := Route(context.Background(), []string{"A", "B", "C"}, day0, fixedSearch(10, "PT1H", &calls))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	// First permutation is input order: A→B on day 0, B→C on day 1.
	if calls[0] != "A-B@2026-09-14" {
		t.Errorf("first leg = %s", calls[0])
	}
	if calls[1] != "B-C@2026-09-15" {
		t.Errorf("second leg = %s", calls[1])
	}
	// Strictly sequential: 6 permutations × 2 legs.
	if len(calls) != 12 {
		t.Errorf("call count = %d, want 12", len(calls))
	}
}

// A leg with no priced offers invalidates its permutation but not the run.
func TestRoutePermutationAccounting(t *testing.T) {
	// X only ever appears unpriced as a destination; as an origin it is fine.
	search := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		if destination == "X" {
			return nil, nil
		}
		return []model.Offer{{Mode: model.ModeBus, Provider: "FlixBus", Price: fp(10), Duration: "PT1H"}}, nil
	}

	res, err := Route(context.Background(), []string{"A", "B", "X"}, day0, search)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	// Valid orders are exactly those starting at X: X-A-B and X-B-A.
	if res.Stats.RoutesAnalyzed != 2 {
		t.Errorf("RoutesAnalyzed = %d, want 2", res.Stats.RoutesAnalyzed)
	}
	if res.Stats.PermutationsFailed != 4 {
		t.Errorf("PermutationsFailed = %d, want 4", res.Stats.PermutationsFailed)
	}
	if res.Cheapest.Cities[0] != "X" {
		t.Errorf("cheapest order = %v, must start at X", res.Cheapest.Cities)
	}
}

func TestRouteNoValidRoutes(t *testing.T) {
	unpriced := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		return []model.Offer{{Mode: model.ModeTrain, Provider: "SNCF", Duration: "PT2H"}}, nil
	}
	_, err := Route(context.Background(), []string{"A", "B"}, day0, unpriced)
	if !errors.Is(err, ErrNoValidRoutes) {
		t.Errorf("got %v, want ErrNoValidRoutes", err)
	}
}

func TestRouteCityCountLimits(t *testing.T) {
	if _, err := Route(context.Background(), []string{"A"}, day0, fixedSearch(1, "PT1H", nil)); !errors.Is(err, ErrInvalidCityList) {
		t.Errorf("one city: got %v, want ErrInvalidCityList", err)
	}
	if _, err := Route(context.Background(), nil, day0, fixedSearch(1, "PT1H", nil)); !errors.Is(err, ErrInvalidCityList) {
		t.Errorf("nil cities: got %v, want ErrInvalidCityList", err)
	}

	nine := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	if _, err := Route(context.Background(), nine, day0, fixedSearch(1, "PT1H", nil)); !errors.Is(err, ErrTooManyCities) {
		t.Errorf("nine cities: got %v, want ErrTooManyCities", err)
	}
}

func TestRouteSearchErrorAborts(t *testing.T) {
	boom := errors.New("provider down")
	search := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		return nil, boom
	}
	_, err := Route(context.Background(), []string{"A", "B"}, day0, search)
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped provider error", err)
	}
}

func TestRouteCheapestAndFastestDiverge(t *testing.T) {
	// A→B is cheap but slow; B→A is fast but expensive. Totals differ by
	// direction, so the two axes pick different orders.
	search := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		if origin == "A" {
			return []model.Offer{{Mode: model.ModeBus, Provider: "FlixBus", Price: fp(10), Duration: "PT10H", Origin: origin, Destination: destination}}, nil
		}
		return []model.Offer{{Mode: model.ModeFlight, Provider: "Amadeus", Price: fp(100), Duration: "PT1H", Origin: origin, Destination: destination}}, nil
	}

	res, err := Route(context.Background(), []string{"A", "B"}, day0, search)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.SameRoute {
		t.Fatal("axes should diverge")
	}
	if res.Cheapest.Cities[0] != "A" {
		t.Errorf("cheapest order = %v, want starting at A", res.Cheapest.Cities)
	}
	if res.Fastest.Cities[0] != "B" {
		t.Errorf("fastest order = %v, want starting at B", res.Fastest.Cities)
	}
	// Both orders are winners, nothing left to discard.
	if len(res.Discarded) != 0 {
		t.Errorf("discarded = %d, want 0", len(res.Discarded))
	}
}

func TestRouteDiscardReasonsCarryDeltas(t *testing.T) {
	// Three cities where one hub ("H") makes legs cheap and fast, so orders
	// routing through it early rank best and the rest carry real deltas.
	search := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		price, dur := 50.0, "PT5H"
		if origin == "H" || destination == "H" {
			price, dur = 10.0, "PT1H"
		}
		return []model.Offer{{Mode: model.ModeBus, Provider: "FlixBus", Price: fp(price), Duration: dur, Origin: origin, Destination: destination}}, nil
	}

	res, err := Route(context.Background(), []string{"A", "H", "B"}, day0, search)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	// A-H-B: both legs touch H → total 20 / 2h. A-B-H: 50+10=60 / 6h.
	if res.Cheapest.TotalPrice != 20 {
		t.Errorf("cheapest total = %v, want 20", res.Cheapest.TotalPrice)
	}
	found := false
	for _, d := range res.Discarded {
		for _, r := range d.Reasons {
			if r == "40.00 EUR more expensive than cheapest route" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected a 40.00 EUR delta reason, got %+v", res.Discarded)
	}
}

func TestPacedSearchDelegates(t *testing.T) {
	var calls int
	inner := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		calls++
		return []model.Offer{{Mode: model.ModeBus, Provider: "FlixBus", Price: fp(1)}}, nil
	}

	paced := PacedSearch(inner, rate.NewLimiter(rate.Inf, 1))
	offers, err := paced(context.Background(), "A", "B", day0)
	if err != nil {
		t.Fatalf("PacedSearch: %v", err)
	}
	if calls != 1 || len(offers) != 1 {
		t.Fatalf("calls = %d, offers = %d", calls, len(offers))
	}
}

func TestPacedSearchHonoursCancellation(t *testing.T) {
	inner := func(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
		t.Fatal("inner search must not run after cancellation")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Zero-rate limiter never grants a token; Wait must fail on the
	// cancelled context instead of blocking forever.
	paced := PacedSearch(inner, rate.NewLimiter(0, 1))
	if _, err := paced(ctx, "A", "B", day0); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPermutationsDeterministic(t *testing.T) {
	first := permutations([]string{"a", "b", "c"})
	second := permutations([]string{"a", "b", "c"})
	if len(first) != 6 {
		t.Fatalf("permutation count = %d, want 6", len(first))
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("permutation order not deterministic at %d", i)
			}
		}
	}
	if first[0][0] != "a" || first[0][1] != "b" || first[0][2] != "c" {
		t.Fatalf("first permutation = %v, want input order", first[0])
	}
}
