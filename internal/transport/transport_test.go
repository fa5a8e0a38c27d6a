package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/tripwise/internal/model"
)

var testDate = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

// newTestClient points every provider at the same httptest server.
func newTestClient(srv *httptest.Server, opts Options) *Client {
	base := srv.URL + "/"
	if opts.FlightsBaseURL == "" {
		opts.FlightsBaseURL = base
	}
	if opts.TrainsBaseURL == "" {
		opts.TrainsBaseURL = base
	}
	if opts.BusesBaseURL == "" {
		opts.BusesBaseURL = base
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 1000 // keep tests fast
	}
	return NewClient(opts)
}

func TestSearchFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shopping/flight-offers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer flights-key" {
			t.Errorf("auth header = %q", got)
		}
		q := r.URL.Query()
		if q.Get("originLocationCode") != "MAD" || q.Get("departureDate") != "2026-09-14" {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"itineraries": []map[string]any{{
						"duration": "PT3H15M",
						"segments": []map[string]any{
							{
								"carrierCode": "IB", "number": "3170",
								"departure": map[string]any{"iataCode": "MAD", "at": "2026-09-14T08:00:00"},
								"arrival":   map[string]any{"iataCode": "LIS", "at": "2026-09-14T09:20:00"},
							},
							{
								"carrierCode": "TP", "number": "441",
								"departure": map[string]any{"iataCode": "LIS", "at": "2026-09-14T10:05:00"},
								"arrival":   map[string]any{"iataCode": "BCN", "at": "2026-09-14T11:15:00"},
							},
						},
					}},
					"price": map[string]any{"total": "95.00", "currency": "EUR"},
				},
				{
					// Unparseable price: skipped.
					"itineraries": []map[string]any{{
						"duration": "PT1H25M",
						"segments": []map[string]any{{
							"carrierCode": "VY", "number": "1001",
							"departure": map[string]any{"iataCode": "MAD", "at": "2026-09-14T09:00:00"},
							"arrival":   map[string]any{"iataCode": "BCN", "at": "2026-09-14T10:25:00"},
						}},
					}},
					"price": map[string]any{"total": "n/a", "currency": "EUR"},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{FlightsAPIKey: "flights-key"})
	offers, err := c.SearchFlights(context.Background(), "MAD", "BCN", testDate)
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1 (bad-price offer skipped)", len(offers))
	}

	o := offers[0]
	if o.Mode != model.ModeFlight || o.Provider != "Amadeus" {
		t.Errorf("identity = %s/%s", o.Mode, o.Provider)
	}
	if o.Price == nil || *o.Price != 95 {
		t.Errorf("price = %v", o.Price)
	}
	if o.Duration != "PT3H15M" {
		t.Errorf("duration = %q", o.Duration)
	}
	if o.Stops == nil || *o.Stops != 1 {
		t.Errorf("stops = %v, want 1 for two segments", o.Stops)
	}
	if len(o.Carriers) != 2 || o.Carriers[0] != "IB" || o.Carriers[1] != "TP" {
		t.Errorf("carriers = %v, want sorted [IB TP]", o.Carriers)
	}
	if o.Origin != "MAD" || o.Destination != "BCN" {
		t.Errorf("route = %s → %s", o.Origin, o.Destination)
	}
}

func TestSearchTrainsUnpricedJourneys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/journeys" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "trains-key" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"journeys": []map[string]any{
				{
					"duration":            10680, // 2h58m
					"departure_date_time": "20260914T080000",
					"arrival_date_time":   "20260914T105800",
					"sections": []map[string]any{
						{"type": "public_transport", "mode": "rail"},
						{"type": "transfer"},
						{"type": "public_transport", "mode": "rail"},
					},
				},
				{
					"duration":            9000, // 2h30m
					"departure_date_time": "20260914T091500",
					"arrival_date_time":   "20260914T114500",
					"sections":            []map[string]any{{"type": "public_transport", "mode": "rail"}},
					"fare":                map[string]any{"total": map[string]any{"value": "62.50", "currency": "EUR"}},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{TrainsAPIKey: "trains-key"})
	offers, err := c.SearchTrains(context.Background(), "Madrid", "Barcelona", testDate)
	if err != nil {
		t.Fatalf("SearchTrains: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d", len(offers))
	}

	if offers[0].Duration != "PT2H58M" {
		t.Errorf("duration = %q, want PT2H58M from 10680s", offers[0].Duration)
	}
	if offers[0].Price != nil {
		t.Errorf("fare-less journey should carry nil price, got %v", *offers[0].Price)
	}
	if offers[0].Transfers == nil || *offers[0].Transfers != 1 {
		t.Errorf("transfers = %v, want 1 for two ride sections", offers[0].Transfers)
	}

	if offers[1].Price == nil || *offers[1].Price != 62.5 {
		t.Errorf("priced journey lost its fare: %v", offers[1].Price)
	}
	if *offers[1].Transfers != 0 {
		t.Errorf("direct journey transfers = %d", *offers[1].Transfers)
	}
}

func TestSearchBuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-RapidAPI-Key"); got != "buses-key" {
			t.Errorf("rapidapi header = %q", got)
		}
		switch r.URL.Path {
		case "/stations":
			switch r.URL.Query().Get("query") {
			case "Madrid":
				json.NewEncoder(w).Encode([]map[string]any{{"id": 1374, "name": "Madrid"}})
			case "Barcelona":
				json.NewEncoder(w).Encode([]map[string]any{{"id": 88, "name": "Barcelona Nord"}})
			default:
				json.NewEncoder(w).Encode([]map[string]any{})
			}
		case "/trips":
			q := r.URL.Query()
			if q.Get("from_id") != "1374" || q.Get("to_id") != "88" {
				t.Errorf("trip query = %v", q)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"trips": []map[string]any{{
					"departure": map[string]any{"date": "2026-09-14T07:30:00"},
					"arrival":   map[string]any{"date": "2026-09-14T14:45:00"},
					"duration":  map[string]any{"hours": 7, "minutes": 15},
					"price":     map[string]any{"total": 45.0, "currency": "EUR"},
					"transfers": []any{},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{BusesAPIKey: "buses-key"})
	offers, err := c.SearchBuses(context.Background(), "Madrid", "Barcelona", testDate)
	if err != nil {
		t.Fatalf("SearchBuses: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("offers = %d", len(offers))
	}
	o := offers[0]
	if o.Price == nil || *o.Price != 45 {
		t.Errorf("price = %v", o.Price)
	}
	if o.Duration != "PT7H15M" {
		t.Errorf("duration = %q", o.Duration)
	}
	if o.Transfers == nil || *o.Transfers != 0 {
		t.Errorf("transfers = %v", o.Transfers)
	}
}

func TestSearchBusesNoStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{BusesAPIKey: "buses-key"})
	offers, err := c.SearchBuses(context.Background(), "Andorra", "Barcelona", testDate)
	if err != nil {
		t.Fatalf("no station should not error: %v", err)
	}
	if offers != nil {
		t.Fatalf("offers = %v, want nil for unserved city", offers)
	}
}

func TestCityCode(t *testing.T) {
	lookups := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reference-data/locations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		lookups++
		switch r.URL.Query().Get("keyword") {
		case "Madrid":
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
				{"iataCode": "MAD", "subType": "AIRPORT", "name": "Adolfo Suárez"},
				{"iataCode": "MAD", "subType": "CITY", "name": "Madrid"},
			}})
		default:
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{FlightsAPIKey: "k"})
	cache := NewCodeCache()

	// Short inputs pass through without hitting the network.
	code, err := c.CityCode(context.Background(), cache, "mad")
	if err != nil || code != "MAD" {
		t.Fatalf("passthrough: %q, %v", code, err)
	}
	if lookups != 0 {
		t.Fatal("3-letter input must not trigger a lookup")
	}

	code, err = c.CityCode(context.Background(), cache, "Madrid")
	if err != nil || code != "MAD" {
		t.Fatalf("lookup: %q, %v", code, err)
	}
	if lookups != 1 {
		t.Fatalf("lookups = %d", lookups)
	}

	// Second resolution is served from the cache.
	if _, err := c.CityCode(context.Background(), cache, "MADRID"); err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if lookups != 1 {
		t.Fatalf("cache miss on repeat: lookups = %d", lookups)
	}

	// Unknown cities are cached negatively.
	code, err = c.CityCode(context.Background(), cache, "Atlantis")
	if err != nil || code != "" {
		t.Fatalf("unknown city: %q, %v", code, err)
	}
	if _, err := c.CityCode(context.Background(), cache, "Atlantis"); err != nil {
		t.Fatal(err)
	}
	if lookups != 2 {
		t.Fatalf("negative result not cached: lookups = %d", lookups)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache size = %d", cache.Len())
	}
}

func TestSearchAllPartialProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"journeys": []map[string]any{{
				"duration": 7200,
				"sections": []map[string]any{{"type": "public_transport"}},
			}},
		})
	}))
	defer srv.Close()

	// Only trains configured: flights and buses contribute warnings.
	c := newTestClient(srv, Options{TrainsAPIKey: "k"})
	set, warnings, err := c.SearchAll(context.Background(), NewCodeCache(), "MAD", "BCN", testDate)
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if len(set.Offers) != 1 || set.Offers[0].Mode != model.ModeTrain {
		t.Fatalf("offers = %+v", set.Offers)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want skip notices for flights and buses", warnings)
	}
}

func TestSearchAllFlightsLookupFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reference-data/locations":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"message": "location service down"})
		case "/journeys":
			json.NewEncoder(w).Encode(map[string]any{
				"journeys": []map[string]any{{
					"duration": 9000,
					"sections": []map[string]any{{"type": "public_transport"}},
					"fare":     map[string]any{"total": map[string]any{"value": "62.50", "currency": "EUR"}},
				}},
			})
		case "/stations":
			if r.URL.Query().Get("query") == "Madrid" {
				json.NewEncoder(w).Encode([]map[string]any{{"id": 1374, "name": "Madrid"}})
			} else {
				json.NewEncoder(w).Encode([]map[string]any{{"id": 88, "name": "Barcelona Nord"}})
			}
		case "/trips":
			json.NewEncoder(w).Encode(map[string]any{
				"trips": []map[string]any{{
					"duration":  map[string]any{"hours": 7, "minutes": 15},
					"price":     map[string]any{"total": 45.0, "currency": "EUR"},
					"transfers": []any{},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	// Flights location lookup fails hard; trains and buses still answer.
	c := newTestClient(srv, Options{FlightsAPIKey: "fk", TrainsAPIKey: "tk", BusesAPIKey: "bk"})
	set, warnings, err := c.SearchAll(context.Background(), NewCodeCache(), "Madrid", "Barcelona", testDate)
	if err != nil {
		t.Fatalf("a failed code lookup must not abort the whole search: %v", err)
	}
	if len(set.Offers) != 2 {
		t.Fatalf("offers = %+v, want one train and one bus", set.Offers)
	}
	for _, o := range set.Offers {
		if o.Mode == model.ModeFlight {
			t.Fatalf("unexpected flight offer: %+v", o)
		}
	}
	var flightsWarned bool
	for _, warn := range warnings {
		if strings.HasPrefix(warn, "flights:") {
			flightsWarned = true
		}
	}
	if !flightsWarned {
		t.Fatalf("warnings = %v, want a flights warning", warnings)
	}
}

func TestSearchAllNoProviders(t *testing.T) {
	c := NewClient(Options{})
	_, _, err := c.SearchAll(context.Background(), NewCodeCache(), "MAD", "BCN", testDate)
	if err == nil {
		t.Fatal("expected error with zero providers configured")
	}
}

func TestSearchAllSortsByPrice(t *testing.T) {
	offers := []model.Offer{
		{Provider: "A", Price: fp(95)},
		{Provider: "B"},
		{Provider: "C", Price: fp(45)},
	}
	SortByPrice(offers)
	if offers[0].Provider != "C" || offers[1].Provider != "A" || offers[2].Provider != "B" {
		t.Fatalf("order = %s %s %s, want C A B (unpriced last)", offers[0].Provider, offers[1].Provider, offers[2].Provider)
	}
}

func fp(v float64) *float64 { return &v }

func TestGetJSONRetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"journeys": []any{}})
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{TrainsAPIKey: "k"})
	if _, err := c.SearchTrains(context.Background(), "A", "B", testDate); err != nil {
		t.Fatalf("retry should recover from a single 429: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestGetJSONClientErrorNoRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid key"})
	}))
	defer srv.Close()

	c := newTestClient(srv, Options{TrainsAPIKey: "bad"})
	_, err := c.SearchTrains(context.Background(), "A", "B", testDate)
	if err == nil {
		t.Fatal("expected auth error")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not be retried: attempts = %d", attempts)
	}
}

func TestRedact(t *testing.T) {
	got := redact("https://api?apikey=sekret&x=1", "sekret", "")
	if got != "https://api?apikey=REDACTED&x=1" {
		t.Fatalf("redact = %q", got)
	}
}
