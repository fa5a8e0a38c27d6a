package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

// rawTrip mirrors the bus API's trip payload. Durations arrive split into
// hours and minutes; prices as a nested total.
type rawTrip struct {
	Departure struct {
		Date string `json:"date"`
	} `json:"departure"`
	Arrival struct {
		Date string `json:"date"`
	} `json:"arrival"`
	Duration struct {
		Hours   int `json:"hours"`
		Minutes int `json:"minutes"`
	} `json:"duration"`
	Price struct {
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
	} `json:"price"`
	Transfers []json.RawMessage `json:"transfers"`
}

// SearchBuses fetches bus trips between two cities. Station IDs are
// resolved first; a city without a station yields no offers rather than an
// error, since buses simply may not serve it.
func (c *Client) SearchBuses(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
	if !c.HasBuses() {
		return nil, nil
	}

	fromID, err := c.busStationID(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("buses: station lookup %q: %w", origin, err)
	}
	toID, err := c.busStationID(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("buses: station lookup %q: %w", destination, err)
	}
	if fromID == "" || toID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("from_id", fromID)
	params.Set("to_id", toID)
	params.Set("date", util.FormatDate(date))

	var raw struct {
		Trips []rawTrip `json:"trips"`
	}
	if err := c.getJSON(ctx, c.opts.BusesBaseURL, "trips", params, c.busHeaders(), &raw); err != nil {
		return nil, fmt.Errorf("buses %s → %s: %w", origin, destination, err)
	}

	offers := make([]model.Offer, 0, len(raw.Trips))
	for _, t := range raw.Trips {
		offers = append(offers, parseTrip(t, origin, destination))
		if len(offers) == c.opts.MaxResults {
			break
		}
	}
	return offers, nil
}

// busStationID resolves a city name to the bus network's station ID.
// Returns "" when the city has no station.
func (c *Client) busStationID(ctx context.Context, city string) (string, error) {
	params := url.Values{}
	params.Set("query", city)

	var stations []struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	}
	if err := c.getJSON(ctx, c.opts.BusesBaseURL, "stations", params, c.busHeaders(), &stations); err != nil {
		return "", err
	}
	if len(stations) == 0 {
		return "", nil
	}
	return stations[0].ID.String(), nil
}

func (c *Client) busHeaders() map[string]string {
	return map[string]string{"X-RapidAPI-Key": c.opts.BusesAPIKey}
}

// parseTrip converts one bus trip into the canonical Offer shape.
func parseTrip(t rawTrip, origin, destination string) model.Offer {
	price := t.Price.Total
	currency := t.Price.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	transfers := len(t.Transfers)

	offer := model.Offer{
		Mode:          model.ModeBus,
		Provider:      "FlixBus",
		Price:         &price,
		Currency:      currency,
		Duration:      fmt.Sprintf("PT%dH%dM", t.Duration.Hours, t.Duration.Minutes),
		DepartureTime: t.Departure.Date,
		ArrivalTime:   t.Arrival.Date,
		Origin:        origin,
		Destination:   destination,
		Transfers:     &transfers,
	}
	if detail, err := json.Marshal(map[string]interface{}{"transfers": t.Transfers}); err == nil && transfers > 0 {
		offer.Details = detail
	}
	return offer
}
