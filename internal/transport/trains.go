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

// rawJourney mirrors the rail API's journey payload. Durations arrive as
// seconds; fares are frequently absent because they require a separate
// booking call, so train offers often carry no price at all.
type rawJourney struct {
	Duration          int    `json:"duration"` // seconds
	DepartureDateTime string `json:"departure_date_time"`
	ArrivalDateTime   string `json:"arrival_date_time"`
	Sections          []struct {
		Type string `json:"type"`
		Mode string `json:"mode"`
		From struct {
			Name string `json:"name"`
		} `json:"from"`
		To struct {
			Name string `json:"name"`
		} `json:"to"`
	} `json:"sections"`
	Fare *struct {
		Total struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"total"`
	} `json:"fare,omitempty"`
}

// SearchTrains fetches rail journeys between two cities.
func (c *Client) SearchTrains(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
	if !c.HasTrains() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("from", origin)
	params.Set("to", destination)
	params.Set("datetime", util.FormatDate(date)+"T080000")
	params.Set("count", fmt.Sprintf("%d", c.opts.MaxResults))

	var raw struct {
		Journeys []rawJourney `json:"journeys"`
	}
	headers := map[string]string{"Authorization": c.opts.TrainsAPIKey}
	if err := c.getJSON(ctx, c.opts.TrainsBaseURL, "journeys", params, headers, &raw); err != nil {
		return nil, fmt.Errorf("trains %s → %s: %w", origin, destination, err)
	}

	offers := make([]model.Offer, 0, len(raw.Journeys))
	for _, j := range raw.Journeys {
		offers = append(offers, parseJourney(j, origin, destination))
		if len(offers) == c.opts.MaxResults {
			break
		}
	}
	return offers, nil
}

// parseJourney converts one rail journey into the canonical Offer shape.
func parseJourney(j rawJourney, origin, destination string) model.Offer {
	hours := j.Duration / 3600
	minutes := (j.Duration % 3600) / 60
	duration := fmt.Sprintf("PT%dH%dM", hours, minutes)

	// Transfers: one fewer than the number of ridden train sections.
	rideSections := 0
	for _, s := range j.Sections {
		if s.Type == "public_transport" {
			rideSections++
		}
	}
	transfers := 0
	if rideSections > 1 {
		transfers = rideSections - 1
	}

	offer := model.Offer{
		Mode:          model.ModeTrain,
		Provider:      "SNCF",
		Currency:      model.DefaultCurrency,
		Duration:      duration,
		DepartureTime: j.DepartureDateTime,
		ArrivalTime:   j.ArrivalDateTime,
		Origin:        origin,
		Destination:   destination,
		Transfers:     &transfers,
	}

	if j.Fare != nil {
		var price float64
		if _, err := fmt.Sscanf(j.Fare.Total.Value, "%f", &price); err == nil {
			offer.Price = &price
			if j.Fare.Total.Currency != "" {
				offer.Currency = j.Fare.Total.Currency
			}
		}
	}

	if detail, err := json.Marshal(map[string]interface{}{"sections": j.Sections}); err == nil {
		offer.Details = detail
	}
	return offer
}
