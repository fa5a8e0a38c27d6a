package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

// rawFlightOffer mirrors the provider's flight offers payload: one or more
// itineraries, each a chain of segments, priced as a whole.
type rawFlightOffer struct {
	Itineraries []struct {
		Duration string `json:"duration"` // ISO-8601, e.g. PT2H30M
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Departure   struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
}

// flightSegmentDetail is the passthrough detail payload attached to each
// flight offer. The engine never interprets it.
type flightSegmentDetail struct {
	Carrier      string `json:"carrier"`
	FlightNumber string `json:"flight_number"`
	From         string `json:"from"`
	To           string `json:"to"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
}

// SearchFlights fetches one-way flight offers between two IATA codes.
// Returns at most MaxResults offers. Offers with an unparseable price are
// skipped; the provider guarantees a duration string per itinerary.
func (c *Client) SearchFlights(ctx context.Context, origin, destination string, date time.Time) ([]model.Offer, error) {
	if !c.HasFlights() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", destination)
	params.Set("departureDate", util.FormatDate(date))
	params.Set("adults", "1")
	params.Set("max", strconv.Itoa(c.opts.MaxResults))

	var raw struct {
		Data []rawFlightOffer `json:"data"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.opts.FlightsAPIKey}
	if err := c.getJSON(ctx, c.opts.FlightsBaseURL, "shopping/flight-offers", params, headers, &raw); err != nil {
		return nil, fmt.Errorf("flights %s → %s: %w", origin, destination, err)
	}

	offers := make([]model.Offer, 0, len(raw.Data))
	for _, r := range raw.Data {
		offer, ok := parseFlightOffer(r)
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}
	if len(offers) > c.opts.MaxResults {
		offers = offers[:c.opts.MaxResults]
	}
	return offers, nil
}

// parseFlightOffer converts one raw offer into the canonical Offer shape.
func parseFlightOffer(r rawFlightOffer) (model.Offer, bool) {
	if len(r.Itineraries) == 0 || len(r.Itineraries[0].Segments) == 0 {
		return model.Offer{}, false
	}
	itin := r.Itineraries[0]
	segs := itin.Segments
	first, last := segs[0], segs[len(segs)-1]

	price, err := strconv.ParseFloat(r.Price.Total, 64)
	if err != nil {
		return model.Offer{}, false
	}

	carrierSet := make(map[string]bool)
	details := make([]flightSegmentDetail, len(segs))
	for i, s := range segs {
		carrierSet[s.CarrierCode] = true
		details[i] = flightSegmentDetail{
			Carrier:      s.CarrierCode,
			FlightNumber: s.Number,
			From:         s.Departure.IataCode,
			To:           s.Arrival.IataCode,
			Departure:    s.Departure.At,
			Arrival:      s.Arrival.At,
		}
	}
	carriers := make([]string, 0, len(carrierSet))
	for code := range carrierSet {
		carriers = append(carriers, code)
	}
	sort.Strings(carriers)

	stops := len(segs) - 1
	detailJSON, _ := json.Marshal(map[string]interface{}{"segments": details})

	return model.Offer{
		Mode:          model.ModeFlight,
		Provider:      "Amadeus",
		Price:         &price,
		Currency:      r.Price.Currency,
		Duration:      itin.Duration,
		DepartureTime: first.Departure.At,
		ArrivalTime:   last.Arrival.At,
		Origin:        first.Departure.IataCode,
		Destination:   last.Arrival.IataCode,
		Stops:         &stops,
		Carriers:      carriers,
		Details:       detailJSON,
	}, true
}
