// Package analyze selects the single cheapest and single fastest offer from
// a set of transportation options and explains why every other offer was
// discarded. All functions are pure; no I/O.
package analyze

import (
	"errors"
	"fmt"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

// Sentinel errors callers branch on with errors.Is. Both describe the shape
// of the input, not a processing failure: bad individual offers (missing
// price, malformed duration) degrade gracefully and never surface here.
var (
	// ErrEmptyInput is returned when no offers are supplied at all.
	ErrEmptyInput = errors.New("no offers to analyze")

	// ErrNoPriceableOptions is returned when every offer lacks a price, so
	// a cheapest option cannot be determined.
	ErrNoPriceableOptions = errors.New("no offers with a price")
)

// Discard reason fragments. The numeric delta is prepended per offer.
const (
	reasonPricier  = "more expensive than cheapest"
	reasonSlower   = "slower than fastest"
	reasonFallback = "not the cheapest or fastest option"
)

// Offers computes an AnalysisResult over one leg's offer list.
//
// Selection is stable: ties on price or duration go to the earliest offer in
// input order, and re-running on the same slice yields identical output.
// Selected offers are tracked by position index, not value, so two distinct
// offers with identical price and duration are never conflated.
func Offers(offers []model.Offer) (*model.AnalysisResult, error) {
	if len(offers) == 0 {
		return nil, ErrEmptyInput
	}

	// Two independent views of the input: offers rankable by price and
	// offers rankable by duration. An offer may be in one, both, or neither.
	minutes := make([]float64, len(offers))
	for i, o := range offers {
		minutes[i] = util.ParseISODuration(o.Duration)
	}

	cheapestIdx := -1
	withPrice := 0
	for i, o := range offers {
		if o.Price == nil {
			continue
		}
		withPrice++
		if cheapestIdx < 0 || *o.Price < *offers[cheapestIdx].Price {
			cheapestIdx = i
		}
	}
	if cheapestIdx < 0 {
		return nil, ErrNoPriceableOptions
	}

	fastestIdx := -1
	withDuration := 0
	for i, o := range offers {
		if o.Duration == "" || !util.IsParseable(o.Duration) {
			continue
		}
		withDuration++
		if fastestIdx < 0 || minutes[i] < minutes[fastestIdx] {
			fastestIdx = i
		}
	}

	result := &model.AnalysisResult{
		Stats: model.AnalysisStats{
			TotalOptions: len(offers),
			WithPrice:    withPrice,
			WithDuration: withDuration,
		},
	}

	cheapest := offers[cheapestIdx]
	result.Cheapest = &cheapest
	if fastestIdx >= 0 {
		fastest := offers[fastestIdx]
		result.Fastest = &fastest
		result.SameOption = fastestIdx == cheapestIdx
	}

	// Everything not selected is discarded with per-axis reasons.
	for i, o := range offers {
		if i == cheapestIdx || i == fastestIdx {
			continue
		}
		result.Discarded = append(result.Discarded, model.DiscardedOffer{
			Offer:   o,
			Reasons: discardReasons(o, minutes[i], cheapest, fastestMinutes(minutes, fastestIdx)),
		})
	}
	return result, nil
}

// fastestMinutes returns the winning duration, or Unparseable when no offer
// had a parseable duration.
func fastestMinutes(minutes []float64, fastestIdx int) float64 {
	if fastestIdx < 0 {
		return util.Unparseable
	}
	return minutes[fastestIdx]
}

// discardReasons builds the reasons list for one discarded offer. Each
// comparison axis contributes independently; an offer that ties the winners
// on every comparable axis gets the generic fallback.
func discardReasons(o model.Offer, oMinutes float64, cheapest model.Offer, fastestMins float64) []string {
	var reasons []string

	if o.Price != nil {
		if delta := *o.Price - *cheapest.Price; delta > 0 {
			reasons = append(reasons, fmt.Sprintf("%.2f %s %s", delta, o.CurrencyOrDefault(), reasonPricier))
		}
	}

	if o.Duration != "" && util.IsParseable(o.Duration) && !isInf(fastestMins) {
		if delta := oMinutes - fastestMins; delta > 0 {
			reasons = append(reasons, fmt.Sprintf("%s %s", util.FormatMinutes(delta), reasonSlower))
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, reasonFallback)
	}
	return reasons
}

func isInf(v float64) bool {
	return v == util.Unparseable
}
