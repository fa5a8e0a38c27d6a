package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// CodeCache memoizes city → IATA code lookups. Resolutions are stable for
// the life of a session, so one lookup per city is enough regardless of how
// many permutations the optimizer sweeps.
//
// The cache is an explicit object owned by the caller, not package state:
// its invalidation scope is exactly the lifetime of the cache value, and
// two independent sessions never share entries. Negative results (city not
// found) are cached too, to avoid hammering the lookup endpoint.
type CodeCache struct {
	mu sync.RWMutex
	m  map[string]string // upper-cased city name → code; "" = known missing
}

// NewCodeCache returns an empty cache.
func NewCodeCache() *CodeCache {
	return &CodeCache{m: make(map[string]string)}
}

func (c *CodeCache) get(city string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.m[strings.ToUpper(city)]
	return code, ok
}

func (c *CodeCache) put(city, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[strings.ToUpper(city)] = code
}

// Len returns the number of cached resolutions.
func (c *CodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// CityCode resolves a city name to its IATA code, consulting and populating
// cache. Inputs of three letters or fewer are treated as codes already and
// pass through upper-cased. Returns "" (with nil error) when no code exists
// for the city.
func (c *Client) CityCode(ctx context.Context, cache *CodeCache, city string) (string, error) {
	city = strings.TrimSpace(city)
	if len(city) <= 3 {
		return strings.ToUpper(city), nil
	}
	if code, ok := cache.get(city); ok {
		return code, nil
	}

	params := url.Values{}
	params.Set("keyword", city)
	params.Set("subType", "CITY,AIRPORT")

	var raw struct {
		Data []struct {
			IataCode string `json:"iataCode"`
			SubType  string `json:"subType"`
			Name     string `json:"name"`
		} `json:"data"`
	}
	headers := map[string]string{"Authorization": "Bearer " + c.opts.FlightsAPIKey}
	if err := c.getJSON(ctx, c.opts.FlightsBaseURL, "reference-data/locations", params, headers, &raw); err != nil {
		return "", fmt.Errorf("location lookup %q: %w", city, err)
	}

	// Prefer a CITY entry; fall back to the first airport.
	code := ""
	for _, loc := range raw.Data {
		if loc.SubType == "CITY" {
			code = loc.IataCode
			break
		}
		if code == "" {
			code = loc.IataCode
		}
	}
	cache.put(city, code)
	return code, nil
}
