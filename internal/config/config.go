// Package config handles loading and resolving tripwise configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--flights-key etc.)
//  2. Environment variables (AMADEUS_API_KEY, SNCF_API_KEY, RAPIDAPI_KEY)
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultTimeout    = 30 * time.Second
	DefaultRate       = 2.0 // provider searches per second; burst stays 1
	DefaultMaxResults = 3
	DefaultMaxCities  = 8

	EnvFlightsKey = "AMADEUS_API_KEY"
	EnvTrainsKey  = "SNCF_API_KEY"
	EnvBusesKey   = "RAPIDAPI_KEY"
	EnvDBPath     = "TRIPWISE_DB_PATH"
)

// File is the on-disk representation of config.json.
type File struct {
	FlightsAPIKey string  `json:"flights_api_key"`
	TrainsAPIKey  string  `json:"trains_api_key"`
	BusesAPIKey   string  `json:"buses_api_key"`
	DefaultFormat string  `json:"default_format"`
	Timeout       string  `json:"timeout"`
	Rate          float64 `json:"rate"`
	MaxResults    int     `json:"max_results"`
	MaxCities     int     `json:"max_cities"`
	DBPath        string  `json:"db_path"`

	FlightsBaseURL string `json:"flights_base_url,omitempty"`
	TrainsBaseURL  string `json:"trains_base_url,omitempty"`
	BusesBaseURL   string `json:"buses_base_url,omitempty"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	FlightsAPIKey string
	TrainsAPIKey  string
	BusesAPIKey   string
	Format        string
	Timeout       time.Duration
	Rate          float64
	MaxResults    int
	MaxCities     int
	DBPath        string
	ConfigPath    string // path of the config.json that was loaded (empty if none found)

	FlightsBaseURL string
	TrainsBaseURL  string
	BusesBaseURL   string

	// Runtime overrides set from CLI flags after Load()
	NoCache bool
	Refresh bool
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Keys holds the CLI flag values passed into Load (empty strings if unset).
type Keys struct {
	Flights string
	Trains  string
	Buses   string
}

// Load resolves configuration from all sources.
func Load(flagKeys Keys) (*Config, error) {
	cfg := &Config{
		Format:     DefaultFormat,
		Timeout:    DefaultTimeout,
		Rate:       DefaultRate,
		MaxResults: DefaultMaxResults,
		MaxCities:  DefaultMaxCities,
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvFlightsKey); v != "" {
		cfg.FlightsAPIKey = v
	}
	if v := os.Getenv(EnvTrainsKey); v != "" {
		cfg.TrainsAPIKey = v
	}
	if v := os.Getenv(EnvBusesKey); v != "" {
		cfg.BusesAPIKey = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	// Layer 3: CLI flags (highest priority)
	if flagKeys.Flights != "" {
		cfg.FlightsAPIKey = flagKeys.Flights
	}
	if flagKeys.Trains != "" {
		cfg.TrainsAPIKey = flagKeys.Trains
	}
	if flagKeys.Buses != "" {
		cfg.BusesAPIKey = flagKeys.Buses
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".tripwise", "tripwise.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if no provider credentials are configured.
// Commands that only read local data (cache, itinerary, analyze) skip it.
func (c *Config) Validate() error {
	if c.FlightsAPIKey == "" && c.TrainsAPIKey == "" && c.BusesAPIKey == "" {
		return errors.New(
			"no provider API keys found.\n\n" +
				"Set at least one of them:\n" +
				"  Flights:  export AMADEUS_API_KEY=YOUR_KEY   (or flights_api_key in config.json)\n" +
				"  Trains:   export SNCF_API_KEY=YOUR_KEY      (or trains_api_key in config.json)\n" +
				"  Buses:    export RAPIDAPI_KEY=YOUR_KEY      (or buses_api_key in config.json)\n\n" +
				"Run 'tripwise config init' to create a config.json template",
		)
	}
	return nil
}

// Redacted returns a key with most characters replaced by asterisks.
// Safe for logging and display.
func Redacted(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-2:]
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s", path)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.FlightsAPIKey != "" {
		cfg.FlightsAPIKey = f.FlightsAPIKey
	}
	if f.TrainsAPIKey != "" {
		cfg.TrainsAPIKey = f.TrainsAPIKey
	}
	if f.BusesAPIKey != "" {
		cfg.BusesAPIKey = f.BusesAPIKey
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.MaxResults > 0 {
		cfg.MaxResults = f.MaxResults
	}
	if f.MaxCities > 0 {
		cfg.MaxCities = f.MaxCities
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.FlightsBaseURL != "" {
		cfg.FlightsBaseURL = f.FlightsBaseURL
	}
	if f.TrainsBaseURL != "" {
		cfg.TrainsBaseURL = f.TrainsBaseURL
	}
	if f.BusesBaseURL != "" {
		cfg.BusesBaseURL = f.BusesBaseURL
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `tripwise config init`.
func Template() File {
	return File{
		FlightsAPIKey: "",
		TrainsAPIKey:  "",
		BusesAPIKey:   "",
		DefaultFormat: "table",
		Timeout:       "30s",
		Rate:          DefaultRate,
		MaxResults:    DefaultMaxResults,
		MaxCities:     DefaultMaxCities,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
