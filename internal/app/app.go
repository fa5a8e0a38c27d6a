// Package app wires together configuration, the provider client, and the
// local store into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"

	"github.com/derickschaefer/tripwise/internal/config"
	"github.com/derickschaefer/tripwise/internal/store"
	"github.com/derickschaefer/tripwise/internal/transport"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The store is opened lazily via RequireStore, so commands that never touch
// local data don't create the database file.
type Deps struct {
	Config *config.Config
	Client *transport.Client
	Codes  *transport.CodeCache
	Store  *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) *Deps {
	client := transport.NewClient(transport.Options{
		FlightsAPIKey:  cfg.FlightsAPIKey,
		TrainsAPIKey:   cfg.TrainsAPIKey,
		BusesAPIKey:    cfg.BusesAPIKey,
		FlightsBaseURL: cfg.FlightsBaseURL,
		TrainsBaseURL:  cfg.TrainsBaseURL,
		BusesBaseURL:   cfg.BusesBaseURL,
		Timeout:        cfg.Timeout,
		RatePerSec:     cfg.Rate,
		MaxResults:     cfg.MaxResults,
		Debug:          cfg.Debug,
	})
	return &Deps{
		Config: cfg,
		Client: client,
		Codes:  transport.NewCodeCache(),
	}
}

// RequireStore opens the local database if it isn't open yet.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return fmt.Errorf("no database path configured (set TRIPWISE_DB_PATH or db_path in config.json)")
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = s
	return nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() {
	if d.Store != nil {
		d.Store.Close()
		d.Store = nil
	}
}
