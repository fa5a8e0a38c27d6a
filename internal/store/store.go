// Package store provides a thin bbolt wrapper for tripwise's local data
// store.
//
// Design philosophy: the store is an intentional data accumulator, not a
// transparent HTTP cache. Offer sets are written explicitly by search
// commands and read back when the same leg is searched again; itineraries
// persist until deleted. No TTL, no auto-invalidation — you own your data.
//
// Buckets:
//
//	offers      — cached leg searches keyed by origin|destination|date
//	itineraries — saved trip plans keyed by name
//	_meta       — internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/util"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketOffers      = []byte("offers")
	bucketItineraries = []byte("itineraries")
	bucketInternal    = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"offers", "itineraries"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketOffers, bucketItineraries, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Offer Sets ───────────────────────────────────────────────────────────────

// OfferKey builds the canonical key for a cached leg search.
// Format: leg:<origin>|<destination>|<date>
func OfferKey(origin, destination string, date time.Time) string {
	return "leg:" + origin + "|" + destination + "|" + util.FormatDate(date)
}

// storedOffers is the on-disk envelope for a cached leg search.
type storedOffers struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Set       model.OfferSet `json:"offer_set"`
}

// PutOffers caches the offers found for one leg search.
func (s *Store) PutOffers(key string, set model.OfferSet) error {
	b, err := json.Marshal(storedOffers{FetchedAt: time.Now().UTC(), Set: set})
	if err != nil {
		return fmt.Errorf("encoding offers: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOffers).Put([]byte(key), b)
	})
}

// GetOffers retrieves a cached leg search by key.
// Returns (set, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetOffers(key string) (model.OfferSet, bool, error) {
	var envelope storedOffers
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOffers).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &envelope)
	})
	if err != nil || !found {
		return model.OfferSet{}, false, err
	}
	return envelope.Set, true, nil
}

// ListOfferKeys returns all cached leg keys, optionally filtered by origin.
// Pass origin="" to list all keys.
func (s *Store) ListOfferKeys(origin string) ([]string, error) {
	prefix := []byte("leg:")
	if origin != "" {
		prefix = []byte("leg:" + origin)
	}
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOffers).Cursor()
		for k, _ := c.Seek(prefix); k != nil; k, _ = c.Next() {
			if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
				break
			}
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// ─── Itineraries ──────────────────────────────────────────────────────────────

// PutItinerary saves an itinerary, stamping SavedAt. The key is the name.
func (s *Store) PutItinerary(it model.Itinerary) error {
	it.SavedAt = time.Now().UTC()
	b, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encoding itinerary: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItineraries).Put([]byte(it.Name), b)
	})
}

// GetItinerary retrieves a saved itinerary by name.
// Returns (it, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetItinerary(name string) (model.Itinerary, bool, error) {
	var it model.Itinerary
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketItineraries).Get([]byte(name))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &it)
	})
	if err != nil {
		return it, false, err
	}
	return it, it.Name != "", nil
}

// ListItineraries returns all saved itineraries in key order.
func (s *Store) ListItineraries() ([]model.Itinerary, error) {
	var its []model.Itinerary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItineraries).ForEach(func(k, v []byte) error {
			var it model.Itinerary
			if err := json.Unmarshal(v, &it); err != nil {
				return err
			}
			its = append(its, it)
			return nil
		})
	})
	return its, err
}

// DeleteItinerary removes a saved itinerary by name.
func (s *Store) DeleteItinerary(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItineraries).Delete([]byte(name))
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	buckets := map[string][]byte{
		"offers":      bucketOffers,
		"itineraries": bucketItineraries,
	}

	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for name, bname := range buckets {
			b := tx.Bucket(bname)
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// Compact rewrites the database to a temporary file and atomically swaps it
// in, reclaiming space freed by prior clears. Returns before/after sizes.
// The Store handle remains usable after Compact returns.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()

	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat db: %w", err)
	}
	before = fi.Size()

	tmpPath := path + ".compact"
	tmp, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening temp db: %w", err)
	}

	if err := bolt.Compact(tmp, s.db, 0); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return before, 0, fmt.Errorf("compacting: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return before, 0, err
	}

	// Swap files: close the live handle, rename, reopen.
	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return before, 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return before, 0, fmt.Errorf("replacing db: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening db: %w", err)
	}
	s.db = db

	fi, err = os.Stat(path)
	if err != nil {
		return before, 0, err
	}
	return before, fi.Size(), nil
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}
