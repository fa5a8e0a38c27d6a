// Package pipeline provides helpers for reading and writing offer streams
// via stdin/stdout in JSONL format — the canonical pipe format.
//
// Source commands (`tripwise search --format jsonl`) emit one offer per
// line; `tripwise analyze` reads them back. Offers that arrived from a file
// or another tool work the same way as offers tripwise fetched itself.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derickschaefer/tripwise/internal/model"
)

// ReadOffers reads JSONL offer records from r (stdin) and returns them in
// input order. Each line must be a JSON object with at least "mode",
// "origin", and "destination"; price and duration are optional, matching
// the engine's tolerance for partially-comparable offers.
func ReadOffers(r io.Reader) ([]model.Offer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var offers []model.Offer
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var o model.Offer
		if err := json.Unmarshal([]byte(line), &o); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		if o.Mode == "" {
			return nil, fmt.Errorf("line %d: offer missing mode", lineNum)
		}
		offers = append(offers, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(offers) == 0 {
		return nil, fmt.Errorf("no offers read from input (is stdin empty?)")
	}
	return offers, nil
}

// WriteOffers writes offers as JSONL to w, one offer per line.
func WriteOffers(w io.Writer, offers []model.Offer) error {
	enc := json.NewEncoder(w)
	for _, o := range offers {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	return isCharDevice(os.Stdout)
}

// StdinIsTTY returns true if stdin is a terminal, meaning nothing is being
// piped in. Consumers use it to fail fast instead of blocking on a read
// that will never produce data.
func StdinIsTTY() bool {
	return isCharDevice(os.Stdin)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
