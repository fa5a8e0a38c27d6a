package cmd

import (
	"reflect"
	"testing"

	"github.com/derickschaefer/tripwise/internal/optimize"
	"github.com/derickschaefer/tripwise/internal/render"
)

func TestNormaliseCities(t *testing.T) {
	got := normaliseCities([]string{" Madrid ", "Barcelona", "madrid", "", "Lisbon"})
	want := []string{"Madrid", "Barcelona", "Lisbon"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normaliseCities = %v, want %v", got, want)
	}
}

func TestResolveFormat(t *testing.T) {
	globalFlags.Format = ""
	if got := resolveFormat(""); got != render.FormatTable {
		t.Errorf("default format = %q", got)
	}
	if got := resolveFormat("json"); got != "json" {
		t.Errorf("config format = %q", got)
	}

	globalFlags.Format = "csv"
	t.Cleanup(func() { globalFlags.Format = "" })
	if got := resolveFormat("json"); got != "csv" {
		t.Errorf("flag should beat config: %q", got)
	}
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("2026-09-14")
	if err != nil {
		t.Fatalf("parseDateFlag: %v", err)
	}
	if d.Day() != 14 {
		t.Errorf("day = %d", d.Day())
	}

	if _, err := parseDateFlag("next tuesday"); err == nil {
		t.Error("expected error for non-ISO date")
	}

	// Empty defaults to a future date (tomorrow).
	d, err = parseDateFlag("")
	if err != nil {
		t.Fatalf("default date: %v", err)
	}
	if d.IsZero() {
		t.Error("default date should not be zero")
	}
}

func TestCityLimit(t *testing.T) {
	cases := []struct {
		configured int
		want       int
	}{
		{5, 5},
		{optimize.MaxCities, optimize.MaxCities},
		{optimize.MaxCities + 2, optimize.MaxCities}, // generous config clamps to the sweep cap
		{0, optimize.MaxCities},
		{-1, optimize.MaxCities},
	}
	for _, c := range cases {
		if got := cityLimit(c.configured); got != c.want {
			t.Errorf("cityLimit(%d) = %d, want %d", c.configured, got, c.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	if dedupe(nil) != nil {
		t.Error("dedupe(nil) should stay nil")
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, c := range cases {
		if got := humanBytes(c.in); got != c.want {
			t.Errorf("humanBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
