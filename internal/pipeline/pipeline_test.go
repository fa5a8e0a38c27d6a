package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/derickschaefer/tripwise/internal/model"
)

func TestReadOffers(t *testing.T) {
	input := `{"mode":"flight","provider":"Amadeus","price":95,"duration":"PT1H25M","origin":"MAD","destination":"BCN"}

// comment lines and blanks are skipped
{"mode":"train","provider":"SNCF","price":null,"duration":"PT2H58M","origin":"MAD","destination":"BCN"}
`
	offers, err := ReadOffers(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadOffers: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(offers))
	}
	if offers[0].Mode != model.ModeFlight || offers[0].Price == nil || *offers[0].Price != 95 {
		t.Errorf("first offer = %+v", offers[0])
	}
	if offers[1].Price != nil {
		t.Errorf("null price should stay nil: %+v", offers[1])
	}
}

func TestReadOffersErrors(t *testing.T) {
	if _, err := ReadOffers(strings.NewReader("")); err == nil {
		t.Error("empty input should error")
	}

	if _, err := ReadOffers(strings.NewReader("+---+---+\n")); err == nil {
		t.Error("table output piped in should produce a JSON error")
	}

	if _, err := ReadOffers(strings.NewReader(`{"provider":"X"}`)); err == nil {
		t.Error("offer without mode should error")
	}

	_, err := ReadOffers(strings.NewReader("{\"mode\":\"bus\"}\nnot-json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should carry the line number, got: %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	price := 45.0
	in := []model.Offer{
		{Mode: model.ModeBus, Provider: "FlixBus", Price: &price, Duration: "PT7H15M", Origin: "MAD", Destination: "BCN"},
		{Mode: model.ModeTrain, Provider: "SNCF", Duration: "PT2H58M", Origin: "MAD", Destination: "BCN"},
	}

	var buf bytes.Buffer
	if err := WriteOffers(&buf, in); err != nil {
		t.Fatalf("WriteOffers: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("line count = %d, want 2", got)
	}

	out, err := ReadOffers(&buf)
	if err != nil {
		t.Fatalf("ReadOffers: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("round trip offers = %d", len(out))
	}
	if out[0].Provider != "FlixBus" || out[1].Provider != "SNCF" {
		t.Errorf("order not preserved: %+v", out)
	}
	if out[0].Price == nil || *out[0].Price != 45 {
		t.Errorf("price lost: %+v", out[0])
	}
	if out[1].Price != nil {
		t.Errorf("nil price not preserved: %+v", out[1])
	}
}
