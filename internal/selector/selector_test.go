package selector

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/reanchor/internal/treepath"
)

func TestLocation_JSONRoundTrip(t *testing.T) {
	loc := Location{
		ID: "anno-1",
		Range: &RangeSelector{
			StartPath:   []treepath.Segment{{Name: "div", Index: 1}, {Name: "p", Index: 2}},
			StartOffset: 3,
			EndPath:     []treepath.Segment{{Name: "div", Index: 1}, {Name: "p", Index: 2}},
			EndOffset:   9,
		},
		Position: &TextPositionSelector{Start: 14, End: 20},
		Quote:    &TextQuoteSelector{Exact: "quoted", Prefix: "before ", Suffix: " after"},
	}

	data, err := json.Marshal(loc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, want := range []string{TypeRange, TypePosition, TypeQuote} {
		if !strings.Contains(string(data), `"type":"`+want+`"`) {
			t.Errorf("expected discriminator %q in %s", want, data)
		}
	}

	var back Location
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != loc.ID {
		t.Errorf("expected id %q, got %q", loc.ID, back.ID)
	}
	if back.Range == nil || back.Range.StartOffset != 3 || back.Range.EndOffset != 9 {
		t.Errorf("range selector did not survive: %+v", back.Range)
	}
	if len(back.Range.StartPath) != 2 || back.Range.StartPath[1] != (treepath.Segment{Name: "p", Index: 2}) {
		t.Errorf("start path did not survive: %+v", back.Range.StartPath)
	}
	if back.Position == nil || *back.Position != (TextPositionSelector{Start: 14, End: 20}) {
		t.Errorf("position selector did not survive: %+v", back.Position)
	}
	if back.Quote == nil || *back.Quote != (TextQuoteSelector{Exact: "quoted", Prefix: "before ", Suffix: " after"}) {
		t.Errorf("quote selector did not survive: %+v", back.Quote)
	}
}

func TestLocation_UnmarshalRejectsWrongDiscriminator(t *testing.T) {
	data := `{"id":"x","textPositionSelector":{"type":"RangeSelector","start":0,"end":5}}`
	var loc Location
	if err := json.Unmarshal([]byte(data), &loc); err == nil {
		t.Fatal("expected error for mismatched discriminator")
	}
}

func TestLocation_UnmarshalTreatsEmptyExactAsAbsent(t *testing.T) {
	data := `{"id":"x","textQuoteSelector":{"type":"TextQuoteSelector","exact":""}}`
	var loc Location
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loc.Quote != nil {
		t.Errorf("expected empty exact to decode as absent, got %+v", loc.Quote)
	}
	if !loc.Empty() {
		t.Errorf("expected location to be empty")
	}
}

func TestLocation_PartialSelectorsAllowed(t *testing.T) {
	data := `{"id":"x","textQuoteSelector":{"type":"TextQuoteSelector","exact":"hello"}}`
	var loc Location
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loc.Range != nil || loc.Position != nil {
		t.Errorf("expected only the quote selector to be present")
	}
	if loc.Quote.Absent() || loc.Quote.Exact != "hello" {
		t.Errorf("expected quote %q, got %+v", "hello", loc.Quote)
	}
}

func TestValidate_NegativeOffsets(t *testing.T) {
	pos := &TextPositionSelector{Start: -1, End: 5}
	if err := pos.Validate(); err == nil {
		t.Error("expected position validation to fail for negative start")
	}
	rng := &RangeSelector{StartOffset: 0, EndOffset: -2}
	if err := rng.Validate(); err == nil {
		t.Error("expected range validation to fail for negative end offset")
	}
	ok := &TextPositionSelector{Start: 0, End: 0}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
