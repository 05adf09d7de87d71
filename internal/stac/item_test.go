package stac

import (
	"errors"
	"testing"
	"time"
)

const sampleItem = `{
	"type": "Feature",
	"stac_version": "1.0.0",
	"id": "LC09_L2SP_042033_20240801",
	"collection": "landsat-c2l2-sr",
	"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]},
	"bbox": [0, 0, 1, 1],
	"properties": {"datetime": "2024-08-01T18:20:00Z"},
	"assets": {"red": {"href": "s3://bucket/red.tif"}}
}`

func TestDecodeItemKeepsRawPayload(t *testing.T) {
	item, err := DecodeItem([]byte(sampleItem))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if item.ID != "LC09_L2SP_042033_20240801" {
		t.Fatalf("unexpected id: %q", item.ID)
	}
	if item.Collection != "landsat-c2l2-sr" {
		t.Fatalf("unexpected collection: %q", item.Collection)
	}
	if string(item.Raw) != sampleItem {
		t.Fatalf("Raw does not match input payload")
	}
	if len(item.Bbox) != 4 {
		t.Fatalf("expected 4 bbox values, got %d", len(item.Bbox))
	}
}

func TestDecodeItemRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeItem([]byte(`{not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDatetime(t *testing.T) {
	item, err := DecodeItem([]byte(sampleItem))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	ts, ok := item.Datetime()
	if !ok {
		t.Fatalf("expected datetime")
	}
	want := time.Date(2024, 8, 1, 18, 20, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("datetime mismatch: got %s want %s", ts, want)
	}

	noDatetime := Item{Properties: []byte(`{"gsd": 30}`)}
	if _, ok := noDatetime.Datetime(); ok {
		t.Fatalf("expected no datetime")
	}
}

func TestValidateReasons(t *testing.T) {
	cases := []struct {
		name string
		item Item
		want Reason
	}{
		{"missing collection", Item{Type: "Feature", ID: "a"}, ReasonMissingCollection},
		{"missing id", Item{Type: "Feature", Collection: "c"}, ReasonMissingID},
		{"wrong type", Item{Type: "FeatureCollection", ID: "a", Collection: "c"}, ReasonWrongType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, verr.Reason)
			}
		})
	}
}

func TestValidateAcceptsCompleteItem(t *testing.T) {
	item := Item{Type: "Feature", ID: "a", Collection: "c"}
	if err := item.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// Type is optional on the wire; only wrong values are rejected.
	untyped := Item{ID: "a", Collection: "c"}
	if err := untyped.Validate(); err != nil {
		t.Fatalf("Validate untyped: %v", err)
	}
}
