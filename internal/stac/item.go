package stac

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item is a catalog record as published by the generation stage.
// Raw holds the exact JSON that arrived; the loader stores Raw so the
// catalog never diverges from what was published.
type Item struct {
	Type        string          `json:"type"`
	StacVersion string          `json:"stac_version"`
	ID          string          `json:"id"`
	Collection  string          `json:"collection"`
	Geometry    json.RawMessage `json:"geometry,omitempty"`
	Bbox        []float64       `json:"bbox,omitempty"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	Assets      json.RawMessage `json:"assets,omitempty"`
	Links       json.RawMessage `json:"links,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// DecodeItem parses a catalog item payload and keeps the original bytes.
func DecodeItem(payload []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(payload, &item); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	item.Raw = append(json.RawMessage(nil), payload...)
	return item, nil
}

// Datetime returns the item's properties.datetime if present.
func (i Item) Datetime() (time.Time, bool) {
	if len(i.Properties) == 0 {
		return time.Time{}, false
	}
	var props struct {
		Datetime *time.Time `json:"datetime"`
	}
	if err := json.Unmarshal(i.Properties, &props); err != nil || props.Datetime == nil {
		return time.Time{}, false
	}
	return props.Datetime.UTC(), true
}
