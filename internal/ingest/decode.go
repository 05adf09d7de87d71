package ingest

import (
	"stac-loader/internal/stac"
)

// EnvelopeError indicates the record body was not a well-formed topic
// notification.
type EnvelopeError struct {
	MessageID string
	Err       error
}

func (e EnvelopeError) Error() string {
	if e.Err == nil {
		return "envelope decode failed"
	}
	return "envelope decode failed: " + e.Err.Error()
}

func (e EnvelopeError) Unwrap() error { return e.Err }

// ItemError indicates the notification payload was not a parseable item.
type ItemError struct {
	MessageID string
	Err       error
}

func (e ItemError) Error() string {
	if e.Err == nil {
		return "item decode failed"
	}
	return "item decode failed: " + e.Err.Error()
}

func (e ItemError) Unwrap() error { return e.Err }

// DecodeRecord unwraps a record's envelope, parses the item, and
// validates it. Failures are typed per phase so the processor can log
// them distinctly; all of them fail only the record's own messageId.
func DecodeRecord(rec Record) (stac.Item, error) {
	env, err := DecodeEnvelope([]byte(rec.Body))
	if err != nil {
		return stac.Item{}, EnvelopeError{MessageID: rec.MessageID, Err: err}
	}

	item, err := stac.DecodeItem([]byte(env.Message))
	if err != nil {
		return stac.Item{}, ItemError{MessageID: rec.MessageID, Err: err}
	}

	if err := item.Validate(); err != nil {
		return stac.Item{}, err
	}
	return item, nil
}
