package ingest

// Outcome accumulates failed message ids across the decode and load
// phases. Ids are kept in first-failure order and de-duplicated; a clean
// outcome is distinct from an empty failure list at the transport layer,
// so callers must check Clean() rather than len(Failed()).
type Outcome struct {
	failed []string
	seen   map[string]struct{}
}

// Fail marks a message id as failed. Duplicate ids collapse.
func (o *Outcome) Fail(messageID string) {
	if o.seen == nil {
		o.seen = make(map[string]struct{})
	}
	if _, dup := o.seen[messageID]; dup {
		return
	}
	o.seen[messageID] = struct{}{}
	o.failed = append(o.failed, messageID)
}

// FailAll marks every id in the slice as failed.
func (o *Outcome) FailAll(messageIDs []string) {
	for _, id := range messageIDs {
		o.Fail(id)
	}
}

// Failed returns the failed ids in first-failure order.
func (o *Outcome) Failed() []string { return o.failed }

// Clean reports whether every record in the batch succeeded.
func (o *Outcome) Clean() bool { return len(o.failed) == 0 }
