package ingest

import (
	"context"
	"sync"
	"time"

	"stac-loader/internal/shared/metrics"
	"stac-loader/internal/shared/telemetry"
)

// BatchLoader persists one collection's batch into the catalog store.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch *CollectionBatch) error
}

// Processor runs one queue invocation: decode every record, group by
// collection, load each collection independently, and report which
// message ids failed so only those are redelivered.
type Processor struct {
	Loader BatchLoader
	Log    telemetry.Logger

	// Concurrency bounds parallel per-collection loads. Values <= 1
	// load sequentially. Each load uses its own store connection.
	Concurrency int
}

// ProcessBatch processes one delivery of records. Per-record and
// per-collection faults become entries in the returned Outcome; nothing
// escapes as an error because the transport treats a returned error as a
// whole-batch failure.
func (p *Processor) ProcessBatch(ctx context.Context, records []Record) *Outcome {
	log := p.Log
	if log == nil {
		log = telemetry.Std{}
	}

	log.Info("batch received", map[string]any{"records": len(records)})
	metrics.AddRecordsReceived(len(records))

	outcome := &Outcome{}
	decoded := make([]Decoded, 0, len(records))
	for i, rec := range records {
		if rec.MessageID == "" {
			// Cannot report a failure without an id; the queue always
			// sets one, so this only fires for malformed harness input.
			log.Warn("record missing messageId, skipping", map[string]any{"index": i})
			continue
		}
		item, err := DecodeRecord(rec)
		if err != nil {
			log.Error("record decode failed", map[string]any{
				"message_id": rec.MessageID,
				"error":      err.Error(),
			})
			metrics.IncRecordsFailed()
			outcome.Fail(rec.MessageID)
			continue
		}
		decoded = append(decoded, Decoded{Item: item, MessageID: rec.MessageID})
	}

	log.Info("batch decoded", map[string]any{
		"ok":     len(decoded),
		"failed": len(outcome.Failed()),
	})

	batches, order := GroupByCollection(decoded)
	p.loadAll(ctx, log, batches, order, outcome)

	if outcome.Clean() {
		log.Info("batch complete, all records successful", map[string]any{"records": len(records)})
	} else {
		log.Warn("batch complete with failures", map[string]any{
			"failed":     len(outcome.Failed()),
			"failed_ids": outcome.Failed(),
		})
	}
	return outcome
}

func (p *Processor) loadAll(ctx context.Context, log telemetry.Logger, batches map[string]*CollectionBatch, order []string, outcome *Outcome) {
	loadErrs := make([]error, len(order))

	if p.Concurrency > 1 && len(order) > 1 {
		sem := make(chan struct{}, p.Concurrency)
		var wg sync.WaitGroup
		for i, collection := range order {
			sem <- struct{}{}
			wg.Add(1)
			go func(i int, batch *CollectionBatch) {
				defer wg.Done()
				defer func() { <-sem }()
				loadErrs[i] = p.loadOne(ctx, log, batch)
			}(i, batches[collection])
		}
		wg.Wait()
	} else {
		for i, collection := range order {
			loadErrs[i] = p.loadOne(ctx, log, batches[collection])
		}
	}

	// Fold failures in collection order so the reported ids are stable.
	for i, collection := range order {
		if loadErrs[i] != nil {
			outcome.FailAll(batches[collection].MessageIDs)
		}
	}
}

func (p *Processor) loadOne(ctx context.Context, log telemetry.Logger, batch *CollectionBatch) error {
	log.Info("loading collection batch", map[string]any{
		"collection": batch.Collection,
		"items":      batch.Len(),
	})
	start := time.Now()
	if err := p.Loader.LoadBatch(ctx, batch); err != nil {
		log.Error("collection load failed", map[string]any{
			"collection": batch.Collection,
			"items":      batch.Len(),
			"error":      err.Error(),
		})
		metrics.IncCollectionsFailed()
		return err
	}
	metrics.AddItemsLoaded(batch.Len())
	metrics.ObserveLoadDurationMs(float64(time.Since(start).Milliseconds()))
	log.Info("collection load complete", map[string]any{
		"collection": batch.Collection,
		"items":      batch.Len(),
	})
	return nil
}
