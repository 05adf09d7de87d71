package ingest

import "stac-loader/internal/stac"

// Decoded pairs a successfully decoded item with its source messageId.
type Decoded struct {
	Item      stac.Item
	MessageID string
}

// CollectionBatch holds one collection's items and their source message
// ids as parallel slices: Items[i] came from MessageIDs[i]. Load failures
// use that correspondence to fail exactly the right messages.
type CollectionBatch struct {
	Collection string
	Items      []stac.Item
	MessageIDs []string
}

// Len returns the number of items in the batch.
func (b *CollectionBatch) Len() int { return len(b.Items) }

// GroupByCollection folds decoded pairs into one batch per collection.
// Order within a batch matches decode order, and the returned collection
// keys are in first-seen order so loads are deterministic.
func GroupByCollection(pairs []Decoded) (map[string]*CollectionBatch, []string) {
	batches := make(map[string]*CollectionBatch, len(pairs))
	var order []string
	for _, p := range pairs {
		batch, ok := batches[p.Item.Collection]
		if !ok {
			batch = &CollectionBatch{Collection: p.Item.Collection}
			batches[p.Item.Collection] = batch
			order = append(order, p.Item.Collection)
		}
		batch.Items = append(batch.Items, p.Item)
		batch.MessageIDs = append(batch.MessageIDs, p.MessageID)
	}
	return batches, order
}
