package queue

import "context"

// Delivery is one message received from the queue.
type Delivery struct {
	MessageID     string
	ReceiptHandle string
	Body          string
	ReceiveCount  int
}

// Consumer receives batches from a queue backend and acknowledges the
// messages that were processed successfully. Unacknowledged messages
// reappear after the visibility timeout.
type Consumer interface {
	Receive(ctx context.Context, max int32) ([]Delivery, error)
	DeleteBatch(ctx context.Context, receiptHandles []string) error
}
