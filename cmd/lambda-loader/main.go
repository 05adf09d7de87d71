package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-loader

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"stac-loader/internal/bootstrap"
	"stac-loader/internal/ingest"
	"stac-loader/internal/shared/config"
	"stac-loader/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp(ctx context.Context) {
	cfg := config.Load()
	built, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

type batchProcessor interface {
	ProcessBatch(ctx context.Context, records []ingest.Record) *ingest.Outcome
}

func handleEvent(ctx context.Context, proc batchProcessor, event events.SQSEvent) events.SQSEventResponse {
	records := make([]ingest.Record, 0, len(event.Records))
	for _, rec := range event.Records {
		records = append(records, ingest.Record{MessageID: rec.MessageId, Body: rec.Body})
	}

	outcome := proc.ProcessBatch(ctx, records)
	if outcome.Clean() {
		// Nil BatchItemFailures acknowledges the whole batch.
		return events.SQSEventResponse{}
	}

	failures := make([]events.SQSBatchItemFailure, 0, len(outcome.Failed()))
	for _, id := range outcome.Failed() {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(func() { initApp(ctx) })
	if initErr != nil {
		telemetry.Error("bootstrap failed, failing whole batch", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	return handleEvent(ctx, app.Processor, event), nil
}

func main() {
	lambda.Start(handler)
}
