package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stac-loader/internal/bootstrap"
	"stac-loader/internal/ingest"
	"stac-loader/internal/queue"
	"stac-loader/internal/shared/config"
	"stac-loader/internal/shared/metrics"
	"stac-loader/internal/shared/telemetry"
)

const receiveErrorBackoff = time.Second

func main() {
	cfg := config.Load()
	if cfg.QueueURL == "" {
		log.Fatal("LOAD_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.DB.Close()

	consumer, err := queue.NewSQSConsumer(ctx, cfg.QueueURL, cfg.VisibilityTimeout)
	if err != nil {
		log.Fatalf("queue consumer: %v", err)
	}

	go serveOps(cfg.HealthPort)

	app.Log.Info("worker started", map[string]any{
		"queue":       cfg.QueueURL,
		"concurrency": cfg.LoadConcurrency,
		"visibility":  cfg.VisibilityTimeout.String(),
	})

	runLoop(ctx, consumer, app.Processor, app.Log)
	app.Log.Info("worker stopped", nil)
}

type batchProcessor interface {
	ProcessBatch(ctx context.Context, records []ingest.Record) *ingest.Outcome
}

func runLoop(ctx context.Context, consumer queue.Consumer, proc batchProcessor, logger telemetry.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		deliveries, err := consumer.Receive(ctx, 10)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("receive failed", map[string]any{"error": err.Error()})
			time.Sleep(receiveErrorBackoff)
			continue
		}
		if len(deliveries) == 0 {
			continue
		}

		handleDeliveries(ctx, consumer, proc, logger, deliveries)
	}
}

// handleDeliveries runs one received batch through the pipeline and
// acknowledges only the messages that succeeded. Failed messages stay on
// the queue and redeliver after the visibility timeout; the queue's
// redrive policy quarantines them once the receive count is exhausted.
func handleDeliveries(ctx context.Context, consumer queue.Consumer, proc batchProcessor, logger telemetry.Logger, deliveries []queue.Delivery) {
	invocationID := uuid.NewString()

	records := make([]ingest.Record, 0, len(deliveries))
	for _, d := range deliveries {
		records = append(records, ingest.Record{MessageID: d.MessageID, Body: d.Body})
	}

	outcome := proc.ProcessBatch(ctx, records)

	failed := make(map[string]struct{}, len(outcome.Failed()))
	for _, id := range outcome.Failed() {
		failed[id] = struct{}{}
	}

	acks := make([]string, 0, len(deliveries))
	for _, d := range deliveries {
		if _, isFailed := failed[d.MessageID]; !isFailed {
			acks = append(acks, d.ReceiptHandle)
		}
	}

	if err := consumer.DeleteBatch(ctx, acks); err != nil {
		// Undeleted successes redeliver; the upsert makes that harmless.
		logger.Warn("ack failed, successful messages will redeliver", map[string]any{
			"invocation_id": invocationID,
			"error":         err.Error(),
		})
	}

	logger.Info("batch handled", map[string]any{
		"invocation_id": invocationID,
		"received":      len(deliveries),
		"acked":         len(acks),
		"failed":        len(outcome.Failed()),
	})
}

func serveOps(port string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())
	if err := router.Run(":" + port); err != nil {
		log.Printf("ops server: %v", err)
	}
}
