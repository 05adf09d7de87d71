package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	defaultWaitSeconds       = 20
	defaultVisibilitySeconds = 300
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// SQSConsumer receives loading-topic notifications from an SQS queue.
type SQSConsumer struct {
	client            sqsAPI
	queueURL          string
	waitSeconds       int32
	visibilitySeconds int32
}

// NewSQSConsumer constructs an SQS-backed consumer for the given queue.
func NewSQSConsumer(ctx context.Context, queueURL string, visibilityTimeout time.Duration) (*SQSConsumer, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("queue url is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	visibility := int32(visibilityTimeout / time.Second)
	if visibility <= 0 {
		visibility = defaultVisibilitySeconds
	}

	return &SQSConsumer{
		client:            sqs.NewFromConfig(cfg),
		queueURL:          queueURL,
		waitSeconds:       defaultWaitSeconds,
		visibilitySeconds: visibility,
	}, nil
}

// Receive long-polls for up to max messages.
func (c *SQSConsumer) Receive(ctx context.Context, max int32) ([]Delivery, error) {
	if max <= 0 || max > 10 {
		max = 10
	}

	resp, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     c.waitSeconds,
		VisibilityTimeout:   c.visibilitySeconds,
		AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive message: %w", err)
	}

	deliveries := make([]Delivery, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		deliveries = append(deliveries, Delivery{
			MessageID:     aws.ToString(msg.MessageId),
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
			Body:          aws.ToString(msg.Body),
			ReceiveCount:  receiveCount(msg),
		})
	}
	return deliveries, nil
}

// DeleteBatch acknowledges the given messages. A partial delete failure
// is returned as an error; the affected messages simply redeliver.
func (c *SQSConsumer) DeleteBatch(ctx context.Context, receiptHandles []string) error {
	if len(receiptHandles) == 0 {
		return nil
	}

	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, len(receiptHandles))
	for i, handle := range receiptHandles {
		entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: aws.String(handle),
		})
	}

	resp, err := c.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(c.queueURL),
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("sqs delete message batch: %w", err)
	}
	if len(resp.Failed) > 0 {
		return fmt.Errorf("sqs delete message batch: %d entries failed", len(resp.Failed))
	}
	return nil
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

var _ Consumer = (*SQSConsumer)(nil)
