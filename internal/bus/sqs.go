package bus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
)

// SQSAPI is the slice of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConsumer long-polls one queue. Handled messages are deleted; a
// handler error leaves the message in flight so the broker redelivers
// it and eventually moves it to the dead-letter queue.
type SQSConsumer struct {
	client      SQSAPI
	queueURL    string
	waitSeconds int32
	batchSize   int32
	logger      zerolog.Logger
}

func NewSQSConsumer(client SQSAPI, queueURL string, waitSeconds int, logger zerolog.Logger) *SQSConsumer {
	if waitSeconds <= 0 {
		waitSeconds = 5
	}
	return &SQSConsumer{
		client:      client,
		queueURL:    queueURL,
		waitSeconds: int32(waitSeconds),
		batchSize:   10,
		logger:      logger.With().Str("component", "bus.consumer").Str("queue", queueURL).Logger(),
	}
}

func (c *SQSConsumer) Consume(ctx context.Context, handle Handler) error {
	for {
		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.queueURL,
			MaxNumberOfMessages: c.batchSize,
			WaitTimeSeconds:     c.waitSeconds,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("receive failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		for _, msg := range out.Messages {
			if msg.Body == nil {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(*msg.Body), &ev); err != nil {
				// An unparseable body never succeeds; deleting it now
				// beats three pointless redeliveries.
				c.logger.Error().Err(err).Msg("dropping malformed message")
				c.delete(ctx, msg.ReceiptHandle)
				continue
			}
			if err := handle(ctx, ev); err != nil {
				c.logger.Error().Err(err).Str("eventType", ev.Type).Str("entityId", ev.EntityID).Msg("handler failed, message left for redelivery")
				continue
			}
			c.delete(ctx, msg.ReceiptHandle)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *SQSConsumer) delete(ctx context.Context, receipt *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receipt,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("delete message failed")
	}
}
