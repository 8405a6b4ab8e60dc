package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog"
)

// SNSAPI is the slice of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes events to one topic, setting the filter
// attribute subscriptions match on.
type SNSPublisher struct {
	client     SNSAPI
	topicARN   string
	filterAttr string
	logger     zerolog.Logger
}

func NewSNSPublisher(client SNSAPI, topicARN, filterAttr string, logger zerolog.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:     client,
		topicARN:   topicARN,
		filterAttr: filterAttr,
		logger:     logger.With().Str("component", "bus.publisher").Logger(),
	}
}

func (p *SNSPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := string(body)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Message:  &msg,
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			p.filterAttr: {
				DataType:    strPtr("String"),
				StringValue: &ev.Type,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s for %s: %w", ev.Type, ev.EntityID, err)
	}
	p.logger.Debug().Str("eventType", ev.Type).Str("entityId", ev.EntityID).Msg("event published")
	return nil
}

func strPtr(s string) *string {
	return &s
}
