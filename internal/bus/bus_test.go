package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	published []sns.PublishInput
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, *params)
	return &sns.PublishOutput{}, nil
}

func TestSNSPublisherStampsFilterAttribute(t *testing.T) {
	fake := &fakeSNS{}
	p := NewSNSPublisher(fake, "arn:topic", "eventType", zerolog.Nop())

	ev, err := NewEvent(OrderCreated, "01A", map[string]string{"id": "01A"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, fake.published, 1)
	in := fake.published[0]
	assert.Equal(t, "arn:topic", *in.TopicArn)

	attr, ok := in.MessageAttributes["eventType"]
	require.True(t, ok)
	assert.Equal(t, OrderCreated, *attr.StringValue)

	var sent Event
	require.NoError(t, json.Unmarshal([]byte(*in.Message), &sent))
	assert.Equal(t, OrderCreated, sent.Type)
	assert.Equal(t, "01A", sent.EntityID)
	assert.JSONEq(t, `{"id":"01A"}`, string(sent.Payload))
}

// fakeSQS hands out one batch, then cancels the context so Consume
// returns.
type fakeSQS struct {
	cancel   context.CancelFunc
	messages []sqstypes.Message
	deleted  []string
	calls    int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.calls++
	if f.calls > 1 {
		f.cancel()
		return &sqs.ReceiveMessageOutput{}, nil
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func message(t *testing.T, receipt string, ev Event) sqstypes.Message {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	b := string(body)
	return sqstypes.Message{Body: &b, ReceiptHandle: &receipt}
}

func TestConsumerDeletesHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev, err := NewEvent(OrderCreated, "01A", nil)
	require.NoError(t, err)
	fake := &fakeSQS{cancel: cancel, messages: []sqstypes.Message{message(t, "r1", ev)}}
	c := NewSQSConsumer(fake, "queue-url", 1, zerolog.Nop())

	var handled []string
	_ = c.Consume(ctx, func(ctx context.Context, ev Event) error {
		handled = append(handled, ev.Type)
		return nil
	})

	assert.Equal(t, []string{OrderCreated}, handled)
	assert.Equal(t, []string{"r1"}, fake.deleted)
}

func TestConsumerLeavesFailedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev, err := NewEvent(OrderCreated, "01A", nil)
	require.NoError(t, err)
	fake := &fakeSQS{cancel: cancel, messages: []sqstypes.Message{message(t, "r1", ev)}}
	c := NewSQSConsumer(fake, "queue-url", 1, zerolog.Nop())

	_ = c.Consume(ctx, func(ctx context.Context, ev Event) error {
		return fmt.Errorf("boom")
	})

	assert.Empty(t, fake.deleted, "failed messages stay on the queue for redelivery")
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body := "not json"
	receipt := "r1"
	fake := &fakeSQS{cancel: cancel, messages: []sqstypes.Message{{Body: &body, ReceiptHandle: &receipt}}}
	c := NewSQSConsumer(fake, "queue-url", 1, zerolog.Nop())

	var handled int
	_ = c.Consume(ctx, func(ctx context.Context, ev Event) error {
		handled++
		return nil
	})

	assert.Zero(t, handled)
	assert.Equal(t, []string{"r1"}, fake.deleted)
}

func TestLocalBusFiltersByType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewLocal(zerolog.Nop())
	all := local.Subscribe()
	ordersOnly := local.Subscribe(OrderCreated)

	got := make(chan string, 4)
	go all.Consume(ctx, func(ctx context.Context, ev Event) error {
		got <- "all:" + ev.Type
		return nil
	})
	go ordersOnly.Consume(ctx, func(ctx context.Context, ev Event) error {
		got <- "orders:" + ev.Type
		return nil
	})

	for _, typ := range []string{ProductCreated, OrderCreated} {
		ev, err := NewEvent(typ, "x", nil)
		require.NoError(t, err)
		require.NoError(t, local.Publish(ctx, ev))
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[<-got] = true
	}
	assert.True(t, seen["all:"+ProductCreated])
	assert.True(t, seen["all:"+OrderCreated])
	assert.True(t, seen["orders:"+OrderCreated])
}
