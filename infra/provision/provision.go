// Package provision applies a stack declaration against AWS: tables with
// TTL, the topic, the queues with their dead-letter redrive, the
// topic-to-queue subscriptions with filter policies, and an IAM role the
// handlers run under. Apply is idempotent; resources that already exist
// are left alone.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/acksell/storefront/infra"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
)

type DynamoAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

type SNSAPI interface {
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
}

type SQSAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error)
}

type IAMAPI interface {
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
}

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type Provisioner struct {
	ddb    DynamoAPI
	sns    SNSAPI
	sqs    SQSAPI
	iam    IAMAPI
	sts    STSAPI
	region string
	logger zerolog.Logger
}

func New(ddb DynamoAPI, snsAPI SNSAPI, sqsAPI SQSAPI, iamAPI IAMAPI, stsAPI STSAPI, region string, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		ddb:    ddb,
		sns:    snsAPI,
		sqs:    sqsAPI,
		iam:    iamAPI,
		sts:    stsAPI,
		region: region,
		logger: logger.With().Str("component", "provision").Logger(),
	}
}

// Result reports the ARNs of the applied resources so the runtime config
// can point at them.
type Result struct {
	AccountID string
	TopicARNs map[string]string
	QueueURLs map[string]string
	QueueARNs map[string]string
	RoleARN   string
}

// Apply provisions every resource the stack declares.
func (p *Provisioner) Apply(ctx context.Context, stack *infra.Stack) (*Result, error) {
	ident, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve caller identity: %w", err)
	}
	res := &Result{
		AccountID: *ident.Account,
		TopicARNs: make(map[string]string),
		QueueURLs: make(map[string]string),
		QueueARNs: make(map[string]string),
	}

	for _, t := range stack.Tables {
		if err := p.applyTable(ctx, t); err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	for _, t := range stack.Topics {
		arn, err := p.applyTopic(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", t.Name, err)
		}
		res.TopicARNs[t.Name] = arn
	}
	// Dead-letter queues first so redrive policies can reference them.
	for _, q := range stack.Queues {
		if q.DeadLetter != nil {
			continue
		}
		if err := p.applyQueue(ctx, q, "", res); err != nil {
			return nil, fmt.Errorf("queue %s: %w", q.Name, err)
		}
	}
	for _, q := range stack.Queues {
		if q.DeadLetter == nil {
			continue
		}
		dlqARN, ok := res.QueueARNs[q.DeadLetter.Queue]
		if !ok {
			return nil, fmt.Errorf("queue %s: dead-letter queue %s was not provisioned", q.Name, q.DeadLetter.Queue)
		}
		if err := p.applyQueue(ctx, q, dlqARN, res); err != nil {
			return nil, fmt.Errorf("queue %s: %w", q.Name, err)
		}
	}
	for _, sub := range stack.Subscriptions {
		if err := p.applySubscription(ctx, stack, sub, res); err != nil {
			return nil, fmt.Errorf("subscription %s -> %s: %w", sub.Topic, sub.Queue, err)
		}
	}
	roleARN, err := p.applyRole(ctx, stack, res)
	if err != nil {
		return nil, fmt.Errorf("handler role: %w", err)
	}
	res.RoleARN = roleARN

	p.logger.Info().Str("stack", stack.Name).Str("account", res.AccountID).Msg("stack applied")
	return res, nil
}

func (p *Provisioner) applyTable(ctx context.Context, t infra.Table) error {
	attrs := []ddbtypes.AttributeDefinition{{
		AttributeName: &t.PartitionKey.Name,
		AttributeType: ddbtypes.ScalarAttributeType(t.PartitionKey.Kind),
	}}
	schema := []ddbtypes.KeySchemaElement{{
		AttributeName: &t.PartitionKey.Name,
		KeyType:       ddbtypes.KeyTypeHash,
	}}
	if t.SortKey != nil {
		attrs = append(attrs, ddbtypes.AttributeDefinition{
			AttributeName: &t.SortKey.Name,
			AttributeType: ddbtypes.ScalarAttributeType(t.SortKey.Kind),
		})
		schema = append(schema, ddbtypes.KeySchemaElement{
			AttributeName: &t.SortKey.Name,
			KeyType:       ddbtypes.KeyTypeRange,
		})
	}
	_, err := p.ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            &t.Name,
		AttributeDefinitions: attrs,
		KeySchema:            schema,
		BillingMode:          ddbtypes.BillingModePayPerRequest,
	})
	var inUse *ddbtypes.ResourceInUseException
	if errors.As(err, &inUse) {
		p.logger.Debug().Str("table", t.Name).Msg("table already exists")
	} else if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if t.TimeToLiveKey != "" {
		_, err := p.ddb.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
			TableName: &t.Name,
			TimeToLiveSpecification: &ddbtypes.TimeToLiveSpecification{
				AttributeName: &t.TimeToLiveKey,
				Enabled:       aws(true),
			},
		})
		if err != nil {
			return fmt.Errorf("enable ttl: %w", err)
		}
	}
	return nil
}

func (p *Provisioner) applyTopic(ctx context.Context, t infra.Topic) (string, error) {
	out, err := p.sns.CreateTopic(ctx, &sns.CreateTopicInput{Name: &t.Name})
	if err != nil {
		return "", fmt.Errorf("create topic: %w", err)
	}
	return *out.TopicArn, nil
}

func (p *Provisioner) applyQueue(ctx context.Context, q infra.Queue, dlqARN string, res *Result) error {
	attrs := make(map[string]string)
	if q.VisibilitySeconds > 0 {
		attrs["VisibilityTimeout"] = strconv.Itoa(q.VisibilitySeconds)
	}
	if q.BatchWindowSeconds > 0 {
		attrs["ReceiveMessageWaitTimeSeconds"] = strconv.Itoa(q.BatchWindowSeconds)
	}
	if dlqARN != "" {
		redrive, err := json.Marshal(map[string]string{
			"deadLetterTargetArn": dlqARN,
			"maxReceiveCount":     strconv.Itoa(q.DeadLetter.MaxReceive),
		})
		if err != nil {
			return fmt.Errorf("marshal redrive policy: %w", err)
		}
		attrs["RedrivePolicy"] = string(redrive)
	}
	out, err := p.sqs.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  &q.Name,
		Attributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	res.QueueURLs[q.Name] = *out.QueueUrl

	attrOut, err := p.sqs.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       out.QueueUrl,
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return fmt.Errorf("get queue arn: %w", err)
	}
	res.QueueARNs[q.Name] = attrOut.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
	return nil
}

func (p *Provisioner) applySubscription(ctx context.Context, stack *infra.Stack, sub infra.Subscription, res *Result) error {
	topicARN, ok := res.TopicARNs[sub.Topic]
	if !ok {
		return fmt.Errorf("topic %s was not provisioned", sub.Topic)
	}
	queueARN, ok := res.QueueARNs[sub.Queue]
	if !ok {
		return fmt.Errorf("queue %s was not provisioned", sub.Queue)
	}

	// The topic needs permission to deliver into the queue.
	policy, err := json.Marshal(queueDeliveryPolicy(queueARN, topicARN))
	if err != nil {
		return fmt.Errorf("marshal queue policy: %w", err)
	}
	queueURL := res.QueueURLs[sub.Queue]
	_, err = p.sqs.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl:   &queueURL,
		Attributes: map[string]string{"Policy": string(policy)},
	})
	if err != nil {
		return fmt.Errorf("set queue policy: %w", err)
	}

	subAttrs := map[string]string{"RawMessageDelivery": "true"}
	if len(sub.FilterValues) > 0 {
		var filterAttr string
		for _, t := range stack.Topics {
			if t.Name == sub.Topic {
				filterAttr = t.FilterAttribute
			}
		}
		if filterAttr == "" {
			return fmt.Errorf("subscription filters on topic %s which declares no filter attribute", sub.Topic)
		}
		filter, err := json.Marshal(map[string][]string{filterAttr: sub.FilterValues})
		if err != nil {
			return fmt.Errorf("marshal filter policy: %w", err)
		}
		subAttrs["FilterPolicy"] = string(filter)
	}
	_, err = p.sns.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn:   &topicARN,
		Protocol:   aws("sqs"),
		Endpoint:   &queueARN,
		Attributes: subAttrs,
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (p *Provisioner) applyRole(ctx context.Context, stack *infra.Stack, res *Result) (string, error) {
	roleName := stack.Name + "-handler"
	assume, err := json.Marshal(lambdaAssumeRolePolicy())
	if err != nil {
		return "", fmt.Errorf("marshal assume-role policy: %w", err)
	}
	out, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 &roleName,
		AssumeRolePolicyDocument: aws(string(assume)),
	})
	var roleARN string
	var exists *iamtypes.EntityAlreadyExistsException
	switch {
	case errors.As(err, &exists):
		roleARN = fmt.Sprintf("arn:aws:iam::%s:role/%s", res.AccountID, roleName)
		p.logger.Debug().Str("role", roleName).Msg("role already exists")
	case err != nil:
		return "", fmt.Errorf("create role: %w", err)
	default:
		roleARN = *out.Role.Arn
	}

	doc, err := json.Marshal(handlerPolicy(stack, p.region, res))
	if err != nil {
		return "", fmt.Errorf("marshal handler policy: %w", err)
	}
	_, err = p.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       &roleName,
		PolicyName:     aws(stack.Name + "-access"),
		PolicyDocument: aws(string(doc)),
	})
	if err != nil {
		return "", fmt.Errorf("put role policy: %w", err)
	}
	return roleARN, nil
}

func aws[T any](v T) *T {
	return &v
}
