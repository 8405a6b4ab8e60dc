package provision

import (
	"fmt"

	"github.com/acksell/storefront/infra"
)

// policyDocument is the subset of the IAM policy grammar this stack needs.
type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string            `json:"Sid,omitempty"`
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal,omitempty"`
	Action    []string          `json:"Action"`
	Resource  []string          `json:"Resource,omitempty"`
	Condition map[string]any    `json:"Condition,omitempty"`
}

// queueDeliveryPolicy lets the topic deliver into the queue.
func queueDeliveryPolicy(queueARN, topicARN string) policyDocument {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "AllowTopicDelivery",
			Effect:    "Allow",
			Principal: map[string]string{"Service": "sns.amazonaws.com"},
			Action:    []string{"sqs:SendMessage"},
			Resource:  []string{queueARN},
			Condition: map[string]any{
				"ArnEquals": map[string]string{"aws:SourceArn": topicARN},
			},
		}},
	}
}

// lambdaAssumeRolePolicy is the trust policy for the handler role.
func lambdaAssumeRolePolicy() policyDocument {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]string{"Service": "lambda.amazonaws.com"},
			Action:    []string{"sts:AssumeRole"},
		}},
	}
}

// handlerPolicy grants the handlers access to exactly the declared
// resources: item-level table access, publish on the topics, and
// consume on the queues.
func handlerPolicy(stack *infra.Stack, region string, res *Result) policyDocument {
	tableARNs := make([]string, len(stack.Tables))
	for i, t := range stack.Tables {
		tableARNs[i] = fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", region, res.AccountID, t.Name)
	}
	topicARNs := make([]string, 0, len(res.TopicARNs))
	for _, arn := range res.TopicARNs {
		topicARNs = append(topicARNs, arn)
	}
	queueARNs := make([]string, 0, len(res.QueueARNs))
	for _, arn := range res.QueueARNs {
		queueARNs = append(queueARNs, arn)
	}

	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:    "TableAccess",
				Effect: "Allow",
				Action: []string{
					"dynamodb:GetItem",
					"dynamodb:PutItem",
					"dynamodb:UpdateItem",
					"dynamodb:DeleteItem",
					"dynamodb:Query",
					"dynamodb:Scan",
				},
				Resource: tableARNs,
			},
			{
				Sid:      "TopicPublish",
				Effect:   "Allow",
				Action:   []string{"sns:Publish"},
				Resource: topicARNs,
			},
			{
				Sid:    "QueueConsume",
				Effect: "Allow",
				Action: []string{
					"sqs:ReceiveMessage",
					"sqs:DeleteMessage",
					"sqs:GetQueueAttributes",
				},
				Resource: queueARNs,
			},
		},
	}
}
