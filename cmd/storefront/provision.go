package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/infra/provision"
	"github.com/acksell/storefront/internal/config"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

func runProvision() error {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	stack, err := infra.Load(cfg.StackPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	p := provision.New(
		dynamodb.NewFromConfig(awsCfg),
		sns.NewFromConfig(awsCfg),
		sqs.NewFromConfig(awsCfg),
		iam.NewFromConfig(awsCfg),
		sts.NewFromConfig(awsCfg),
		cfg.Region,
		logger,
	)
	res, err := p.Apply(ctx, stack)
	if err != nil {
		return err
	}

	// Print the identifiers the serve and worker commands need.
	for name, arn := range res.TopicARNs {
		fmt.Printf("topic %s: %s\n", name, arn)
	}
	for name, url := range res.QueueURLs {
		fmt.Printf("queue %s: %s\n", name, url)
	}
	fmt.Printf("role: %s\n", res.RoleARN)
	return nil
}
