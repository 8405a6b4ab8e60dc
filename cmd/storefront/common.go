package main

import (
	"context"
	"fmt"
	"os"

	"github.com/acksell/storefront/dynamo/table"
	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
)

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func loadAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// tableDefs resolves the three tables the handlers need out of the stack.
func tableDefs(stack *infra.Stack) (products, orders, events table.Definition, err error) {
	p, err := stack.TableNamed("products")
	if err != nil {
		return products, orders, events, err
	}
	o, err := stack.TableNamed("orders")
	if err != nil {
		return products, orders, events, err
	}
	e, err := stack.TableNamed("events")
	if err != nil {
		return products, orders, events, err
	}
	return p.Definition(), o.Definition(), e.Definition(), nil
}

// filterAttribute returns the topic's declared filter attribute.
func filterAttribute(stack *infra.Stack) (string, error) {
	if len(stack.Topics) == 0 {
		return "", fmt.Errorf("stack %s declares no topic", stack.Name)
	}
	attr := stack.Topics[0].FilterAttribute
	if attr == "" {
		return "", fmt.Errorf("topic %s declares no filter attribute", stack.Topics[0].Name)
	}
	return attr, nil
}
