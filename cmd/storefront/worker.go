package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/acksell/storefront/dynamo"
	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/config"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/notify"
	"github.com/acksell/storefront/internal/worker"

	awsddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"golang.org/x/sync/errgroup"
)

func runWorker() error {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.AuditQueueURL == "" || cfg.NotifyQueueURL == "" {
		return fmt.Errorf("AUDIT_QUEUE_URL and NOTIFY_QUEUE_URL are required (run storefront provision first)")
	}

	stack, err := infra.Load(cfg.StackPath)
	if err != nil {
		return err
	}
	_, _, eventsDef, err := tableDefs(stack)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}
	client := dynamo.New(awsddb.NewFromConfig(awsCfg))
	events := event.NewStore(client, eventsDef, retention(cfg))
	notifier := notify.New(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailEnabled, logger)

	sqsClient := sqs.NewFromConfig(awsCfg)
	audit := bus.NewSQSConsumer(sqsClient, cfg.AuditQueueURL, queueWait(stack, cfg.AuditQueueURL), logger)
	notifyQ := bus.NewSQSConsumer(sqsClient, cfg.NotifyQueueURL, queueWait(stack, cfg.NotifyQueueURL), logger)

	logger.Info().Msg("workers running")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return audit.Consume(ctx, worker.Audit(events, logger)) })
	g.Go(func() error { return notifyQ.Consume(ctx, worker.Notify(notifier, logger)) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// queueWait picks the declared batch window for the queue the URL ends
// with, falling back to the consumer default.
func queueWait(stack *infra.Stack, queueURL string) int {
	for _, q := range stack.Queues {
		if len(queueURL) >= len(q.Name) && queueURL[len(queueURL)-len(q.Name):] == q.Name {
			return q.BatchWindowSeconds
		}
	}
	return 0
}
