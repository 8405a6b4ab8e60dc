package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/acksell/storefront/dynamo"
	"github.com/acksell/storefront/dynamo/localstore"
	"github.com/acksell/storefront/infra"
	"github.com/acksell/storefront/internal/bus"
	"github.com/acksell/storefront/internal/catalog"
	"github.com/acksell/storefront/internal/config"
	"github.com/acksell/storefront/internal/event"
	"github.com/acksell/storefront/internal/httpapi"
	"github.com/acksell/storefront/internal/notify"
	"github.com/acksell/storefront/internal/order"
	"github.com/acksell/storefront/internal/worker"

	awsddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

func runServe() error {
	local := flag.Bool("local", false, "run against an embedded store and in-process bus, no AWS")
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
	productsDef, ordersDef, eventsDef, err := tableDefs(stack)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ddb dynamo.AWSClient
	var publisher bus.Publisher
	if *local {
		store, err := localstore.New(localstore.Options{Path: cfg.LocalDataPath}, stack.Definitions()...)
		if err != nil {
			return err
		}
		defer store.Close()
		ddb = store

		// In-process bus standing in for the topic, with the workers
		// running alongside the API.
		localBus := bus.NewLocal(logger)
		publisher = localBus
		client := dynamo.New(store)
		events := event.NewStore(client, eventsDef, retention(cfg))
		notifier := notify.New(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailEnabled, logger)
		go localBus.Subscribe().Consume(ctx, worker.Audit(events, logger))
		go localBus.Subscribe(bus.OrderCreated, bus.OrderUpdated, bus.OrderDeleted).
			Consume(ctx, worker.Notify(notifier, logger))
	} else {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if cfg.TopicARN == "" {
			return fmt.Errorf("EVENTS_TOPIC_ARN is required (run storefront provision first)")
		}
		attr, err := filterAttribute(stack)
		if err != nil {
			return err
		}
		ddb = awsddb.NewFromConfig(awsCfg)
		publisher = bus.NewSNSPublisher(sns.NewFromConfig(awsCfg), cfg.TopicARN, attr, logger)
	}

	client := dynamo.New(ddb)
	server := httpapi.NewServer(
		catalog.NewStore(client, productsDef),
		order.NewStore(client, ordersDef),
		event.NewStore(client, eventsDef, retention(cfg)),
		publisher,
		logger,
	)
	handler, err := server.Handler(stack.Routes)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Bool("local", *local).Msg("serving")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func retention(cfg config.Config) time.Duration {
	return time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
}
