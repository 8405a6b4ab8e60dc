// Package config loads runtime settings from the environment. The stack
// declaration itself lives in stack.yaml; this covers only what varies
// per deployment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Region    string `env:"AWS_REGION" envDefault:"eu-north-1"`
	StackPath string `env:"STACK_PATH" envDefault:"infra/stack.yaml"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	TopicARN       string `env:"EVENTS_TOPIC_ARN"`
	AuditQueueURL  string `env:"AUDIT_QUEUE_URL"`
	NotifyQueueURL string `env:"NOTIFY_QUEUE_URL"`

	// EventRetentionDays bounds the audit trail; rows past it are expired
	// by the table's TTL attribute.
	EventRetentionDays int `env:"EVENT_RETENTION_DAYS" envDefault:"90"`

	// LocalDataPath switches serve --local persistence from in-memory to
	// an on-disk badger directory.
	LocalDataPath string `env:"LOCAL_DATA_PATH"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"orders@storefront.example"`
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
