package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "infra/stack.yaml", cfg.StackPath)
	assert.Equal(t, 90, cfg.EventRetentionDays)
	assert.False(t, cfg.EmailEnabled)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("EVENTS_TOPIC_ARN", "arn:aws:sns:eu-north-1:1:topic")
	t.Setenv("EVENT_RETENTION_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "arn:aws:sns:eu-north-1:1:topic", cfg.TopicARN)
	assert.Equal(t, 7, cfg.EventRetentionDays)
}
